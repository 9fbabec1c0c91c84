package router

import (
	"github.com/gin-gonic/gin"

	"crimescape.app/dna/internal/http/handler"
)

func FamilyRouter(router *gin.RouterGroup, handler *handler.FamilyHandler) {
	router.GET("", handler.List)
	router.GET("/:id", handler.Get)
	router.GET("/:id/incidents", handler.Incidents)
	router.POST("/:id/recompute", handler.Recompute)
}
