package router

import (
	"github.com/gin-gonic/gin"

	"crimescape.app/dna/internal/http/handler"
)

func IncidentRouter(router *gin.RouterGroup, handler *handler.IncidentHandler) {
	router.POST("", handler.Submit)
	router.GET("", handler.List)
	router.GET("/with-families", handler.WithFamilies)
	router.GET("/:id", handler.Get)
}
