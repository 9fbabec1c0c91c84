package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crimescape.app/dna/internal/http/handler"
	"crimescape.app/dna/internal/service"
)

type RouterConfig struct {
	TraceHeader string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", health)
	router.GET("/api/health", health)

	v1 := router.Group("/api/v1")
	{
		incidentHandler := handler.NewIncidentHandler(services.Incidents(), services.Families(), cfg.TraceHeader)
		IncidentRouter(v1.Group("/incidents"), incidentHandler)
		v1.POST("/classify", incidentHandler.Classify)

		familyHandler := handler.NewFamilyHandler(services.Families(), services.Intelligence())
		FamilyRouter(v1.Group("/families"), familyHandler)

		schemaHandler := handler.NewSchemaHandler()
		v1.GET("/schema/incident", schemaHandler.Incident)
	}
}
