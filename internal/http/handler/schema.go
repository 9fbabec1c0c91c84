package handler

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"

	"crimescape.app/dna/internal/http/dto"
)

var incidentSchema = sync.OnceValue(func() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
	}
	s := r.Reflect(&dto.SubmitIncidentRequest{})
	s.Title = "Fraud incident submission"
	return s
})

type SchemaHandler struct{}

func NewSchemaHandler() *SchemaHandler {
	return &SchemaHandler{}
}

func (h *SchemaHandler) Incident(c *gin.Context) {
	c.JSON(http.StatusOK, incidentSchema())
}
