package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crimescape.app/dna/internal/http/dto"
	"crimescape.app/dna/internal/service"
)

type FamilyHandler struct {
	families     service.FamilyService
	intelligence service.IntelligenceService
}

func NewFamilyHandler(families service.FamilyService, intelligence service.IntelligenceService) *FamilyHandler {
	return &FamilyHandler{families: families, intelligence: intelligence}
}

func (h *FamilyHandler) List(c *gin.Context) {
	limit, ok := limitQuery(c)
	if !ok {
		return
	}

	families, err := h.families.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "failed to list families")
		return
	}

	c.JSON(http.StatusOK, dto.ToFamilyResponses(families))
}

func (h *FamilyHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	family, err := h.families.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to get family")
		return
	}

	c.JSON(http.StatusOK, dto.ToFamilyResponse(family))
}

func (h *FamilyHandler) Incidents(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	incidents, err := h.families.Incidents(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to list family incidents")
		return
	}

	c.JSON(http.StatusOK, dto.ToIncidentResponses(incidents))
}

// Recompute refreshes the family's intelligence synchronously and returns the
// updated family.
func (h *FamilyHandler) Recompute(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	family, err := h.intelligence.Refresh(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to recompute family intelligence")
		return
	}

	c.JSON(http.StatusOK, dto.ToFamilyResponse(family))
}
