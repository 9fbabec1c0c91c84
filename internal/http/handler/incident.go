package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"crimescape.app/dna/internal/http/dto"
	"crimescape.app/dna/internal/service"
)

type IncidentHandler struct {
	incidents   service.IncidentService
	families    service.FamilyService
	traceHeader string
}

func NewIncidentHandler(incidents service.IncidentService, families service.FamilyService, traceHeader string) *IncidentHandler {
	return &IncidentHandler{
		incidents:   incidents,
		families:    families,
		traceHeader: traceHeader,
	}
}

func (h *IncidentHandler) Submit(c *gin.Context) {
	var req dto.SubmitIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.incidents.ClassifyAndLink(c.Request.Context(), req.ToParams(h.traceID(c)))
	if err != nil {
		respondError(c, err, "failed to submit incident")
		return
	}

	c.JSON(http.StatusCreated, dto.ToSubmitIncidentResponse(result))
}

func (h *IncidentHandler) List(c *gin.Context) {
	limit, ok := limitQuery(c)
	if !ok {
		return
	}

	incidents, err := h.incidents.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "failed to list incidents")
		return
	}

	c.JSON(http.StatusOK, dto.ToIncidentResponses(incidents))
}

func (h *IncidentHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	incident, err := h.incidents.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to get incident")
		return
	}

	c.JSON(http.StatusOK, dto.ToIncidentResponse(incident))
}

// WithFamilies serves the dashboard snapshot.
func (h *IncidentHandler) WithFamilies(c *gin.Context) {
	overview, err := h.families.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to load incidents")
		return
	}

	c.JSON(http.StatusOK, dto.ToOverviewResponse(overview))
}

// Classify fingerprints a text and reports what a submission would do,
// without persisting anything.
func (h *IncidentHandler) Classify(c *gin.Context) {
	var req dto.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	preview, err := h.incidents.Preview(c.Request.Context(), req.RawText)
	if err != nil {
		respondError(c, err, "failed to classify")
		return
	}

	c.JSON(http.StatusOK, dto.ToClassifyResponse(preview))
}

func (h *IncidentHandler) traceID(c *gin.Context) string {
	if h.traceHeader != "" {
		if id := c.GetHeader(h.traceHeader); id != "" {
			return id
		}
	}
	if spanCtx := trace.SpanContextFromContext(c.Request.Context()); spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}
