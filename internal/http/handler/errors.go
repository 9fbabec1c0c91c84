package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crimescape.app/dna/internal/service"
	"crimescape.app/dna/internal/store"
)

// respondError maps service errors onto status codes. failMsg is what a 5xx
// client sees; the underlying error is only logged.
func respondError(c *gin.Context, err error, failMsg string) {
	ctx := c.Request.Context()
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		slog.ErrorContext(ctx, failMsg, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failMsg})
	}
}

func respondBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
		return
	}
	slog.WarnContext(c.Request.Context(), "invalid request body", "error", err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func limitQuery(c *gin.Context) (int32, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return 0, false
	}
	return int32(n), true
}
