package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger writes one record per request, at error level for 5xx and warn for
// 4xx.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path += "?" + c.Request.URL.RawQuery
		}

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"route", c.FullPath(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			slog.ErrorContext(ctx, "request failed", attrs...)
		case status >= 400:
			slog.WarnContext(ctx, "request error", attrs...)
		default:
			slog.InfoContext(ctx, "request", attrs...)
		}
	}
}
