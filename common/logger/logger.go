package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"

	"crimescape.app/dna/core/config"
)

// Setup installs the process-wide slog default. Production with an OTLP
// endpoint ships records through the otel bridge, production without one
// writes JSON, everything else writes text at debug level.
func Setup(cfg config.Config) {
	slog.SetDefault(slog.New(handlerFor(cfg, os.Stdout)))
}

func handlerFor(cfg config.Config, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.IsDevelopment() {
		opts.Level = slog.LevelDebug
	}

	switch {
	case cfg.IsProduction() && cfg.OTel.Enabled():
		return otelslog.NewHandler(cfg.OTel.ServiceName, otelslog.WithLoggerProvider(global.GetLoggerProvider()))
	case cfg.IsProduction():
		return NewTraceHandler(slog.NewJSONHandler(w, opts))
	default:
		return NewTraceHandler(slog.NewTextHandler(w, opts))
	}
}

// TraceHandler decorates records with the active span and the context LogFields.
type TraceHandler struct {
	slog.Handler
}

func NewTraceHandler(h slog.Handler) *TraceHandler {
	return &TraceHandler{Handler: h}
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	f := GetLogFields(ctx)
	if f.IncidentID != nil {
		r.AddAttrs(slog.Int64("incident_id", *f.IncidentID))
	}
	if f.FamilyID != nil {
		r.AddAttrs(slog.Int64("family_id", *f.FamilyID))
	}
	if f.ScamType != nil {
		r.AddAttrs(slog.String("scam_type", *f.ScamType))
	}
	if f.MessageID != nil {
		r.AddAttrs(slog.String("message_id", *f.MessageID))
	}
	if f.Component != "" {
		r.AddAttrs(slog.String("component", f.Component))
	}

	return h.Handler.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}
