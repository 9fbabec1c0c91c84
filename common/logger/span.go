package logger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "crimescape-dna"

// Span pairs a started otel span with the context that carries it.
type Span struct {
	ctx  context.Context
	span trace.Span
}

// StartSpan starts a child of whatever span ctx carries.
//
//	sp := logger.StartSpan(ctx, "service.classify_and_link")
//	defer sp.End()
//	ctx = sp.Context()
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) *Span {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, opts...)
	return &Span{ctx: ctx, span: span}
}

// StartSpanFromTraceID continues a trace whose id travelled through a queue
// message. An empty or malformed id starts a fresh root span.
func StartSpanFromTraceID(ctx context.Context, traceID, name string, opts ...trace.SpanStartOption) *Span {
	tid, err := trace.TraceIDFromHex(traceID)
	if traceID == "" || err != nil {
		return StartSpan(ctx, name, opts...)
	}

	remote := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	opts = append(opts, trace.WithLinks(trace.Link{SpanContext: remote}))
	return StartSpan(trace.ContextWithRemoteSpanContext(ctx, remote), name, opts...)
}

// TraceID of the span in ctx, "" if there is none.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

func (s *Span) Context() context.Context { return s.ctx }

func (s *Span) End() {
	if s.span != nil {
		s.span.End()
	}
}

func (s *Span) RecordError(err error) {
	if s.span != nil && err != nil {
		s.span.RecordError(err)
	}
}

func (s *Span) SetAttributes(kv ...attribute.KeyValue) {
	if s.span != nil {
		s.span.SetAttributes(kv...)
	}
}
