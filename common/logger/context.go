package logger

import "context"

type ctxKey struct{}

// LogFields are attached to every record logged with a context that carries them.
type LogFields struct {
	IncidentID *int64
	FamilyID   *int64
	ScamType   *string
	// MessageID is the redis stream entry being processed.
	MessageID *string
	Component string // e.g. "dna.service.incident"
}

// WithLogFields returns ctx carrying f merged over any fields already present.
// Non-nil and non-empty values in f win.
func WithLogFields(ctx context.Context, f LogFields) context.Context {
	return context.WithValue(ctx, ctxKey{}, merge(GetLogFields(ctx), f))
}

func GetLogFields(ctx context.Context) LogFields {
	if f, ok := ctx.Value(ctxKey{}).(LogFields); ok {
		return f
	}
	return LogFields{}
}

func merge(base, over LogFields) LogFields {
	if over.IncidentID != nil {
		base.IncidentID = over.IncidentID
	}
	if over.FamilyID != nil {
		base.FamilyID = over.FamilyID
	}
	if over.ScamType != nil {
		base.ScamType = over.ScamType
	}
	if over.MessageID != nil {
		base.MessageID = over.MessageID
	}
	if over.Component != "" {
		base.Component = over.Component
	}
	return base
}

func Ptr[T any](v T) *T {
	return &v
}

// Truncate cuts s to maxLen bytes, appending "..." when it was longer.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
