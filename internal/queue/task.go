package queue

type TaskType string

const (
	// TaskTypeFamilyRecompute rebuilds a family's intelligence from its
	// incidents.
	TaskTypeFamilyRecompute TaskType = "family_recompute"
)

// Reasons a recompute was requested. Informational only.
const (
	ReasonSynthesisFailed = "synthesis_failed"
	ReasonManual          = "manual"
)
