package model

import "time"

type IncidentStatus string

const (
	IncidentStatusActive     IncidentStatus = "active"
	IncidentStatusResolved   IncidentStatus = "resolved"
	IncidentStatusMonitoring IncidentStatus = "monitoring"
)

const (
	DefaultPlatform = "Unknown"
	DefaultLocation = "Unknown"
)

// Incident is one submitted fraud report. FamilyID is set at creation and
// never changes.
type Incident struct {
	ID         int64          `json:"id"`
	RawText    string         `json:"raw_text"`
	Platform   string         `json:"platform"`
	Phone      string         `json:"phone"`
	URL        string         `json:"url"`
	Location   string         `json:"location"`
	Markers    []string       `json:"markers"`
	ScamType   string         `json:"scam_type"`
	FamilyID   int64          `json:"family_id"`
	Confidence float64        `json:"confidence"`
	Status     IncidentStatus `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}
