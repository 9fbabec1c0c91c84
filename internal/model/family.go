package model

import "time"

type RiskLabel string

const (
	RiskLow      RiskLabel = "LOW"
	RiskMedium   RiskLabel = "MEDIUM"
	RiskHigh     RiskLabel = "HIGH"
	RiskCritical RiskLabel = "CRITICAL"
)

func (r RiskLabel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// FraudFamily is a cluster of incidents attributed to one campaign.
//
// CoreMarkers and SampleText come from the founding incident and are never
// rewritten. Cases only grows. The Intelligence fields are a full
// recomputation over the family's incidents.
type FraudFamily struct {
	ID          int64     `json:"id"`
	Label       string    `json:"label"`
	ScamType    string    `json:"scam_type"`
	CoreMarkers []string  `json:"core_markers"`
	SampleText  string    `json:"sample_text"`
	Cases       []int64   `json:"cases"`
	LastSeen    time.Time `json:"last_seen"`
	CreatedAt   time.Time `json:"created_at"`

	Intelligence
}

type Intelligence struct {
	Risk      RiskLabel `json:"risk"`
	Insights  []string  `json:"insights"`
	Actions   []string  `json:"actions"`
	Artifacts Artifacts `json:"artifacts"`
}

type Artifacts struct {
	Phones  []string `json:"phones"`
	URLs    []string `json:"urls"`
	Phrases []string `json:"phrases"`
}
