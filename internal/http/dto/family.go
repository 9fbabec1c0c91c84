package dto

import (
	"strconv"
	"time"

	"crimescape.app/dna/internal/model"
)

type ArtifactsResponse struct {
	Phones  []string `json:"phones"`
	URLs    []string `json:"urls"`
	Phrases []string `json:"phrases"`
}

type FamilyResponse struct {
	ID          int64             `json:"id,string"`
	Label       string            `json:"label"`
	ScamType    string            `json:"scam_type"`
	CoreMarkers []string          `json:"core_markers"`
	SampleText  string            `json:"sample_text"`
	Cases       []string          `json:"cases"`
	CaseCount   int               `json:"case_count"`
	Risk        string            `json:"risk"`
	Insights    []string          `json:"insights"`
	Actions     []string          `json:"actions"`
	Artifacts   ArtifactsResponse `json:"artifacts"`
	LastSeen    time.Time         `json:"last_seen"`
	CreatedAt   time.Time         `json:"created_at"`
}

func ToFamilyResponse(f *model.FraudFamily) FamilyResponse {
	cases := make([]string, 0, len(f.Cases))
	for _, id := range f.Cases {
		cases = append(cases, formatID(id))
	}
	return FamilyResponse{
		ID:          f.ID,
		Label:       f.Label,
		ScamType:    f.ScamType,
		CoreMarkers: nonNil(f.CoreMarkers),
		SampleText:  f.SampleText,
		Cases:       cases,
		CaseCount:   len(f.Cases),
		Risk:        string(f.Risk),
		Insights:    nonNil(f.Insights),
		Actions:     nonNil(f.Actions),
		Artifacts: ArtifactsResponse{
			Phones:  nonNil(f.Artifacts.Phones),
			URLs:    nonNil(f.Artifacts.URLs),
			Phrases: nonNil(f.Artifacts.Phrases),
		},
		LastSeen:  f.LastSeen,
		CreatedAt: f.CreatedAt,
	}
}

func ToFamilyResponses(families []model.FraudFamily) []FamilyResponse {
	out := make([]FamilyResponse, 0, len(families))
	for i := range families {
		out = append(out, ToFamilyResponse(&families[i]))
	}
	return out
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
