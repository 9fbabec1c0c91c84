package dto

import (
	"fmt"
	"time"

	"crimescape.app/dna/internal/dna"
	"crimescape.app/dna/internal/model"
	"crimescape.app/dna/internal/service"
)

// SubmitIncidentRequest is also the source of the published JSON Schema, so
// the jsonschema tags are part of the API.
type SubmitIncidentRequest struct {
	RawText    string     `json:"raw_text" binding:"required" jsonschema:"required,minLength=1,description=Message or call transcript as received by the victim"`
	Platform   string     `json:"platform,omitempty" binding:"omitempty,max=64" jsonschema:"maxLength=64,description=Channel the report came through,example=WhatsApp"`
	Phone      string     `json:"phone,omitempty" binding:"omitempty,max=32" jsonschema:"maxLength=32"`
	URL        string     `json:"url,omitempty" binding:"omitempty,max=2048" jsonschema:"maxLength=2048"`
	Location   string     `json:"location,omitempty" binding:"omitempty,max=128" jsonschema:"maxLength=128"`
	ReportedAt *time.Time `json:"reported_at,omitempty" jsonschema:"description=Backdates the incident; defaults to now"`
}

func (r SubmitIncidentRequest) ToParams(traceID string) service.SubmitIncidentParams {
	p := service.SubmitIncidentParams{
		RawText:  r.RawText,
		Platform: r.Platform,
		Phone:    r.Phone,
		URL:      r.URL,
		Location: r.Location,
		TraceID:  traceID,
	}
	if r.ReportedAt != nil {
		p.ReportedAt = *r.ReportedAt
	}
	return p
}

type IncidentResponse struct {
	ID         int64     `json:"id,string"`
	RawText    string    `json:"raw_text"`
	Platform   string    `json:"platform"`
	Phone      string    `json:"phone"`
	URL        string    `json:"url"`
	Location   string    `json:"location"`
	Markers    []string  `json:"markers"`
	ScamType   string    `json:"scam_type"`
	FamilyID   int64     `json:"family_id,string"`
	Confidence float64   `json:"confidence"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func ToIncidentResponse(i *model.Incident) IncidentResponse {
	return IncidentResponse{
		ID:         i.ID,
		RawText:    i.RawText,
		Platform:   i.Platform,
		Phone:      i.Phone,
		URL:        i.URL,
		Location:   i.Location,
		Markers:    nonNil(i.Markers),
		ScamType:   i.ScamType,
		FamilyID:   i.FamilyID,
		Confidence: i.Confidence,
		Status:     string(i.Status),
		CreatedAt:  i.CreatedAt,
	}
}

func ToIncidentResponses(incidents []model.Incident) []IncidentResponse {
	out := make([]IncidentResponse, 0, len(incidents))
	for i := range incidents {
		out = append(out, ToIncidentResponse(&incidents[i]))
	}
	return out
}

type SimilarityResponse struct {
	Score         float64 `json:"score"`
	MarkerJaccard float64 `json:"marker_jaccard"`
	TextCosine    float64 `json:"text_cosine"`
}

func ToSimilarityResponse(s dna.Similarity) SimilarityResponse {
	return SimilarityResponse{
		Score:         s.Score,
		MarkerJaccard: s.MarkerJaccard,
		TextCosine:    s.TextCosine,
	}
}

type SubmitIncidentResponse struct {
	Incident          IncidentResponse   `json:"incident"`
	Family            FamilyResponse     `json:"family"`
	Linked            bool               `json:"linked"`
	Confidence        float64            `json:"confidence"`
	ConfidencePct     string             `json:"confidence_pct"`
	ScamType          string             `json:"scam_type"`
	Markers           []string           `json:"markers"`
	Similarity        SimilarityResponse `json:"similarity"`
	IntelligenceStale bool               `json:"intelligence_stale,omitempty"`
}

func ToSubmitIncidentResponse(r *service.SubmitIncidentResult) SubmitIncidentResponse {
	return SubmitIncidentResponse{
		Incident:          ToIncidentResponse(r.Incident),
		Family:            ToFamilyResponse(r.Family),
		Linked:            r.Linked,
		Confidence:        r.Confidence,
		ConfidencePct:     Percent(r.Confidence),
		ScamType:          r.ScamType,
		Markers:           nonNil(r.Markers),
		Similarity:        ToSimilarityResponse(r.Similarity),
		IntelligenceStale: r.IntelligenceStale,
	}
}

// Percent renders a [0,1] score the way the dashboard shows it: "87.5%".
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

type ClassifyRequest struct {
	RawText string `json:"raw_text" binding:"required"`
}

type ClassifyResponse struct {
	Markers    []string           `json:"markers"`
	ScamType   string             `json:"scam_type"`
	WouldLink  bool               `json:"would_link"`
	FamilyID   *string            `json:"family_id,omitempty"`
	Similarity SimilarityResponse `json:"similarity"`
	Candidates int                `json:"candidates"`
}

func ToClassifyResponse(r *service.PreviewResult) ClassifyResponse {
	resp := ClassifyResponse{
		Markers:    nonNil(r.Fingerprint.Markers),
		ScamType:   r.Fingerprint.ScamType,
		WouldLink:  r.Linked,
		Similarity: ToSimilarityResponse(r.Similarity),
		Candidates: r.Candidates,
	}
	if r.Linked {
		id := formatID(r.FamilyID)
		resp.FamilyID = &id
	}
	return resp
}

type OverviewResponse struct {
	Incidents []IncidentResponse `json:"incidents"`
	Families  []FamilyResponse   `json:"families"`
}

func ToOverviewResponse(o *service.Overview) OverviewResponse {
	return OverviewResponse{
		Incidents: ToIncidentResponses(o.Incidents),
		Families:  ToFamilyResponses(o.Families),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
