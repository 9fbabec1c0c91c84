// Package intel derives a fraud family's risk label, narrative insights,
// suggested actions and artifact summary from its complete incident list.
//
// Every function here is a pure recomputation: the same ordered incidents
// always produce the same output, element order included.
package intel

import (
	"crimescape.app/dna/internal/model"
)

type Synthesizer struct {
	policy Policy
	severe map[string]struct{}
}

func New(policy Policy) *Synthesizer {
	severe := make(map[string]struct{}, len(policy.SevereScamTypes))
	for _, t := range policy.SevereScamTypes {
		severe[t] = struct{}{}
	}
	policy.SevereScamTypes = append([]string(nil), policy.SevereScamTypes...)
	policy.RenderedTokens = max(policy.RenderedTokens, 0)
	policy.MaxActions = max(policy.MaxActions, 0)
	return &Synthesizer{policy: policy, severe: severe}
}

func Default() *Synthesizer {
	return New(DefaultPolicy())
}

func (s *Synthesizer) Policy() Policy {
	p := s.policy
	p.SevereScamTypes = append([]string(nil), s.policy.SevereScamTypes...)
	return p
}

// Synthesize recomputes all intelligence fields for family. An empty incident
// list yields LOW risk and empty lists.
func (s *Synthesizer) Synthesize(family model.FraudFamily, incidents []model.Incident) model.Intelligence {
	if len(incidents) == 0 {
		return model.Intelligence{
			Risk:     model.RiskLow,
			Insights: []string{},
			Actions:  []string{},
			Artifacts: model.Artifacts{
				Phones:  []string{},
				URLs:    []string{},
				Phrases: []string{},
			},
		}
	}

	return model.Intelligence{
		Risk:      RiskLabelFor(s.RiskScore(family.ScamType, incidents)),
		Insights:  s.Insights(family.ScamType, incidents),
		Actions:   s.Actions(incidents),
		Artifacts: s.Artifacts(incidents),
	}
}

func (s *Synthesizer) Artifacts(incidents []model.Incident) model.Artifacts {
	limit := s.policy.MaxArtifacts
	return model.Artifacts{
		Phones:  uniqueNonEmpty(incidents, phoneOf, limit),
		URLs:    uniqueNonEmpty(incidents, urlOf, limit),
		Phrases: uniqueNonEmpty(incidents, rawTextOf, limit),
	}
}

func phoneOf(i model.Incident) string   { return i.Phone }
func urlOf(i model.Incident) string     { return i.URL }
func rawTextOf(i model.Incident) string { return i.RawText }

// uniqueNonEmpty collects at most limit distinct non-empty values in
// first-seen order.
func uniqueNonEmpty(incidents []model.Incident, field func(model.Incident) string, limit int) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, inc := range incidents {
		if len(out) >= limit {
			break
		}
		v := field(inc)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
