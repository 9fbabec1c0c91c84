package intel

import "crimescape.app/dna/internal/model"

const (
	reusedArtifactBonus = 20
	severeScamTypeBonus = 20
	// more distinct values than this counts as reuse
	reusedArtifactFloor = 3
)

// RiskScore is the 0-100 risk score of a family of scamType with the given
// incidents. It never decreases as cases or distinct phones/urls are added.
func (s *Synthesizer) RiskScore(scamType string, incidents []model.Incident) int {
	score := caseCountPoints(len(incidents))

	if len(uniqueNonEmpty(incidents, phoneOf, 0)) > reusedArtifactFloor {
		score += reusedArtifactBonus
	}
	if len(uniqueNonEmpty(incidents, urlOf, 0)) > reusedArtifactFloor {
		score += reusedArtifactBonus
	}
	if _, ok := s.severe[scamType]; ok {
		score += severeScamTypeBonus
	}

	return min(max(score, 0), 100)
}

func caseCountPoints(n int) int {
	switch {
	case n >= 20:
		return 40
	case n >= 10:
		return 25
	case n >= 4:
		return 12
	default:
		return 0
	}
}

func RiskLabelFor(score int) model.RiskLabel {
	switch {
	case score >= 70:
		return model.RiskCritical
	case score >= 45:
		return model.RiskHigh
	case score >= 20:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}
