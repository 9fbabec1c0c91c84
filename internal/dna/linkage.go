package dna

// Decision says whether a report joins Match.Best or founds a new family.
type Decision struct {
	Linked bool
	Match  Match
	// Confidence is the best composite score, linked or not.
	Confidence float64
}

// FamilyID of the linked family, 0 when a new family must be created.
func (d Decision) FamilyID() int64 {
	if !d.Linked || d.Match.Best == nil {
		return 0
	}
	return d.Match.Best.FamilyID
}

// Decide applies the two-stage gate: the composite score must clear MinScore
// and at least one of the marker or text scores must clear its own floor.
func (e *Engine) Decide(m Match) Decision {
	t := e.rules.Thresholds
	strong := m.Best != nil &&
		m.Score >= t.MinScore &&
		(m.MarkerJaccard >= t.MinMarker || m.TextCosine >= t.MinText)

	return Decision{
		Linked:     strong,
		Match:      m,
		Confidence: clamp01(m.Score),
	}
}

// Link runs BestMatch then Decide.
func (e *Engine) Link(candidates []Candidate, fp Fingerprint, text string) Decision {
	return e.Decide(e.BestMatch(candidates, fp.Markers, text))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
