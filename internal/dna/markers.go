package dna

import "strings"

// Fingerprint is the marker set and scam type extracted from one report.
type Fingerprint struct {
	Markers  []string `json:"markers"`
	ScamType string   `json:"scam_type"`
}

// ExtractMarkers returns the vocabulary terms found in text as whole words,
// in vocabulary order. Never nil.
func (e *Engine) ExtractMarkers(text string) []string {
	found := []string{}
	if text == "" {
		return found
	}
	low := strings.ToLower(text)
	for _, m := range e.markers {
		if m.re.MatchString(low) {
			found = append(found, m.term)
		}
	}
	return found
}

// Classify returns the label of the first class rule with a term contained in
// text, or the fallback label.
func (e *Engine) Classify(text string) string {
	low := strings.ToLower(text)
	for _, c := range e.classes {
		for _, term := range c.Terms {
			if strings.Contains(low, term) {
				return c.Label
			}
		}
	}
	return e.rules.Fallback
}

func (e *Engine) Fingerprint(text string) Fingerprint {
	return Fingerprint{
		Markers:  e.ExtractMarkers(text),
		ScamType: e.Classify(text),
	}
}
