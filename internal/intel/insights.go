package intel

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"crimescape.app/dna/internal/model"
)

// Insights renders the narrative sentences in a fixed order: case count, scam
// profile, reused urls, reused phones, frequent tokens, closing narrative.
func (s *Synthesizer) Insights(scamType string, incidents []model.Incident) []string {
	insights := []string{
		fmt.Sprintf("Observed %d case(s) linked to this family.", len(incidents)),
	}

	if scamType != "" {
		insights = append(insights, fmt.Sprintf("Scam profile: %s.", scamType))
	}

	urls := uniqueNonEmpty(incidents, urlOf, s.policy.MaxListed)
	phones := uniqueNonEmpty(incidents, phoneOf, s.policy.MaxListed)
	if len(urls) > 0 {
		insights = append(insights, "Reused URLs detected: "+strings.Join(urls, ", "))
	}
	if len(phones) > 0 {
		insights = append(insights, "Contact numbers reused: "+strings.Join(phones, ", "))
	}

	top := FrequentTokens(incidents, s.policy.TopTokens)
	if shown := top[:min(len(top), s.policy.RenderedTokens)]; len(shown) > 0 {
		insights = append(insights, "Frequently occurring tokens: "+strings.Join(shown, ", "))
	}

	campaign := scamType
	if campaign == "" {
		campaign = "scam"
	}
	insights = append(insights, fmt.Sprintf("This appears to be an active %s campaign using urgency and centralized infrastructure.", campaign))

	return insights
}

// FrequentTokens ranks the lowercased tokens of every incident's raw text by
// count, ties going to the token seen first across all incidents in order.
// Stop-words are not filtered.
func FrequentTokens(incidents []model.Incident, limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, inc := range incidents {
		for _, tok := range strings.FieldsFunc(strings.ToLower(inc.RawText), isTokenSeparator) {
			if counts[tok] == 0 {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if limit >= 0 && len(order) > limit {
		order = order[:limit]
	}
	return order
}

func isTokenSeparator(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(",.!?;:()-", r)
}
