package dna

import (
	"math"
	"sort"
	"strings"
)

// Candidate is the part of a fraud family that similarity is computed against.
type Candidate struct {
	FamilyID    int64
	CoreMarkers []string
	SampleText  string
}

type Similarity struct {
	Score         float64 `json:"score"`
	MarkerJaccard float64 `json:"marker_jaccard"`
	TextCosine    float64 `json:"text_cosine"`
}

// Match is the best candidate for a report. Best is nil when there were no
// candidates.
type Match struct {
	Best  *Candidate
	Index int
	Similarity
}

var punctuationReplacer = strings.NewReplacer(
	`"`, " ", "'", " ", ".", " ", ",", " ", "/", " ", "(", " ", ")", " ",
	"[", " ", "]", " ", ":", " ", ";", " ", "<", " ", ">", " ", "?", " ",
	"!", " ", "-", " ",
)

// Tokenize lowercases text, blanks out punctuation and splits on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(punctuationReplacer.Replace(strings.ToLower(text)))
}

func TermFrequency(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}

// Jaccard is |a ∩ b| / |a ∪ b| over the distinct members of a and b, 0 when
// both are empty.
func Jaccard(a, b []string) float64 {
	sa := make(map[string]struct{}, len(a))
	for _, x := range a {
		sa[x] = struct{}{}
	}
	sb := make(map[string]struct{}, len(b))
	for _, x := range b {
		sb[x] = struct{}{}
	}

	inter := 0
	for x := range sa {
		if _, ok := sb[x]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Cosine is the cosine similarity of two term-frequency vectors, 0 if either is
// empty. Terms are summed in sorted order so the result does not depend on map
// iteration or argument order.
func Cosine(a, b map[string]int) float64 {
	terms := make([]string, 0, len(a)+len(b))
	for k := range a {
		terms = append(terms, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			terms = append(terms, k)
		}
	}
	sort.Strings(terms)

	var dot, na, nb float64
	for _, k := range terms {
		x, y := float64(a[k]), float64(b[k])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / math.Sqrt(na*nb)
}

func TextCosine(a, b string) float64 {
	return Cosine(TermFrequency(Tokenize(a)), TermFrequency(Tokenize(b)))
}

// Score compares a report (markers, text) against one candidate family.
func (e *Engine) Score(c Candidate, markers []string, text string) Similarity {
	return e.score(c, markers, TermFrequency(Tokenize(text)))
}

func (e *Engine) score(c Candidate, markers []string, tf map[string]int) Similarity {
	mj := Jaccard(c.CoreMarkers, markers)
	cos := Cosine(TermFrequency(Tokenize(c.SampleText)), tf)
	return Similarity{
		Score:         e.rules.Weights.Marker*mj + e.rules.Weights.Text*cos,
		MarkerJaccard: mj,
		TextCosine:    cos,
	}
}

// BestMatch scores every candidate and keeps the highest composite score. On a
// tie the earlier candidate wins, so the caller's listing order is the
// tie-break.
func (e *Engine) BestMatch(candidates []Candidate, markers []string, text string) Match {
	m := Match{Index: -1}
	if len(candidates) == 0 {
		return m
	}

	tf := TermFrequency(Tokenize(text))
	for i := range candidates {
		sim := e.score(candidates[i], markers, tf)
		if m.Best == nil || sim.Score > m.Score {
			m.Best = &candidates[i]
			m.Index = i
			m.Similarity = sim
		}
	}
	return m
}
