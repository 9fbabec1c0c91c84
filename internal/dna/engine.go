// Package dna fingerprints fraud reports and links them to known fraud families.
//
// Everything here is pure: an Engine is built once from Rules and never mutated,
// so a single instance can be shared across goroutines.
package dna

import (
	"fmt"
	"regexp"
	"strings"
)

type Engine struct {
	rules   Rules
	markers []markerPattern
	classes []ClassRule
}

type markerPattern struct {
	term string
	re   *regexp.Regexp
}

// New validates rules and compiles the marker patterns.
func New(rules Rules) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	rules = rules.clone()

	seen := make(map[string]struct{}, len(rules.Vocabulary))
	markers := make([]markerPattern, 0, len(rules.Vocabulary))
	for _, raw := range rules.Vocabulary {
		term := strings.ToLower(strings.TrimSpace(raw))
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}

		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(term) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("compiling marker %q: %w", term, err)
		}
		markers = append(markers, markerPattern{term: term, re: re})
	}

	classes := make([]ClassRule, len(rules.Classes))
	for i, c := range rules.Classes {
		terms := make([]string, len(c.Terms))
		for j, t := range c.Terms {
			terms[j] = strings.ToLower(t)
		}
		classes[i] = ClassRule{Label: c.Label, Terms: terms}
	}

	return &Engine{rules: rules, markers: markers, classes: classes}, nil
}

// Default returns an Engine over DefaultRules.
func Default() *Engine {
	e, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return e
}

// Rules returns a copy of the rules the engine was built with.
func (e *Engine) Rules() Rules {
	return e.rules.clone()
}
