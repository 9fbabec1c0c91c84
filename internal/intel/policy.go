package intel

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the tunables of the synthesizer. Risk buckets and label
// thresholds are fixed; see risk.go.
type Policy struct {
	SevereScamTypes []string `yaml:"severe_scam_types"`

	// MaxArtifacts caps each of phones, urls and phrases.
	MaxArtifacts int `yaml:"max_artifacts"`
	// MaxListed caps the urls/phones quoted in insight sentences.
	MaxListed int `yaml:"max_listed"`
	// TopTokens are kept after ranking; RenderedTokens of them are printed.
	TopTokens      int `yaml:"top_tokens"`
	RenderedTokens int `yaml:"rendered_tokens"`
	MaxActions     int `yaml:"max_actions"`
}

func DefaultPolicy() Policy {
	return Policy{
		SevereScamTypes: []string{"Banking Scam", "Phishing", "Business Email Compromise", "Digital Arrest"},
		MaxArtifacts:    10,
		MaxListed:       6,
		TopTokens:       6,
		RenderedTokens:  5,
		MaxActions:      5,
	}
}

// ParsePolicy overlays the `intel:` section of a YAML document onto
// DefaultPolicy. Every limit is a hard cap and must be at least 1.
func ParsePolicy(data []byte) (Policy, error) {
	p := DefaultPolicy()
	doc := struct {
		Intel *Policy `yaml:"intel"`
	}{Intel: &p}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Policy{}, fmt.Errorf("parsing intel policy: %w", err)
	}
	if doc.Intel == nil {
		return DefaultPolicy(), nil
	}
	if doc.Intel.MaxArtifacts < 1 || doc.Intel.MaxListed < 1 || doc.Intel.TopTokens < 1 ||
		doc.Intel.RenderedTokens < 1 || doc.Intel.MaxActions < 1 {
		return Policy{}, fmt.Errorf("intel policy limits must be at least 1")
	}
	return *doc.Intel, nil
}

// LoadPolicy reads the policy from path. An empty path yields DefaultPolicy.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("reading policy file: %w", err)
	}
	return ParsePolicy(data)
}
