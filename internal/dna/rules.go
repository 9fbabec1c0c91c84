package dna

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scam type labels produced by the default rule table.
const (
	ScamTypeJob           = "Job Scam"
	ScamTypeCourier       = "Courier Fraud"
	ScamTypeInvestment    = "Investment Scam"
	ScamTypeDigitalArrest = "Digital Arrest"
	ScamTypeBanking       = "Banking Scam"
	ScamTypeOther         = "Other"

	// Not produced by the default rules, but treated as severe by intel.
	ScamTypePhishing      = "Phishing"
	ScamTypeBusinessEmail = "Business Email Compromise"
)

const (
	defaultMarkerWeight = 0.6
	defaultTextWeight   = 0.4
	defaultMinScore     = 0.50
	defaultMinMarker    = 0.35
	defaultMinText      = 0.25
)

var ErrInvalidRules = errors.New("invalid dna rules")

// Rules configures an Engine. A zero Rules is not usable; start from DefaultRules.
type Rules struct {
	// Vocabulary is matched as whole words; extraction preserves this order.
	Vocabulary []string `yaml:"vocabulary"`

	// Classes are tested in order and the first match wins.
	Classes  []ClassRule `yaml:"classes"`
	Fallback string      `yaml:"fallback"`

	Weights    Weights    `yaml:"weights"`
	Thresholds Thresholds `yaml:"thresholds"`
}

// ClassRule maps any of Terms (substring match on lowercased text) to Label.
type ClassRule struct {
	Label string   `yaml:"label"`
	Terms []string `yaml:"terms"`
}

type Weights struct {
	Marker float64 `yaml:"marker"`
	Text   float64 `yaml:"text"`
}

type Thresholds struct {
	MinScore  float64 `yaml:"min_score"`
	MinMarker float64 `yaml:"min_marker"`
	MinText   float64 `yaml:"min_text"`
}

func DefaultRules() Rules {
	return Rules{
		Vocabulary: []string{
			"urgent", "police", "arrest", "verify", "bank", "otp", "job", "courier",
			"payment", "account", "transfer", "investment", "loan", "tax", "fee",
		},
		Classes: []ClassRule{
			{Label: ScamTypeJob, Terms: []string{"job", "interview", "hiring"}},
			{Label: ScamTypeCourier, Terms: []string{"courier", "parcel", "delivery"}},
			{Label: ScamTypeInvestment, Terms: []string{"investment", "profit", "return"}},
			{Label: ScamTypeDigitalArrest, Terms: []string{"police", "arrest", "court"}},
			{Label: ScamTypeBanking, Terms: []string{"bank", "otp", "account"}},
		},
		Fallback: ScamTypeOther,
		Weights: Weights{
			Marker: defaultMarkerWeight,
			Text:   defaultTextWeight,
		},
		Thresholds: Thresholds{
			MinScore:  defaultMinScore,
			MinMarker: defaultMinMarker,
			MinText:   defaultMinText,
		},
	}
}

// ParseRules overlays the `dna:` section of a YAML document onto DefaultRules.
// Lists present in the document replace the defaults wholesale.
func ParseRules(data []byte) (Rules, error) {
	doc := struct {
		DNA *Rules `yaml:"dna"`
	}{}
	rules := DefaultRules()
	doc.DNA = &rules

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Rules{}, fmt.Errorf("parsing dna rules: %w", err)
	}
	if doc.DNA == nil {
		return DefaultRules(), nil
	}
	if err := doc.DNA.Validate(); err != nil {
		return Rules{}, err
	}
	return *doc.DNA, nil
}

// LoadRules reads rules from path. An empty path yields DefaultRules.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("reading rules file: %w", err)
	}
	return ParseRules(data)
}

func (r Rules) Validate() error {
	if len(r.Vocabulary) == 0 {
		return fmt.Errorf("%w: vocabulary is empty", ErrInvalidRules)
	}
	for _, term := range r.Vocabulary {
		if strings.TrimSpace(term) == "" {
			return fmt.Errorf("%w: blank vocabulary term", ErrInvalidRules)
		}
	}
	for i, c := range r.Classes {
		if c.Label == "" {
			return fmt.Errorf("%w: class %d has no label", ErrInvalidRules, i)
		}
		if len(c.Terms) == 0 {
			return fmt.Errorf("%w: class %q has no terms", ErrInvalidRules, c.Label)
		}
		for _, term := range c.Terms {
			if term == "" {
				return fmt.Errorf("%w: class %q has a blank term", ErrInvalidRules, c.Label)
			}
		}
	}
	if r.Fallback == "" {
		return fmt.Errorf("%w: fallback label is empty", ErrInvalidRules)
	}
	if r.Weights.Marker < 0 || r.Weights.Text < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidRules)
	}
	if r.Weights.Marker+r.Weights.Text == 0 {
		return fmt.Errorf("%w: weights sum to zero", ErrInvalidRules)
	}
	return nil
}

func (r Rules) clone() Rules {
	out := r
	out.Vocabulary = append([]string(nil), r.Vocabulary...)
	out.Classes = make([]ClassRule, len(r.Classes))
	for i, c := range r.Classes {
		out.Classes[i] = ClassRule{Label: c.Label, Terms: append([]string(nil), c.Terms...)}
	}
	return out
}
