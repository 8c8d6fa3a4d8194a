// Package analysis holds the rule-based message heuristics: entity
// extraction, intent/sentiment/lead-quality classification and canned
// responses. Everything here is pure and safe for concurrent use.
package analysis

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

type IntentRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type EmotionRule struct {
	Name  string   `yaml:"name"`
	Terms []string `yaml:"terms"`
}

type SentimentTerms struct {
	Positive []string      `yaml:"positive"`
	Negative []string      `yaml:"negative"`
	Emotions []EmotionRule `yaml:"emotions"`
}

type LeadSignal struct {
	Term   string `yaml:"term"`
	Weight int    `yaml:"weight"`
}

type Recommendations struct {
	Quality map[string][]string `yaml:"quality"`
	Intents map[string]string   `yaml:"intents"`
}

type ResponseTemplates struct {
	Templates    map[string]string `yaml:"templates"`
	Alternatives []string          `yaml:"alternatives"`
}

// Lexicon is the single versioned source of every keyword table used by the
// extractor, the classifiers and the responder.
type Lexicon struct {
	Version         string            `yaml:"version"`
	Intents         []IntentRule      `yaml:"intents"`
	SpecificTerms   []string          `yaml:"specific_terms"`
	UrgencyTerms    []string          `yaml:"urgency_terms"`
	Sentiment       SentimentTerms    `yaml:"sentiment"`
	LeadSignals     []LeadSignal      `yaml:"lead_signals"`
	PhoneBonus      int               `yaml:"phone_bonus"`
	BuyTerms        []string          `yaml:"buy_terms"`
	EscalationTerms []string          `yaml:"escalation_terms"`
	Brands          []string          `yaml:"brands"`
	Vehicles        []string          `yaml:"vehicles"`
	Locations       []string          `yaml:"locations"`
	Months          []string          `yaml:"months"`
	DateWords       []string          `yaml:"date_words"`
	Recommendations Recommendations   `yaml:"recommendations"`
	Responses       ResponseTemplates `yaml:"responses"`
}

var (
	defaultOnce    sync.Once
	defaultLexicon *Lexicon
)

// DefaultLexicon returns the embedded lexicon, parsed once per process.
func DefaultLexicon() *Lexicon {
	defaultOnce.Do(func() {
		lex, err := ParseLexicon(defaultLexiconYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded lexicon is invalid: %v", err))
		}
		defaultLexicon = lex
	})
	return defaultLexicon
}

// LoadLexicon reads an override lexicon from disk. An empty path yields the
// embedded default.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	return ParseLexicon(data)
}

func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if err := lex.validate(); err != nil {
		return nil, err
	}
	return &lex, nil
}

func (l *Lexicon) validate() error {
	if l.Version == "" {
		return fmt.Errorf("lexicon: version is required")
	}
	if len(l.Intents) == 0 {
		return fmt.Errorf("lexicon: at least one intent rule is required")
	}
	seen := make(map[string]bool, len(l.Intents))
	for _, rule := range l.Intents {
		if rule.Name == "" || len(rule.Keywords) == 0 {
			return fmt.Errorf("lexicon: intent rules need a name and keywords")
		}
		if seen[rule.Name] {
			return fmt.Errorf("lexicon: duplicate intent %q", rule.Name)
		}
		seen[rule.Name] = true
	}
	for _, s := range l.LeadSignals {
		if s.Weight <= 0 {
			return fmt.Errorf("lexicon: lead signal %q needs a positive weight", s.Term)
		}
	}
	if len(l.Months) != 12 {
		return fmt.Errorf("lexicon: expected 12 months, got %d", len(l.Months))
	}
	return nil
}
