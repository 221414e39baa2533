package models

// RuleType identifies how a rule row is interpreted
type RuleType string

const (
	RuleTypeKeyword  RuleType = "keyword"
	RuleTypePattern  RuleType = "pattern"
	RuleTypeJPDomain RuleType = "jpdomain"
)

// RuleSet holds the genre keyword lists, URL/domain glob patterns and the
// domestic domain whitelist. It is built once at startup and never mutated.
type RuleSet struct {
	Keywords        map[string][]string `json:"keywords" yaml:"keywords"`
	Patterns        map[string][]string `json:"patterns" yaml:"patterns"`
	DomesticDomains []string            `json:"domestic_domains" yaml:"domestic_domains"`

	// GenreOrder is the order genres were first seen in the source rows.
	// Matching iterates genres in this order so "first match wins" is stable.
	GenreOrder []string `json:"genre_order" yaml:"genre_order"`
}

// NewRuleSet returns an empty rule set
func NewRuleSet() *RuleSet {
	return &RuleSet{
		Keywords: make(map[string][]string),
		Patterns: make(map[string][]string),
	}
}

// KeywordCount returns the total number of keyword rules across genres
func (r *RuleSet) KeywordCount() int {
	n := 0
	for _, k := range r.Keywords {
		n += len(k)
	}
	return n
}

// PatternCount returns the total number of pattern rules across genres
func (r *RuleSet) PatternCount() int {
	n := 0
	for _, p := range r.Patterns {
		n += len(p)
	}
	return n
}
