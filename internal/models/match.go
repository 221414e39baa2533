package models

import (
	"fmt"
	"strings"
)

// NoMatch is the matcher label when neither mode found anything
const NoMatch = "判定不可"

// MatchMode records which matching mode produced the result
type MatchMode string

const (
	MatchModeNone    MatchMode = "none"
	MatchModePattern MatchMode = "pattern"
	MatchModeKeyword MatchMode = "keyword"
)

// displayedPatterns is how many matched keyword patterns a label lists
const displayedPatterns = 5

// GenreMatch is the keyword hits for one genre. Count is always >= 1.
type GenreMatch struct {
	Genre    string   `json:"genre"`
	Count    int      `json:"count"`
	Patterns []string `json:"patterns"`
}

// MatchResult is the rule matcher output
type MatchResult struct {
	Mode         MatchMode    `json:"mode"`
	PatternGenre string       `json:"pattern_genre,omitempty"`
	Pattern      string       `json:"pattern,omitempty"`
	Keywords     []GenreMatch `json:"keywords,omitempty"`
}

// TotalKeywordHits sums the matched pattern count over all genres
func TotalKeywordHits(matches []GenreMatch) int {
	n := 0
	for _, m := range matches {
		n += len(m.Patterns)
	}
	return n
}

// Label renders the textual judgment label
func (m *MatchResult) Label() string {
	switch m.Mode {
	case MatchModePattern:
		return fmt.Sprintf("[パターン/ドメイン一致] %s（パターン: %s）", m.PatternGenre, m.Pattern)
	case MatchModeKeyword:
		lines := make([]string, 0, len(m.Keywords))
		for _, k := range m.Keywords {
			shown := k.Patterns
			if len(shown) > displayedPatterns {
				shown = shown[:displayedPatterns]
			}
			lines = append(lines, fmt.Sprintf("%s（%d個一致） - %s...", k.Genre, k.Count, strings.Join(shown, ", ")))
		}
		return "[キーワードマッチ]\n" + strings.Join(lines, "\n")
	default:
		return NoMatch
	}
}

// KeywordSummary renders the per-genre keyword hits for the sheet,
// listing every matched pattern
func KeywordSummary(matches []GenreMatch) string {
	lines := make([]string, 0, len(matches))
	for _, k := range matches {
		lines = append(lines, fmt.Sprintf("%s（%d個）: %s", k.Genre, k.Count, strings.Join(k.Patterns, ", ")))
	}
	return strings.Join(lines, "\n")
}
