// -----------------------------------------------------------------------
// Rule Matcher - URL/domain glob patterns and genre keyword regexes
// -----------------------------------------------------------------------

package matcher

import (
	"regexp"
	"slices"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitescreen/internal/models"
)

type compiledRule struct {
	source string
	re     *regexp.Regexp
}

type compiledGenre struct {
	genre string
	rules []compiledRule
}

// Matcher evaluates a rule set against page content. Regexes are compiled
// once; rules that do not compile are skipped.
type Matcher struct {
	patterns []compiledGenre
	keywords []compiledGenre
	logger   arbor.ILogger
}

// New compiles the rule set. Genres are evaluated in the rule set's
// GenreOrder so first-match results are stable across runs.
func New(rs *models.RuleSet, logger arbor.ILogger) *Matcher {
	m := &Matcher{logger: logger}
	skipped := 0

	for _, genre := range orderedGenres(rs) {
		if globs := rs.Patterns[genre]; len(globs) > 0 {
			cg := compiledGenre{genre: genre}
			for _, g := range globs {
				re, err := GlobToRegexp(g)
				if err != nil {
					skipped++
					continue
				}
				cg.rules = append(cg.rules, compiledRule{source: g, re: re})
			}
			m.patterns = append(m.patterns, cg)
		}

		if kws := rs.Keywords[genre]; len(kws) > 0 {
			cg := compiledGenre{genre: genre}
			for _, k := range kws {
				re, err := regexp.Compile("(?i)" + k)
				if err != nil {
					logger.Debug().Str("genre", genre).Str("pattern", k).Err(err).Msg("Skipping invalid keyword pattern")
					skipped++
					continue
				}
				cg.rules = append(cg.rules, compiledRule{source: k, re: re})
			}
			m.keywords = append(m.keywords, cg)
		}
	}

	if skipped > 0 {
		logger.Warn().Int("skipped", skipped).Msg("Some rules could not be compiled")
	}
	return m
}

// orderedGenres returns GenreOrder followed by any genre missing from it
func orderedGenres(rs *models.RuleSet) []string {
	seen := make(map[string]bool, len(rs.GenreOrder))
	order := make([]string, 0, len(rs.GenreOrder))
	for _, g := range rs.GenreOrder {
		if !seen[g] {
			seen[g] = true
			order = append(order, g)
		}
	}
	for _, set := range []map[string][]string{rs.Patterns, rs.Keywords} {
		var extra []string
		for g := range set {
			if !seen[g] {
				seen[g] = true
				extra = append(extra, g)
			}
		}
		// map order is random; keep extras deterministic
		slices.Sort(extra)
		order = append(order, extra...)
	}
	return order
}

// GlobToRegexp converts a "*" wildcard pattern to a case-insensitive,
// unanchored regular expression. Every other character is literal.
func GlobToRegexp(glob string) (*regexp.Regexp, error) {
	quoted := strings.ReplaceAll(regexp.QuoteMeta(glob), `\*`, ".*")
	return regexp.Compile("(?i)" + quoted)
}

// MatchPatterns returns the first (genre, pattern) whose glob occurs in any
// non-empty target. ok is false when nothing matched.
func (m *Matcher) MatchPatterns(targets ...string) (genre string, pattern string, ok bool) {
	for _, cg := range m.patterns {
		for _, rule := range cg.rules {
			for _, t := range targets {
				if t != "" && rule.re.MatchString(t) {
					return cg.genre, rule.source, true
				}
			}
		}
	}
	return "", "", false
}

// MatchKeywords returns every genre with at least one matching keyword
// pattern, in genre order, listing the patterns that matched
func (m *Matcher) MatchKeywords(text string) []models.GenreMatch {
	var results []models.GenreMatch
	for _, cg := range m.keywords {
		var matched []string
		for _, rule := range cg.rules {
			if rule.re.MatchString(text) {
				matched = append(matched, rule.source)
			}
		}
		if len(matched) > 0 {
			results = append(results, models.GenreMatch{
				Genre:    cg.genre,
				Count:    len(matched),
				Patterns: matched,
			})
		}
	}
	return results
}

// KeywordText is the text keyword rules run over: body text plus the
// combined image descriptor and OCR text
func KeywordText(text, imageText string) string {
	return text + " " + imageText
}

// Evaluate applies pattern rules to the URL, image URL and image descriptor
// first. Keyword rules only decide the result when no pattern matched.
func (m *Matcher) Evaluate(url, imageURL, imageText, text string) *models.MatchResult {
	if genre, pattern, ok := m.MatchPatterns(url, imageURL, imageText); ok {
		return &models.MatchResult{
			Mode:         models.MatchModePattern,
			PatternGenre: genre,
			Pattern:      pattern,
		}
	}

	if kws := m.MatchKeywords(KeywordText(text, imageText)); len(kws) > 0 {
		return &models.MatchResult{
			Mode:     models.MatchModeKeyword,
			Keywords: kws,
		}
	}

	return &models.MatchResult{Mode: models.MatchModeNone}
}
