// Package rules builds the immutable genre rule set from tabular rule rows.
package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitescreen/internal/interfaces"
	"github.com/ternarybob/sitescreen/internal/models"
)

// minColumns is the row width below which a rule row is ignored
const minColumns = 4

// ParseRows builds a RuleSet from rows of (genre, type, base, regex).
// Rows shorter than four columns, rows without a usable rule and rows with
// an unknown type are skipped. The regex column overrides the base column.
func ParseRows(rows [][]string) *models.RuleSet {
	rs := models.NewRuleSet()
	seen := make(map[string]bool)

	for _, row := range rows {
		if len(row) < minColumns {
			continue
		}

		genre := strings.TrimSpace(row[0])
		ruleType := models.RuleType(strings.ToLower(strings.TrimSpace(row[1])))
		base := strings.TrimSpace(row[2])
		regex := strings.TrimSpace(row[3])

		rule := regex
		if rule == "" {
			rule = base
		}
		if rule == "" {
			continue
		}

		switch ruleType {
		case models.RuleTypeKeyword:
			rs.Keywords[genre] = append(rs.Keywords[genre], rule)
		case models.RuleTypePattern:
			rs.Patterns[genre] = append(rs.Patterns[genre], rule)
		case models.RuleTypeJPDomain:
			rs.DomesticDomains = append(rs.DomesticDomains, strings.ToLower(rule))
			continue
		default:
			continue
		}

		if !seen[genre] {
			seen[genre] = true
			rs.GenreOrder = append(rs.GenreOrder, genre)
		}
	}

	return rs
}

// Loader reads rule rows from a source once and builds the rule set
type Loader struct {
	source interfaces.RuleSource
	logger arbor.ILogger
}

// NewLoader creates a loader over the given source
func NewLoader(source interfaces.RuleSource, logger arbor.ILogger) *Loader {
	return &Loader{source: source, logger: logger}
}

// Load fetches and parses the rules. A source error is fatal for startup.
func (l *Loader) Load(ctx context.Context) (*models.RuleSet, error) {
	rows, err := l.source.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules from %s: %w", l.source.Name(), err)
	}

	rs := ParseRows(rows)

	l.logger.Info().
		Str("source", l.source.Name()).
		Int("rows", len(rows)).
		Int("genres", len(rs.GenreOrder)).
		Int("keywords", rs.KeywordCount()).
		Int("patterns", rs.PatternCount()).
		Int("domestic_domains", len(rs.DomesticDomains)).
		Msg("Genre rules loaded")

	return rs, nil
}
