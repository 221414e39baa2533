package llm

import (
	"regexp"
	"strings"

	"github.com/ternarybob/sitescreen/internal/models"
)

var (
	textGenreRe  = regexp.MustCompile(`\[ジャンル\]:\s*([^\n/]+)`)
	reasonRe     = regexp.MustCompile(`\[理由\]:\s*(.+)`)
	imageGenreRe = regexp.MustCompile(`\[ジャンル\]:\s*(.+?)\s*(?:/|\n|$)`)
)

// noCategoryMarkers mean the model found nothing to report
var noCategoryMarkers = []string{"要確認", "該当なし", models.NoCategory}

func isNoCategory(label string) bool {
	for _, m := range noCategoryMarkers {
		if strings.Contains(label, m) {
			return true
		}
	}
	return false
}

// ParseTextJudgment reads "[ジャンル]: ..." and "[理由]: ..." from a text
// judgment answer. The genre stops at the first newline or slash.
func ParseTextJudgment(raw string) *models.Judgment {
	j := &models.Judgment{Kind: models.JudgmentText, Raw: raw}

	m := textGenreRe.FindStringSubmatch(raw)
	if m == nil {
		j.Status = models.JudgmentUnparseable
		return j
	}

	label := strings.TrimSpace(m[1])
	if label == "" || isNoCategory(label) {
		j.Status = models.JudgmentNoCategory
		j.Label = models.NoCategory
		return j
	}

	j.Status = models.JudgmentOK
	j.Label = label
	if r := reasonRe.FindStringSubmatch(raw); r != nil {
		j.Reason = strings.TrimSpace(r[1])
	}
	return j
}

// ParseImageJudgment reads the genre from an image judgment answer. The raw
// answer is kept verbatim for display.
func ParseImageJudgment(raw string) *models.Judgment {
	j := &models.Judgment{Kind: models.JudgmentImage, Raw: raw}

	m := imageGenreRe.FindStringSubmatch(raw)
	if m == nil {
		j.Status = models.JudgmentUnparseable
		return j
	}

	label := strings.TrimSpace(m[1])
	if label == "" || isNoCategory(label) {
		j.Status = models.JudgmentNoCategory
		j.Label = models.NoCategory
		return j
	}

	j.Status = models.JudgmentOK
	j.Label = label
	if r := reasonRe.FindStringSubmatch(raw); r != nil {
		j.Reason = strings.TrimSpace(r[1])
	}
	return j
}
