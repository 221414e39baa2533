// Package scoring fuses keyword hits and model judgments into a 0-15 risk
// score and a three-tier verdict.
package scoring

import (
	"fmt"
	"math"

	"github.com/ternarybob/sitescreen/internal/models"
)

// Points awarded per signal
const (
	TextHitPoints  = 5
	ImageHitPoints = 5
)

// Verdict thresholds on the fused score
const (
	UnsafeThreshold     = 11
	BorderlineThreshold = 5
)

// HighRiskTextGenres are the genres that score a text judgment hit
var HighRiskTextGenres = []string{"アダルト", "悪質CGM", "著作権侵害", "ヘイト", "危険物", "グロテスク"}

// HighRiskImageGenres extend HighRiskTextGenres with page states only a
// screenshot reveals
var HighRiskImageGenres = append([]string{"閲覧不可", "認証が必要"}, HighRiskTextGenres...)

// KeywordTier maps the total keyword hit count to points
func KeywordTier(count int) float64 {
	switch {
	case count >= 5:
		return 5
	case count >= 4:
		return 4
	case count >= 3:
		return 3
	case count >= 1:
		return 2
	default:
		return 0
	}
}

// Fuse computes the score breakdown. The total is the sum of the three
// sub-scores clamped to MaxScore.
func Fuse(keywordCount int, text, image *models.Judgment) models.ScoreBreakdown {
	b := models.ScoreBreakdown{
		KeywordCount:  keywordCount,
		KeywordPoints: KeywordTier(keywordCount),
	}
	if text != nil && text.HasGenreIn(HighRiskTextGenres) {
		b.TextPoints = TextHitPoints
	}
	if image != nil && image.HasGenreIn(HighRiskImageGenres) {
		b.ImagePoints = ImageHitPoints
	}
	b.Total = math.Min(b.KeywordPoints+b.TextPoints+b.ImagePoints, models.MaxScore)
	return b
}

// VerdictFor maps a score to its tier
func VerdictFor(score float64) models.Verdict {
	switch {
	case score >= UnsafeThreshold:
		return models.VerdictUnsafe
	case score >= BorderlineThreshold:
		return models.VerdictBorderline
	default:
		return models.VerdictSafe
	}
}

// PreferredOpinion picks the image judgment unless it is inconclusive
func PreferredOpinion(text, image *models.Judgment) *models.Judgment {
	if image != nil && !image.Inconclusive() {
		return image
	}
	return text
}

// Explanation renders the multi-line score explanation written to the sheet
func Explanation(origin models.SiteOrigin, b models.ScoreBreakdown) string {
	return fmt.Sprintf("%s\nキーワードスコア: %s点\nGPT本文スコア: %s点\nGPT画像スコア: %s点\n[最終スコア]: %s/%d",
		origin,
		formatPoints(b.KeywordPoints),
		formatPoints(b.TextPoints),
		formatPoints(b.ImagePoints),
		formatPoints(b.Total),
		models.MaxScore,
	)
}

// formatPoints prints whole numbers without a decimal part
func formatPoints(p float64) string {
	if p == math.Trunc(p) {
		return fmt.Sprintf("%d", int(p))
	}
	return fmt.Sprintf("%.1f", p)
}
