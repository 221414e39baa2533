package models

// MaxScore is the upper bound of a fused score
const MaxScore = 15

// Verdict is the three-tier risk label
type Verdict string

const (
	VerdictSafe       Verdict = "Safe"
	VerdictBorderline Verdict = "Borderline"
	VerdictUnsafe     Verdict = "Unsafe"
)

// Rank orders verdicts from least to most risky
func (v Verdict) Rank() int {
	switch v {
	case VerdictUnsafe:
		return 2
	case VerdictBorderline:
		return 1
	default:
		return 0
	}
}

// SiteOrigin is the locale classifier output
type SiteOrigin string

const (
	OriginDomestic SiteOrigin = "日本サイト"
	OriginForeign  SiteOrigin = "海外サイト"
)

// ScoreBreakdown holds the three sub-scores and the clamped total
type ScoreBreakdown struct {
	KeywordCount  int     `json:"keyword_count"`
	KeywordPoints float64 `json:"keyword_points"`
	TextPoints    float64 `json:"text_points"`
	ImagePoints   float64 `json:"image_points"`
	Total         float64 `json:"total"`
}
