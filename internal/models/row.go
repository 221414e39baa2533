package models

// NoScreenshotLink is written as the image link when no screenshot exists
const NoScreenshotLink = "結果なし"

// MaxBodyTextChars is how much body text is written to the sheet
const MaxBodyTextChars = 1200

// RowUpdate is the set of fields written to an existing sheet row.
// The row store decides which column each field lands in.
type RowUpdate struct {
	Timestamp        string
	BodyText         string
	ImageFormula     string
	TextOpinion      string
	ImageOpinion     string
	KeywordSummary   string
	ScoreExplanation string
	Verdict          string
	FinalGenre       string
}

// ClassificationResult is everything computed for one URL before it is written
type ClassificationResult struct {
	URL            string
	Text           string
	ScreenshotPath string
	Match          *MatchResult
	KeywordMatches []GenreMatch
	TextJudgment   *Judgment
	ImageJudgment  *Judgment
	Preferred      *Judgment
	Origin         SiteOrigin
	Score          ScoreBreakdown
	Verdict        Verdict
}
