package sink

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitescreen/internal/common"
	"github.com/ternarybob/sitescreen/internal/interfaces"
	"github.com/ternarybob/sitescreen/internal/models"
	"github.com/ternarybob/sitescreen/internal/services/scoring"
)

// TimestampLayout is the format of the timestamp column
const TimestampLayout = "2006-01-02 15:04:05"

// Writer uploads the screenshot and writes the result fields to the URL's row
type Writer struct {
	rows   interfaces.RowStore
	blobs  interfaces.BlobStore
	now    func() time.Time
	logger arbor.ILogger
}

var _ interfaces.ResultWriter = (*Writer)(nil)

// NewWriter creates a result writer
func NewWriter(rows interfaces.RowStore, blobs interfaces.BlobStore, logger arbor.ILogger) *Writer {
	return &Writer{rows: rows, blobs: blobs, now: time.Now, logger: logger}
}

// Write uploads first, then locates and updates the row. An upload failure
// degrades to an empty link and is reported in degraded; a missing row or a
// failed write is returned as an error.
func (w *Writer) Write(ctx context.Context, result *models.ClassificationResult) (degraded []models.FailureReason, err error) {
	link := models.NoScreenshotLink
	if result.ScreenshotPath != "" {
		link, err = w.blobs.Upload(ctx, result.ScreenshotPath, filepath.Base(result.ScreenshotPath))
		if err != nil {
			w.logger.Warn().Err(err).Str("url", result.URL).Msg("Screenshot upload failed, writing empty link")
			link = ""
			degraded = append(degraded, models.ReasonUpload)
		}
	}

	update := BuildRowUpdate(result, link, w.now())

	row, err := w.rows.FindRow(ctx, result.URL)
	if err != nil {
		return degraded, err
	}
	if err := w.rows.UpdateRow(ctx, row, update); err != nil {
		return degraded, err
	}

	w.logger.Info().
		Str("url", result.URL).
		Int("row", row).
		Str("verdict", string(result.Verdict)).
		Msg("Result written")
	return degraded, nil
}

// BuildRowUpdate renders the fixed set of result fields
func BuildRowUpdate(result *models.ClassificationResult, link string, now time.Time) *models.RowUpdate {
	update := &models.RowUpdate{
		Timestamp:        now.Format(TimestampLayout),
		BodyText:         common.TruncateRunes(result.Text, models.MaxBodyTextChars),
		ImageFormula:     ImageFormula(link),
		KeywordSummary:   models.KeywordSummary(result.KeywordMatches),
		ScoreExplanation: scoring.Explanation(result.Origin, result.Score),
		Verdict:          string(result.Verdict),
		FinalGenre:       models.NoCategory,
	}
	if result.TextJudgment != nil {
		update.TextOpinion = result.TextJudgment.Display()
	}
	if result.ImageJudgment != nil {
		update.ImageOpinion = result.ImageJudgment.Display()
	}
	if result.Preferred != nil {
		update.FinalGenre = result.Preferred.FinalGenre()
	}
	return update
}

// ImageFormula embeds link in a sheet IMAGE formula, fitted to the cell
func ImageFormula(link string) string {
	return fmt.Sprintf(`=IMAGE("%s", 1)`, strings.ReplaceAll(link, `"`, `""`))
}
