// -----------------------------------------------------------------------
// Pipeline - sequential per-URL classification and batch bookkeeping
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitescreen/internal/common"
	"github.com/ternarybob/sitescreen/internal/interfaces"
	"github.com/ternarybob/sitescreen/internal/metrics"
	"github.com/ternarybob/sitescreen/internal/models"
	"github.com/ternarybob/sitescreen/internal/services/crawler"
	"github.com/ternarybob/sitescreen/internal/services/locale"
	"github.com/ternarybob/sitescreen/internal/services/matcher"
	"github.com/ternarybob/sitescreen/internal/services/scoring"
	"github.com/ternarybob/sitescreen/internal/services/sink"
)

// Dependencies are the collaborators a pipeline is built from. Reports and
// Metrics are optional.
type Dependencies struct {
	Fetcher       interfaces.ContentFetcher
	Matcher       *matcher.Matcher
	Classifier    *locale.Classifier
	Judge         interfaces.GenreJudge
	Writer        interfaces.ResultWriter
	Reports       interfaces.ReportStorage
	Metrics       *metrics.Metrics
	ScreenshotDir string
}

// Pipeline classifies URLs one at a time and writes each result to its row
type Pipeline struct {
	deps   Dependencies
	logger arbor.ILogger
}

// New creates a pipeline. An empty ScreenshotDir uses the OS temp dir.
func New(deps Dependencies, logger arbor.ILogger) *Pipeline {
	if deps.ScreenshotDir == "" {
		deps.ScreenshotDir = os.TempDir()
	}
	return &Pipeline{deps: deps, logger: logger}
}

// Run processes urls in order and returns the batch report. A failing URL
// never stops the batch; only a cancelled context does, between URLs.
func (p *Pipeline) Run(ctx context.Context, urls []string) (*models.BatchReport, error) {
	if err := os.MkdirAll(p.deps.ScreenshotDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	report := &models.BatchReport{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Total:     len(urls),
	}

	p.logger.Info().
		Str("batch_id", report.ID).
		Int("total", len(urls)).
		Msg("Batch started")

	// A URL that has started runs to completion; cancellation is only
	// observed between URLs.
	urlCtx := context.WithoutCancel(ctx)

	var elapsed time.Duration
	var runErr error
	for i, url := range urls {
		if err := ctx.Err(); err != nil {
			p.logger.Warn().Int("processed", i).Int("total", len(urls)).Msg("Batch cancelled")
			runErr = err
			break
		}

		outcome := p.ProcessURL(urlCtx, i, url)
		report.Add(outcome)
		p.deps.Metrics.ObserveOutcome(outcome)

		elapsed += outcome.Duration
		done := i + 1
		eta := estimateRemaining(elapsed, done, len(urls))

		event := p.logger.Info()
		if outcome.Status != models.OutcomeOK {
			event = p.logger.Warn().Str("reason", string(outcome.Reason))
		}
		event.
			Str("url", url).
			Str("progress", fmt.Sprintf("%d/%d", done, len(urls))).
			Str("verdict", string(outcome.Verdict)).
			Float64("score", outcome.Score).
			Dur("duration", outcome.Duration).
			Dur("eta", eta).
			Msg("URL processed")
	}

	report.FinishedAt = time.Now()
	p.deps.Metrics.ObserveBatch(report)

	if p.deps.Reports != nil {
		// Saved on a fresh context so a cancelled batch still records what it did
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := p.deps.Reports.SaveReport(saveCtx, report); err != nil {
			p.logger.Warn().Err(err).Str("batch_id", report.ID).Msg("Failed to save batch report")
		}
		cancel()
	}

	p.logger.Info().
		Str("batch_id", report.ID).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Batch finished")

	return report, runErr
}

// estimateRemaining is the average time per finished URL times the URLs left
func estimateRemaining(elapsed time.Duration, done, total int) time.Duration {
	if done <= 0 || done >= total {
		return 0
	}
	return elapsed / time.Duration(done) * time.Duration(total-done)
}

// ScreenshotPath returns a unique screenshot path for the URL at index
func (p *Pipeline) ScreenshotPath(index int) string {
	return filepath.Join(p.deps.ScreenshotDir, fmt.Sprintf("screenshot_%d_%s.png", index, uuid.NewString()))
}

// ProcessURL runs one URL end to end. The screenshot file is removed before
// it returns on every path, including a panic in any stage.
func (p *Pipeline) ProcessURL(ctx context.Context, index int, url string) (outcome *models.URLOutcome) {
	startTime := time.Now()
	screenshotPath := p.ScreenshotPath(index)
	outcome = &models.URLOutcome{Index: index, URL: url, Status: models.OutcomeOK}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Str("url", url).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", common.StackTrace()).
				Msg("Recovered from panic while processing URL")
			outcome.Status = models.OutcomeFailed
			outcome.Reason = models.ReasonPanic
			outcome.Error = fmt.Sprintf("%v", r)
		}
		removeScreenshot(screenshotPath, p.logger)
		outcome.Duration = time.Since(startTime)
	}()

	result, degraded := p.classify(ctx, url, screenshotPath)
	outcome.Degraded = degraded
	outcome.Score = result.Score.Total
	outcome.Verdict = result.Verdict
	outcome.Origin = result.Origin
	if result.Match != nil {
		outcome.MatchMode = result.Match.Mode
		outcome.Match = result.Match.Label()
	}
	if result.Preferred != nil {
		outcome.Genre = result.Preferred.FinalGenre()
	}

	sinkDegraded, err := p.deps.Writer.Write(ctx, result)
	outcome.Degraded = append(outcome.Degraded, sinkDegraded...)
	if err != nil {
		outcome.Status = models.OutcomeFailed
		outcome.Reason = models.ReasonRowWrite
		if errors.Is(err, sink.ErrRowNotFound) {
			outcome.Reason = models.ReasonRowNotFound
		}
		outcome.Error = err.Error()
	}
	return outcome
}

// classify runs retrieval, matching, locale detection, both judgments and
// score fusion. It never fails; degraded stages are returned as reasons.
func (p *Pipeline) classify(ctx context.Context, url, screenshotPath string) (*models.ClassificationResult, []models.FailureReason) {
	fetched := p.deps.Fetcher.Fetch(ctx, url, screenshotPath)
	degraded := append([]models.FailureReason(nil), fetched.Failures...)
	imageText := fetched.CombinedImageText()

	match := p.deps.Matcher.Evaluate(url, fetched.ImageURL, imageText, fetched.Text)
	keywords := p.deps.Matcher.MatchKeywords(matcher.KeywordText(fetched.Text, imageText))
	keywordCount := models.TotalKeywordHits(keywords)

	origin := p.deps.Classifier.Classify(url, crawler.LocaleHTML(fetched), fetched.OCRText)

	textJudgment := p.deps.Judge.JudgeText(ctx, fetched.Text, imageText)
	if textJudgment.Status == models.JudgmentError {
		degraded = append(degraded, models.ReasonLLMText)
	}
	imageJudgment := p.deps.Judge.JudgeImage(ctx, fetched.ScreenshotPath, imageText)
	if imageJudgment.Status == models.JudgmentError || imageJudgment.Status == models.JudgmentRefused {
		degraded = append(degraded, models.ReasonLLMImage)
	}

	breakdown := scoring.Fuse(keywordCount, textJudgment, imageJudgment)
	verdict := scoring.VerdictFor(breakdown.Total)

	p.logger.Debug().
		Str("url", url).
		Str("match", match.Label()).
		Int("keyword_count", keywordCount).
		Str("origin", string(origin)).
		Str("text_status", string(textJudgment.Status)).
		Str("image_status", string(imageJudgment.Status)).
		Float64("score", breakdown.Total).
		Msg("URL classified")

	return &models.ClassificationResult{
		URL:            url,
		Text:           fetched.Text,
		ScreenshotPath: fetched.ScreenshotPath,
		Match:          match,
		KeywordMatches: keywords,
		TextJudgment:   textJudgment,
		ImageJudgment:  imageJudgment,
		Preferred:      scoring.PreferredOpinion(textJudgment, imageJudgment),
		Origin:         origin,
		Score:          breakdown,
		Verdict:        verdict,
	}, degraded
}

func removeScreenshot(path string, logger arbor.ILogger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to remove screenshot")
	}
}
