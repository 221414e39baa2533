package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitescreen/internal/common"
	"github.com/ternarybob/sitescreen/internal/metrics"
	"github.com/ternarybob/sitescreen/internal/models"
	"github.com/ternarybob/sitescreen/internal/services/locale"
	"github.com/ternarybob/sitescreen/internal/services/matcher"
	"github.com/ternarybob/sitescreen/internal/services/sink"
)

// fakeFetcher writes a placeholder screenshot so cleanup can be checked
type fakeFetcher struct {
	results   map[string]*models.FetchResult
	panicOn   string
	noShot    bool
	seenPaths []string
	onFetch   func()
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, screenshotPath string) *models.FetchResult {
	f.seenPaths = append(f.seenPaths, screenshotPath)
	if f.onFetch != nil {
		f.onFetch()
	}
	if !f.noShot {
		_ = os.WriteFile(screenshotPath, []byte("png"), 0644)
	}
	if url == f.panicOn {
		panic("renderer exploded")
	}
	result := &models.FetchResult{URL: url, Text: models.ContentUnavailable}
	if r, ok := f.results[url]; ok {
		copied := *r
		result = &copied
	}
	if !f.noShot {
		result.ScreenshotPath = screenshotPath
	}
	return result
}

type fakeJudge struct {
	text  *models.Judgment
	image *models.Judgment
}

func (j *fakeJudge) JudgeText(ctx context.Context, body, imageText string) *models.Judgment {
	if j.text != nil {
		return j.text
	}
	return &models.Judgment{Kind: models.JudgmentText, Status: models.JudgmentSkipped, Raw: models.LLMNotConfigured}
}

func (j *fakeJudge) JudgeImage(ctx context.Context, screenshotPath, imageText string) *models.Judgment {
	if j.image != nil {
		return j.image
	}
	return &models.Judgment{Kind: models.JudgmentImage, Status: models.JudgmentSkipped, Raw: models.ImageNotAnalyzed}
}

type fakeWriter struct {
	written []*models.ClassificationResult
	errFor  map[string]error
	ctxErrs []error
}

func (w *fakeWriter) Write(ctx context.Context, result *models.ClassificationResult) ([]models.FailureReason, error) {
	w.ctxErrs = append(w.ctxErrs, ctx.Err())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := w.errFor[result.URL]; ok {
		return nil, err
	}
	w.written = append(w.written, result)
	return nil, nil
}

type fakeReports struct {
	saved []*models.BatchReport
}

func (r *fakeReports) SaveReport(ctx context.Context, report *models.BatchReport) error {
	r.saved = append(r.saved, report)
	return nil
}

func (r *fakeReports) GetReport(ctx context.Context, id string) (*models.BatchReport, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeReports) ListReports(ctx context.Context, limit int) ([]*models.BatchReport, error) {
	return nil, nil
}

func testRules() *models.RuleSet {
	rs := models.NewRuleSet()
	rs.Keywords["アダルト"] = []string{"無修正", "成人向け", "エロ", "アダルト動画", "18禁"}
	rs.Patterns["アダルト"] = []string{"*.xxx", "*adult-site*"}
	rs.DomesticDomains = []string{".jp"}
	rs.GenreOrder = []string{"アダルト"}
	return rs
}

func newTestPipeline(t *testing.T, fetcher *fakeFetcher, judge *fakeJudge, writer *fakeWriter) (*Pipeline, *fakeReports) {
	logger := arbor.NewLogger()
	rs := testRules()
	reports := &fakeReports{}
	p := New(Dependencies{
		Fetcher:       fetcher,
		Matcher:       matcher.New(rs, logger),
		Classifier:    locale.NewClassifier(rs.DomesticDomains, common.ClassifierConfig{}),
		Judge:         judge,
		Writer:        writer,
		Reports:       reports,
		Metrics:       metrics.New(),
		ScreenshotDir: t.TempDir(),
	}, logger)
	return p, reports
}

func assertScreenshotsRemoved(t *testing.T, fetcher *fakeFetcher) {
	t.Helper()
	require.NotEmpty(t, fetcher.seenPaths)
	for _, path := range fetcher.seenPaths {
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), "screenshot %s should be removed", path)
	}
}

func TestWhitelistedDomainWithFailedFetchIsSafe(t *testing.T) {
	fetcher := &fakeFetcher{
		noShot: true,
		results: map[string]*models.FetchResult{
			"https://shop.example.co.jp/": {
				Text:     models.ContentUnavailable,
				Failures: []models.FailureReason{models.ReasonFetchStatic, models.ReasonFetchRender},
			},
		},
	}
	writer := &fakeWriter{}
	p, _ := newTestPipeline(t, fetcher, &fakeJudge{}, writer)

	outcome := p.ProcessURL(context.Background(), 0, "https://shop.example.co.jp/")

	assert.Equal(t, models.OutcomeOK, outcome.Status)
	assert.Equal(t, models.OriginDomestic, outcome.Origin)
	assert.Equal(t, 0.0, outcome.Score)
	assert.Equal(t, models.VerdictSafe, outcome.Verdict)
	assert.Equal(t, []models.FailureReason{models.ReasonFetchStatic, models.ReasonFetchRender}, outcome.Degraded)

	require.Len(t, writer.written, 1)
	result := writer.written[0]
	assert.Equal(t, models.ContentUnavailable, result.Text)
	assert.Empty(t, result.KeywordMatches)
	assert.Equal(t, models.MatchModeNone, result.Match.Mode)
	assert.Empty(t, result.ScreenshotPath)
}

func TestKeywordsWithFailedJudgmentsAreBorderline(t *testing.T) {
	url := "https://videos.example.com/"
	fetcher := &fakeFetcher{results: map[string]*models.FetchResult{
		url: {Text: "無修正 成人向け エロ アダルト動画 18禁 のサイト"},
	}}
	judge := &fakeJudge{
		text:  &models.Judgment{Kind: models.JudgmentText, Status: models.JudgmentError, Raw: models.TextErrorPrefix + "dial tcp: timeout"},
		image: &models.Judgment{Kind: models.JudgmentImage, Status: models.JudgmentError, Raw: models.ImageErrorPrefix + "dial tcp: timeout"},
	}
	writer := &fakeWriter{}
	p, _ := newTestPipeline(t, fetcher, judge, writer)

	outcome := p.ProcessURL(context.Background(), 1, url)

	assert.Equal(t, models.OutcomeOK, outcome.Status)
	assert.Equal(t, 5.0, outcome.Score)
	assert.Equal(t, models.VerdictBorderline, outcome.Verdict)
	assert.Contains(t, outcome.Degraded, models.ReasonLLMText)
	assert.Contains(t, outcome.Degraded, models.ReasonLLMImage)

	require.Len(t, writer.written, 1)
	score := writer.written[0].Score
	assert.Equal(t, 5, score.KeywordCount)
	assert.Equal(t, 5.0, score.KeywordPoints)
	assert.Equal(t, 0.0, score.TextPoints)
	assert.Equal(t, 0.0, score.ImagePoints)
	assertScreenshotsRemoved(t, fetcher)
}

func TestTextAndImageHitsWithoutKeywordsStayBorderline(t *testing.T) {
	url := "https://forum.example.com/"
	fetcher := &fakeFetcher{results: map[string]*models.FetchResult{
		url: {Text: "ordinary words only"},
	}}
	judge := &fakeJudge{
		text:  &models.Judgment{Kind: models.JudgmentText, Status: models.JudgmentOK, Label: "ヘイト", Reason: "差別的表現"},
		image: &models.Judgment{Kind: models.JudgmentImage, Status: models.JudgmentOK, Label: "閲覧不可", Raw: "[ジャンル]: 閲覧不可\n[理由]: 403"},
	}
	writer := &fakeWriter{}
	p, _ := newTestPipeline(t, fetcher, judge, writer)

	outcome := p.ProcessURL(context.Background(), 2, url)

	assert.Equal(t, 10.0, outcome.Score)
	assert.Equal(t, models.VerdictBorderline, outcome.Verdict)
	assert.Equal(t, "閲覧不可", outcome.Genre, "image judgment is preferred when conclusive")
	assertScreenshotsRemoved(t, fetcher)
}

func TestPatternMatchTakesPrecedenceInLabel(t *testing.T) {
	url := "https://www.adult-site.example/"
	fetcher := &fakeFetcher{results: map[string]*models.FetchResult{
		url: {Text: "無修正"},
	}}
	writer := &fakeWriter{}
	p, _ := newTestPipeline(t, fetcher, &fakeJudge{}, writer)

	outcome := p.ProcessURL(context.Background(), 0, url)

	require.Len(t, writer.written, 1)
	result := writer.written[0]
	assert.Equal(t, models.MatchModePattern, result.Match.Mode)
	assert.Equal(t, "*adult-site*", result.Match.Pattern)
	assert.Equal(t, 1, result.Score.KeywordCount, "keyword count is independent of the label")

	assert.Equal(t, models.MatchModePattern, outcome.MatchMode)
	assert.Equal(t, "[パターン/ドメイン一致] アダルト（パターン: *adult-site*）", outcome.Match)
}

func TestKeywordLabelReachesOutcome(t *testing.T) {
	url := "https://plain.example/"
	fetcher := &fakeFetcher{results: map[string]*models.FetchResult{
		url: {Text: "無修正 エロ"},
	}}
	p, _ := newTestPipeline(t, fetcher, &fakeJudge{}, &fakeWriter{})

	outcome := p.ProcessURL(context.Background(), 0, url)

	assert.Equal(t, models.MatchModeKeyword, outcome.MatchMode)
	assert.Contains(t, outcome.Match, "[キーワードマッチ]")
	assert.Contains(t, outcome.Match, "アダルト（2個一致）")
}

func TestPanicBecomesTaggedFailureAndScreenshotIsRemoved(t *testing.T) {
	fetcher := &fakeFetcher{panicOn: "https://boom.example/"}
	writer := &fakeWriter{}
	p, _ := newTestPipeline(t, fetcher, &fakeJudge{}, writer)

	outcome := p.ProcessURL(context.Background(), 0, "https://boom.example/")

	assert.Equal(t, models.OutcomeFailed, outcome.Status)
	assert.Equal(t, models.ReasonPanic, outcome.Reason)
	assert.Equal(t, "renderer exploded", outcome.Error)
	assert.Empty(t, writer.written)
	assertScreenshotsRemoved(t, fetcher)
}

func TestWriterErrorsAreTagged(t *testing.T) {
	fetcher := &fakeFetcher{}
	writer := &fakeWriter{errFor: map[string]error{
		"https://missing.example/": fmt.Errorf("lookup: %w", sink.ErrRowNotFound),
		"https://quota.example/":   errors.New("googleapi: Error 429"),
	}}
	p, _ := newTestPipeline(t, fetcher, &fakeJudge{}, writer)

	missing := p.ProcessURL(context.Background(), 0, "https://missing.example/")
	assert.Equal(t, models.OutcomeFailed, missing.Status)
	assert.Equal(t, models.ReasonRowNotFound, missing.Reason)

	quota := p.ProcessURL(context.Background(), 1, "https://quota.example/")
	assert.Equal(t, models.ReasonRowWrite, quota.Reason)
	assert.Contains(t, quota.Error, "429")

	assertScreenshotsRemoved(t, fetcher)
}

func TestRunContinuesPastFailuresAndSavesReport(t *testing.T) {
	fetcher := &fakeFetcher{panicOn: "https://b.example/"}
	writer := &fakeWriter{errFor: map[string]error{
		"https://c.example/": fmt.Errorf("lookup: %w", sink.ErrRowNotFound),
	}}
	p, reports := newTestPipeline(t, fetcher, &fakeJudge{}, writer)

	urls := []string{"https://a.example/", "https://b.example/", "https://c.example/", "https://d.example/"}
	report, err := p.Run(context.Background(), urls)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Outcomes, 4)
	for i, o := range report.Outcomes {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, urls[i], o.URL, "outcomes keep input order")
	}
	assert.Equal(t, models.ReasonPanic, report.Outcomes[1].Reason)
	assert.Equal(t, models.ReasonRowNotFound, report.Outcomes[2].Reason)
	assert.NotEmpty(t, report.ID)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	require.Len(t, reports.saved, 1)
	assert.Same(t, report, reports.saved[0])
	assertScreenshotsRemoved(t, fetcher)
}

func TestRunStopsBetweenURLsWhenCancelled(t *testing.T) {
	fetcher := &fakeFetcher{}
	p, reports := newTestPipeline(t, fetcher, &fakeJudge{}, &fakeWriter{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx, []string{"https://a.example/", "https://b.example/"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Outcomes)
	assert.Len(t, reports.saved, 1)
}

func TestCancelDuringURLFinishesThatURL(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &fakeFetcher{onFetch: cancel}
	writer := &fakeWriter{}
	p, reports := newTestPipeline(t, fetcher, &fakeJudge{}, writer)

	report, err := p.Run(ctx, []string{"https://a.example/", "https://b.example/"})
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, report.Outcomes, 1, "second URL is never started")
	assert.Equal(t, models.OutcomeOK, report.Outcomes[0].Status)
	assert.Equal(t, []error{nil}, writer.ctxErrs, "row write sees a live context")
	assert.Len(t, fetcher.seenPaths, 1)
	assert.Len(t, reports.saved, 1)
}

func TestEstimateRemaining(t *testing.T) {
	assert.Equal(t, int64(0), int64(estimateRemaining(0, 0, 3)))
	assert.Equal(t, int64(0), int64(estimateRemaining(30e9, 3, 3)))
	assert.Equal(t, int64(20e9), int64(estimateRemaining(20e9, 2, 4)))
}
