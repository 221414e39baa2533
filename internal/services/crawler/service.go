package crawler

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitescreen/internal/interfaces"
	"github.com/ternarybob/sitescreen/internal/models"
	"github.com/ternarybob/sitescreen/internal/services/ocr"
)

// Service retrieves everything the classifier needs for one URL: body text,
// rendered HTML, a full-page screenshot, the first image descriptor and OCR text
type Service struct {
	static   interfaces.StaticFetcher
	renderer interfaces.PageRenderer
	ocr      *ocr.Analyzer
	logger   arbor.ILogger
}

// Compile-time assertion
var _ interfaces.ContentFetcher = (*Service)(nil)

// NewService creates a content fetcher
func NewService(static interfaces.StaticFetcher, renderer interfaces.PageRenderer, analyzer *ocr.Analyzer, logger arbor.ILogger) *Service {
	return &Service{
		static:   static,
		renderer: renderer,
		ocr:      analyzer,
		logger:   logger,
	}
}

// Fetch never fails. Each stage that cannot complete is recorded on the
// result and later stages work with whatever is available. The screenshot
// is written to screenshotPath; the caller owns and removes it.
func (s *Service) Fetch(ctx context.Context, url string, screenshotPath string) *models.FetchResult {
	result := &models.FetchResult{URL: url}

	html, err := s.static.Fetch(ctx, url)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("Static fetch failed")
		result.AddFailure(models.ReasonFetchStatic)
	} else {
		result.StaticHTML = html
		result.Text = ExtractCleanText(html)
	}

	rendered, err := s.renderer.Render(ctx, url, screenshotPath)
	if rendered != nil {
		result.RenderedHTML = rendered.HTML
		result.ScreenshotPath = rendered.ScreenshotPath
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("Browser render incomplete")
		if rendered == nil {
			result.AddFailure(models.ReasonFetchRender)
		} else {
			result.AddFailure(models.ReasonScreenshot)
		}
	}

	if strings.TrimSpace(result.Text) == "" {
		if text := ExtractCleanText(result.RenderedHTML); strings.TrimSpace(text) != "" {
			result.Text = text
		} else {
			result.Text = models.ContentUnavailable
		}
	}

	result.ImageDescriptor, result.ImageURL = ExtractImageDescriptor(result.RenderedHTML)

	if result.HasScreenshot() {
		text, ok := s.ocr.Recognize(ctx, result.ScreenshotPath)
		if !ok {
			result.AddFailure(models.ReasonOCR)
		}
		result.OCRText = text
	}

	s.logger.Debug().
		Str("url", url).
		Int("text_len", len(result.Text)).
		Bool("screenshot", result.HasScreenshot()).
		Int("ocr_len", len(result.OCRText)).
		Int("degraded", len(result.Failures)).
		Msg("Content fetched")

	return result
}

// LocaleHTML is the document used for locale detection. Only the rendered
// DOM counts; without a render the classifier falls back to OCR text.
func LocaleHTML(result *models.FetchResult) string {
	return result.RenderedHTML
}
