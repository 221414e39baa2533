// -----------------------------------------------------------------------
// Chrome Renderer - headless page load and full-page screenshot capture
// -----------------------------------------------------------------------

package crawler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitescreen/internal/common"
	"github.com/ternarybob/sitescreen/internal/models"
)

// scrollSizeScript reads the full document extent after late content has loaded
const scrollSizeScript = `[
	document.body.scrollWidth || document.documentElement.scrollWidth,
	document.body.scrollHeight || document.documentElement.scrollHeight
]`

// ChromeRenderer drives a headless Chrome session per URL. A fresh browser is
// started and torn down for every Render call, so a crashed tab never leaks
// into the next URL.
type ChromeRenderer struct {
	userAgent       string
	chromePath      string
	width           int64
	height          int64
	maxPixel        int64
	pageLoadTimeout time.Duration
	settleDelay     time.Duration
	preResizeDelay  time.Duration
	postResizeDelay time.Duration
	logger          arbor.ILogger
}

// NewChromeRenderer creates a renderer from crawler configuration
func NewChromeRenderer(config *common.CrawlerConfig, logger arbor.ILogger) *ChromeRenderer {
	r := &ChromeRenderer{
		userAgent:       config.UserAgent,
		chromePath:      config.ChromePath,
		width:           config.WindowWidth,
		height:          config.WindowHeight,
		maxPixel:        config.MaxScreenshotPixel,
		pageLoadTimeout: common.ParseDuration(config.PageLoadTimeout, 20*time.Second),
		settleDelay:     common.ParseDuration(config.SettleDelay, 2500*time.Millisecond),
		preResizeDelay:  common.ParseDuration(config.PreResizeDelay, 5*time.Second),
		postResizeDelay: common.ParseDuration(config.PostResizeDelay, 2*time.Second),
		logger:          logger,
	}
	if r.width <= 0 {
		r.width = 1280
	}
	if r.height <= 0 {
		r.height = 1500
	}
	if r.maxPixel <= 0 {
		r.maxPixel = 16384
	}
	return r
}

func (r *ChromeRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(int(r.width), int(r.height)),
	)
	if r.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.userAgent))
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	return opts
}

// Render loads url, keeps the rendered HTML, then resizes the viewport to the
// page extent and writes a PNG screenshot to screenshotPath. When the page
// loads but the screenshot fails, the HTML is returned together with the error.
func (r *ChromeRenderer) Render(ctx context.Context, url string, screenshotPath string) (*models.RenderResult, error) {
	startTime := time.Now()

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer allocatorCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	defer browserCancel()

	// Start the browser on the long-lived context; timeouts below only bound steps
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	navCtx, navCancel := context.WithTimeout(browserCtx, r.pageLoadTimeout)
	err := chromedp.Run(navCtx, chromedp.Navigate(url))
	navCancel()
	if err != nil {
		return nil, fmt.Errorf("page load failed: %w", err)
	}

	result := &models.RenderResult{}
	if err := chromedp.Run(browserCtx,
		chromedp.Sleep(r.settleDelay),
		chromedp.OuterHTML("html", &result.HTML, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to read rendered html: %w", err)
	}

	if err := r.capture(browserCtx, screenshotPath); err != nil {
		return result, fmt.Errorf("screenshot failed: %w", err)
	}
	result.ScreenshotPath = screenshotPath

	r.logger.Debug().
		Str("url", url).
		Str("screenshot", filepath.Base(screenshotPath)).
		Dur("duration", time.Since(startTime)).
		Msg("Page rendered")

	return result, nil
}

func (r *ChromeRenderer) capture(ctx context.Context, screenshotPath string) error {
	var extent []int64
	var buf []byte

	err := chromedp.Run(ctx,
		chromedp.Sleep(r.preResizeDelay),
		chromedp.Evaluate(scrollSizeScript, &extent),
		chromedp.ActionFunc(func(ctx context.Context) error {
			w, h := r.viewportFor(extent)
			return emulation.SetDeviceMetricsOverride(w, h, 1, false).Do(ctx)
		}),
		chromedp.Sleep(r.postResizeDelay),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, err = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatPng).
				WithCaptureBeyondViewport(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return err
	}

	if err := os.WriteFile(screenshotPath, buf, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	return nil
}

// viewportFor clamps the measured page extent to [window, maxPixel]
func (r *ChromeRenderer) viewportFor(extent []int64) (int64, int64) {
	w, h := r.width, r.height
	if len(extent) == 2 {
		if extent[0] > w {
			w = extent[0]
		}
		if extent[1] > h {
			h = extent[1]
		}
	}
	if w > r.maxPixel {
		w = r.maxPixel
	}
	if h > r.maxPixel {
		h = r.maxPixel
	}
	return w, h
}
