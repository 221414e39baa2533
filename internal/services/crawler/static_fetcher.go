package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/ternarybob/arbor"
	"golang.org/x/net/html/charset"

	"github.com/ternarybob/sitescreen/internal/common"
)

// HTTPFetcher performs the cheap plain-HTTP fetch. Any HTTP status is
// accepted (error pages still carry text); only transport failures retry.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	retries     uint64
	retryDelay  time.Duration
	maxBodySize int64
	logger      arbor.ILogger
}

// NewHTTPFetcher creates a static fetcher from crawler configuration
func NewHTTPFetcher(config *common.CrawlerConfig, logger arbor.ILogger) *HTTPFetcher {
	retries := config.RequestRetries
	if retries < 0 {
		retries = 0
	}
	maxBody := config.MaxBodySize
	if maxBody <= 0 {
		maxBody = 10 * 1024 * 1024
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: common.ParseDuration(config.RequestTimeout, 10*time.Second),
		},
		userAgent:   config.UserAgent,
		retries:     uint64(retries),
		retryDelay:  common.ParseDuration(config.RetryDelay, time.Second),
		maxBodySize: maxBody,
		logger:      logger,
	}
}

// Fetch GETs the URL and decodes the body using the response charset
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	attempt := 0
	backoff := retry.WithMaxRetries(f.retries, retry.NewConstant(f.retryDelay))

	body, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (string, error) {
		attempt++
		text, err := f.fetchOnce(ctx, url)
		if err != nil {
			f.logger.Debug().
				Str("url", url).
				Int("attempt", attempt).
				Err(err).
				Msg("Static fetch attempt failed")
			return "", retry.RetryableError(err)
		}
		return text, nil
	})
	if err != nil {
		return "", fmt.Errorf("static fetch failed after %d attempts: %w", attempt, err)
	}
	return body, nil
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		f.logger.Debug().
			Str("url", url).
			Int("status", resp.StatusCode).
			Msg("Static fetch returned error status, keeping body")
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		reader = resp.Body
	}

	data, err := io.ReadAll(io.LimitReader(reader, f.maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(data), nil
}
