package interfaces

import (
	"context"

	"github.com/ternarybob/sitescreen/internal/models"
)

// StaticFetcher retrieves a page over plain HTTP
type StaticFetcher interface {
	// Fetch returns the decoded HTML body. Network failures are returned as
	// errors after the configured retries are exhausted.
	Fetch(ctx context.Context, url string) (string, error)
}

// PageRenderer loads a page in a headless browser and captures a full-page
// screenshot. The browser session is acquired and released inside Render.
type PageRenderer interface {
	// Render writes the screenshot to screenshotPath and returns the rendered
	// HTML. A partially successful render may return both a result and an error.
	Render(ctx context.Context, url string, screenshotPath string) (*models.RenderResult, error)
}

// ContentFetcher combines static fetch, rendering and image analysis into one
// per-URL retrieval. It never fails: problems are recorded on the result.
// The screenshot, if any, is written to screenshotPath.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string, screenshotPath string) *models.FetchResult
}

// OCREngine extracts text from an image file
type OCREngine interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
	Close() error
}
