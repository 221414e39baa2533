package ocr

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitescreen/internal/interfaces"
)

// Analyzer wraps an OCR engine so that recognition problems degrade to empty
// text instead of failing the URL
type Analyzer struct {
	engine interfaces.OCREngine
	logger arbor.ILogger
}

// NewAnalyzer creates an analyzer. A nil engine disables OCR.
func NewAnalyzer(engine interfaces.OCREngine, logger arbor.ILogger) *Analyzer {
	return &Analyzer{engine: engine, logger: logger}
}

// Enabled reports whether an engine is attached
func (a *Analyzer) Enabled() bool {
	return a != nil && a.engine != nil
}

// Recognize returns the OCR text of the screenshot. ok is false when the
// engine failed, in which case text is empty.
func (a *Analyzer) Recognize(ctx context.Context, imagePath string) (text string, ok bool) {
	if !a.Enabled() || imagePath == "" {
		return "", true
	}

	text, err := a.engine.Recognize(ctx, imagePath)
	if err != nil {
		a.logger.Warn().
			Err(err).
			Str("image", imagePath).
			Msg("OCR failed, continuing without image text")
		return "", false
	}
	return text, true
}
