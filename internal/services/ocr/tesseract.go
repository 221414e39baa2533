package ocr

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine runs Tesseract through gosseract. The underlying client is
// not safe for concurrent use, so calls are serialised.
type TesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseractEngine creates an engine for the given Tesseract languages
func NewTesseractEngine(languages []string) (*TesseractEngine, error) {
	client := gosseract.NewClient()
	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set OCR languages: %w", err)
		}
	}
	return &TesseractEngine{client: client}, nil
}

// Recognize returns the text found in the image file
func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	return text, nil
}

// Close releases the Tesseract handle
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}
