package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

type stubEngine struct {
	text  string
	err   error
	calls int
}

func (s *stubEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	s.calls++
	return s.text, s.err
}

func (s *stubEngine) Close() error { return nil }

func TestAnalyzerRecognize(t *testing.T) {
	logger := arbor.NewLogger()

	t.Run("returns engine text", func(t *testing.T) {
		engine := &stubEngine{text: "会員登録"}
		text, ok := NewAnalyzer(engine, logger).Recognize(context.Background(), "/tmp/shot.png")
		assert.True(t, ok)
		assert.Equal(t, "会員登録", text)
	})

	t.Run("engine failure degrades to empty text", func(t *testing.T) {
		engine := &stubEngine{err: errors.New("tessdata missing")}
		text, ok := NewAnalyzer(engine, logger).Recognize(context.Background(), "/tmp/shot.png")
		assert.False(t, ok)
		assert.Empty(t, text)
	})

	t.Run("no screenshot skips the engine", func(t *testing.T) {
		engine := &stubEngine{text: "unused"}
		text, ok := NewAnalyzer(engine, logger).Recognize(context.Background(), "")
		assert.True(t, ok)
		assert.Empty(t, text)
		assert.Zero(t, engine.calls)
	})

	t.Run("nil engine disables OCR", func(t *testing.T) {
		a := NewAnalyzer(nil, logger)
		assert.False(t, a.Enabled())
		text, ok := a.Recognize(context.Background(), "/tmp/shot.png")
		assert.True(t, ok)
		assert.Empty(t, text)
	})
}
