package llm

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitescreen/internal/common"
	"github.com/ternarybob/sitescreen/internal/interfaces"
	"github.com/ternarybob/sitescreen/internal/models"
)

type fakeCompleter struct {
	answer   string
	err      error
	requests []*interfaces.CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, request *interfaces.CompletionRequest) (string, error) {
	f.requests = append(f.requests, request)
	return f.answer, f.err
}

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "shot.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func testJudgeConfig() common.JudgeConfig {
	return common.NewDefaultConfig().Judge
}

func TestJudgeTextPrompt(t *testing.T) {
	completer := &fakeCompleter{answer: "[ジャンル]: アダルト\n[理由]: 年齢確認"}
	judge := NewJudge(completer, testJudgeConfig(), true, arbor.NewLogger())

	body := strings.Repeat("本", 1000)
	imageText := strings.Repeat("画", 400)
	j := judge.JudgeText(context.Background(), body, imageText)

	assert.Equal(t, models.JudgmentOK, j.Status)
	assert.Equal(t, "アダルト", j.Label)

	require.Len(t, completer.requests, 1)
	req := completer.requests[0]
	assert.Equal(t, 200, req.MaxTokens)
	assert.InDelta(t, 0.2, req.Temperature, 0.0001)

	prompt := req.Messages[0].Content
	assert.Contains(t, prompt, "[本文（最大800字）]:\n"+strings.Repeat("本", 800)+"\n\n")
	assert.NotContains(t, prompt, strings.Repeat("本", 801))
	assert.Contains(t, prompt, "[画像の説明・OCR結果（最大300字）]:\n"+strings.Repeat("画", 300)+"\n\n")
	assert.Contains(t, prompt, "[画像の説明・OCR結果]:\n"+imageText+"\n\n", "full image text follows the truncated context")
	assert.True(t, strings.HasSuffix(prompt, "[理由]: ジャンル判定の根拠を簡潔に記載\n"))
}

func TestJudgeTextError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("deadline exceeded")}
	j := NewJudge(completer, testJudgeConfig(), true, arbor.NewLogger()).JudgeText(context.Background(), "本文", "")

	assert.Equal(t, models.JudgmentError, j.Status)
	assert.Equal(t, "GPTエラー: deadline exceeded", j.Display())
	assert.True(t, j.Inconclusive())
}

func TestJudgeDisabled(t *testing.T) {
	completer := &fakeCompleter{answer: "unused"}
	judge := NewJudge(completer, testJudgeConfig(), false, arbor.NewLogger())

	text := judge.JudgeText(context.Background(), "本文", "")
	assert.Equal(t, models.JudgmentSkipped, text.Status)
	assert.Equal(t, models.LLMNotConfigured, text.Display())

	img := judge.JudgeImage(context.Background(), "/tmp/whatever.png", "")
	assert.Equal(t, models.ImageNotAnalyzed, img.Display())
	assert.Empty(t, completer.requests)
}

func TestJudgeImage(t *testing.T) {
	completer := &fakeCompleter{answer: "[ジャンル]: 閲覧不可 / [理由]: 403エラー表示"}
	judge := NewJudge(completer, testJudgeConfig(), true, arbor.NewLogger())

	path := writeTestPNG(t, 64, 48)
	j := judge.JudgeImage(context.Background(), path, strings.Repeat("字", 250))

	assert.Equal(t, models.JudgmentOK, j.Status)
	assert.Equal(t, "閲覧不可", j.Label)
	assert.Equal(t, "[ジャンル]: 閲覧不可 / [理由]: 403エラー表示", j.Display())

	require.Len(t, completer.requests, 1)
	req := completer.requests[0]
	assert.InDelta(t, 0.3, req.Temperature, 0.0001)
	msg := req.Messages[0]
	require.Len(t, msg.Images, 1)
	assert.Equal(t, "image/png", msg.Images[0].MIMEType)
	assert.Contains(t, msg.Content, "[OCR/ALTテキストの一部]: "+strings.Repeat("字", 200)+"\n")
	assert.NotContains(t, msg.Content, strings.Repeat("字", 201))
}

func TestJudgeImageNoScreenshot(t *testing.T) {
	completer := &fakeCompleter{}
	j := NewJudge(completer, testJudgeConfig(), true, arbor.NewLogger()).JudgeImage(context.Background(), "", "alt")

	assert.Equal(t, models.JudgmentSkipped, j.Status)
	assert.Equal(t, models.ImageNotAnalyzed, j.Display())
	assert.True(t, j.Inconclusive())
	assert.Empty(t, completer.requests)
}

func TestJudgeImageOversized(t *testing.T) {
	completer := &fakeCompleter{}
	cfg := testJudgeConfig()
	cfg.MaxImageBytes = 16

	j := NewJudge(completer, cfg, true, arbor.NewLogger()).JudgeImage(context.Background(), writeTestPNG(t, 32, 32), "")

	assert.Equal(t, models.JudgmentRefused, j.Status)
	assert.True(t, strings.HasPrefix(j.Display(), "画像サイズ過大（"))
	assert.True(t, strings.HasSuffix(j.Display(), "バイト）でGPT不可"))
	assert.Empty(t, completer.requests, "oversized images are never sent")
}

func TestJudgeImageProviderError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("503 unavailable")}
	j := NewJudge(completer, testJudgeConfig(), true, arbor.NewLogger()).JudgeImage(context.Background(), writeTestPNG(t, 8, 8), "")

	assert.Equal(t, models.JudgmentError, j.Status)
	assert.Equal(t, "画像GPTエラー: 503 unavailable", j.Display())
}
