package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitescreen/internal/common"
	"github.com/ternarybob/sitescreen/internal/interfaces"
)

func newTestFactory(defaultProvider common.LLMProvider) *ProviderFactory {
	cfg := common.NewDefaultConfig()
	cfg.LLM.DefaultProvider = defaultProvider
	return NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, arbor.NewLogger())
}

func TestDetectProvider(t *testing.T) {
	f := newTestFactory(common.LLMProviderGemini)

	assert.Equal(t, ProviderClaude, f.DetectProvider("claude-haiku-4-5"))
	assert.Equal(t, ProviderClaude, f.DetectProvider("anthropic/claude-haiku-4-5"))
	assert.Equal(t, ProviderGemini, f.DetectProvider("gemini-2.5-flash"))
	assert.Equal(t, ProviderGemini, f.DetectProvider("google/gemini-2.5-flash"))
	assert.Equal(t, ProviderGemini, f.DetectProvider(""))
	assert.Equal(t, ProviderGemini, f.DetectProvider("unknown-model"))

	assert.Equal(t, ProviderClaude, newTestFactory(common.LLMProviderClaude).DetectProvider(""))
}

func TestNormalizeModel(t *testing.T) {
	f := newTestFactory(common.LLMProviderGemini)
	assert.Equal(t, "claude-haiku-4-5", f.NormalizeModel("claude/claude-haiku-4-5"))
	assert.Equal(t, "gemini-2.5-flash", f.NormalizeModel("Gemini/gemini-2.5-flash"))
	assert.Equal(t, "gemini-2.5-flash", f.NormalizeModel("gemini-2.5-flash"))
}

func TestMissingAPIKey(t *testing.T) {
	f := newTestFactory(common.LLMProviderClaude)
	_, err := f.GetClaudeClient()
	require.Error(t, err)
}

func TestConvertMessages(t *testing.T) {
	msgs := []interfaces.Message{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "what genre?", Images: []interfaces.ImagePart{{MIMEType: "image/png", Data: []byte{1, 2, 3}}}},
	}

	claude, system, err := convertMessagesToClaude(msgs)
	require.NoError(t, err)
	assert.Equal(t, "be terse", system)
	require.Len(t, claude, 1)
	assert.Len(t, claude[0].Content, 2, "image block plus text block")

	gemini, system, err := convertMessagesToGemini(msgs)
	require.NoError(t, err)
	assert.Equal(t, "be terse", system)
	require.Len(t, gemini, 1)
	assert.Len(t, gemini[0].Parts, 2)

	_, _, err = convertMessagesToGemini([]interfaces.Message{{Role: "system", Content: "x"}})
	assert.Error(t, err, "a user message is required")
	_, _, err = convertMessagesToClaude(nil)
	assert.Error(t, err)
}

func TestRateLimitHelpers(t *testing.T) {
	err := errors.New("Error 429, Message: Please retry in 12.5s., Status: RESOURCE_EXHAUSTED")
	assert.True(t, IsRateLimitError(err))
	assert.Equal(t, 12500*time.Millisecond, ExtractRetryDelay(err))

	assert.False(t, IsRateLimitError(errors.New("connection refused")))
	assert.Zero(t, ExtractRetryDelay(errors.New("connection refused")))
	assert.False(t, IsRateLimitError(nil))
}

func TestBackoffHonoursRetryDelay(t *testing.T) {
	var lastErr error
	b := newBackoff(2, &lastErr)

	lastErr = errors.New("boom")
	d, stop := b.Next()
	assert.False(t, stop)
	assert.Equal(t, defaultRetryDelay, d)

	lastErr = errors.New("429 Please retry in 3s")
	d, stop = b.Next()
	assert.False(t, stop)
	assert.Equal(t, 3*time.Second, d)

	_, stop = b.Next()
	assert.True(t, stop, "max retries reached")
}

func TestModelCallsAreNotRetriedByDefault(t *testing.T) {
	f := newTestFactory(common.LLMProviderGemini)
	assert.Zero(t, f.maxRetries())

	var lastErr error
	_, stop := newBackoff(f.maxRetries(), &lastErr).Next()
	assert.True(t, stop, "a single attempt only")
}

func TestModelCallRetriesAreConfigurable(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.LLM.MaxRetries = 2
	f := NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, arbor.NewLogger())
	assert.Equal(t, uint64(2), f.maxRetries())

	cfg.LLM.MaxRetries = -1
	assert.Zero(t, f.maxRetries())
}
