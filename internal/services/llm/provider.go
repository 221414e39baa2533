package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sethvargo/go-retry"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/ternarybob/sitescreen/internal/common"
	"github.com/ternarybob/sitescreen/internal/interfaces"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// ProviderFactory routes completion requests to Gemini or Claude based on the
// model name and paces calls per provider
type ProviderFactory struct {
	geminiConfig *common.GeminiConfig
	claudeConfig *common.ClaudeConfig
	llmConfig    *common.LLMConfig
	logger       arbor.ILogger

	mu            sync.Mutex
	geminiClient  *genai.Client
	claudeClient  anthropic.Client
	claudeReady   bool
	geminiLimiter *rate.Limiter
	claudeLimiter *rate.Limiter
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(
	geminiConfig *common.GeminiConfig,
	claudeConfig *common.ClaudeConfig,
	llmConfig *common.LLMConfig,
	logger arbor.ILogger,
) *ProviderFactory {
	return &ProviderFactory{
		geminiConfig:  geminiConfig,
		claudeConfig:  claudeConfig,
		llmConfig:     llmConfig,
		logger:        logger,
		geminiLimiter: newLimiter(geminiConfig.RateLimit, 4*time.Second),
		claudeLimiter: newLimiter(claudeConfig.RateLimit, time.Second),
	}
}

// newLimiter allows one call per interval with no burst
func newLimiter(interval string, fallback time.Duration) *rate.Limiter {
	d := common.ParseDuration(interval, fallback)
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// DetectProvider determines the provider type from a model string.
// Model strings can be:
// - "claude-haiku-4-5" -> Claude
// - "claude/claude-haiku-4-5" -> Claude (with prefix)
// - "gemini-2.5-flash" -> Gemini
// - "gemini/gemini-2.5-flash" -> Gemini (with prefix)
// - Empty string -> uses default provider from config
func (f *ProviderFactory) DetectProvider(model string) ProviderType {
	if model == "" {
		return f.defaultProvider()
	}

	model = strings.ToLower(model)

	if strings.HasPrefix(model, "claude/") || strings.HasPrefix(model, "anthropic/") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini/") || strings.HasPrefix(model, "google/") {
		return ProviderGemini
	}

	if strings.HasPrefix(model, "claude-") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini-") {
		return ProviderGemini
	}

	return f.defaultProvider()
}

// maxRetries is how many times a failed completion is retried. Zero means
// a single attempt.
func (f *ProviderFactory) maxRetries() uint64 {
	if f.llmConfig == nil || f.llmConfig.MaxRetries <= 0 {
		return 0
	}
	return uint64(f.llmConfig.MaxRetries)
}

func (f *ProviderFactory) defaultProvider() ProviderType {
	if f.llmConfig != nil && f.llmConfig.DefaultProvider == common.LLMProviderClaude {
		return ProviderClaude
	}
	return ProviderGemini
}

// NormalizeModel removes provider prefix from model name if present
func (f *ProviderFactory) NormalizeModel(model string) string {
	prefixes := []string{"claude/", "anthropic/", "gemini/", "google/"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// GetGeminiClient returns a Gemini client, creating one if necessary
func (f *ProviderFactory) GetGeminiClient(ctx context.Context) (*genai.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.geminiClient != nil {
		return f.geminiClient, nil
	}
	if f.geminiConfig.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  f.geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	f.geminiClient = client
	return client, nil
}

// GetClaudeClient returns a Claude client, creating one if necessary
func (f *ProviderFactory) GetClaudeClient() (anthropic.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.claudeReady {
		return f.claudeClient, nil
	}
	if f.claudeConfig.APIKey == "" {
		return anthropic.Client{}, fmt.Errorf("Anthropic API key is not configured")
	}

	f.claudeClient = anthropic.NewClient(option.WithAPIKey(f.claudeConfig.APIKey))
	f.claudeReady = true
	return f.claudeClient, nil
}

// Complete sends the request to the provider chosen by its model name and
// returns the trimmed answer text
func (f *ProviderFactory) Complete(ctx context.Context, request *interfaces.CompletionRequest) (string, error) {
	provider := f.DetectProvider(request.Model)
	model := f.NormalizeModel(request.Model)

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Int("message_count", len(request.Messages)).
		Msg("Generating content with provider")

	var text string
	var err error
	switch provider {
	case ProviderClaude:
		text, err = f.generateWithClaude(ctx, request, model)
	default:
		text, err = f.generateWithGemini(ctx, request, model)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// generateWithClaude generates content using Claude API
func (f *ProviderFactory) generateWithClaude(ctx context.Context, request *interfaces.CompletionRequest, model string) (string, error) {
	client, err := f.GetClaudeClient()
	if err != nil {
		return "", err
	}

	if model == "" {
		model = f.claudeConfig.Model
	}

	claudeMessages, systemText, err := convertMessagesToClaude(request.Messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages: %w", err)
	}

	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = f.claudeConfig.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  claudeMessages,
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = f.claudeConfig.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}

	if systemText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemText},
		}
	}

	var lastErr error
	resp, err := retry.DoValue(ctx, newBackoff(f.maxRetries(), &lastErr), func(ctx context.Context) (*anthropic.Message, error) {
		if err := f.claudeLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := client.Messages.New(ctx, params)
		if err != nil {
			lastErr = err
			f.logger.Warn().Err(err).Str("model", model).Msg("Claude API call failed")
			return nil, retry.RetryableError(err)
		}
		return resp, nil
	})
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}

	return text.String(), nil
}

// generateWithGemini generates content using Gemini API
func (f *ProviderFactory) generateWithGemini(ctx context.Context, request *interfaces.CompletionRequest, model string) (string, error) {
	client, err := f.GetGeminiClient(ctx)
	if err != nil {
		return "", err
	}

	if model == "" {
		model = f.geminiConfig.Model
	}

	geminiContents, systemText, err := convertMessagesToGemini(request.Messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages: %w", err)
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = f.geminiConfig.Temperature
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temp),
	}
	if request.MaxTokens > 0 {
		config.MaxOutputTokens = int32(request.MaxTokens)
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	var lastErr error
	resp, err := retry.DoValue(ctx, newBackoff(f.maxRetries(), &lastErr), func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		if err := f.geminiLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := client.Models.GenerateContent(ctx, model, geminiContents, config)
		if err != nil {
			lastErr = err
			f.logger.Warn().Err(err).Str("model", model).Msg("Gemini API call failed")
			return nil, retry.RetryableError(err)
		}
		return resp, nil
	})
	if err != nil {
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	responseText := resp.Text()
	if responseText == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}

	return responseText, nil
}

// Close drops the cached clients
func (f *ProviderFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geminiClient = nil
	f.claudeClient = anthropic.Client{}
	f.claudeReady = false
	return nil
}
