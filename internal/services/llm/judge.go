package llm

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitescreen/internal/common"
	"github.com/ternarybob/sitescreen/internal/interfaces"
	"github.com/ternarybob/sitescreen/internal/models"
)

// Judge asks a language model which risk genres a page belongs to, once
// from its text and once from its screenshot. Every outcome, including
// failures, is returned as a Judgment; nothing is raised to the caller.
type Judge struct {
	completer interfaces.Completer
	config    common.JudgeConfig
	enabled   bool
	timeout   time.Duration
	logger    arbor.ILogger
}

var _ interfaces.GenreJudge = (*Judge)(nil)

// NewJudge creates a judge. When enabled is false (no API key configured)
// every call returns the not-run sentinel without contacting a provider.
func NewJudge(completer interfaces.Completer, config common.JudgeConfig, enabled bool, logger arbor.ILogger) *Judge {
	return &Judge{
		completer: completer,
		config:    config,
		enabled:   enabled && completer != nil,
		timeout:   common.ParseDuration(config.Timeout, 60*time.Second),
		logger:    logger,
	}
}

// Enabled reports whether model calls will be made
func (j *Judge) Enabled() bool {
	return j.enabled
}

// JudgeText classifies the page from its body text and image text
func (j *Judge) JudgeText(ctx context.Context, body, imageText string) *models.Judgment {
	if !j.enabled {
		return &models.Judgment{Kind: models.JudgmentText, Status: models.JudgmentSkipped, Raw: models.LLMNotConfigured}
	}

	prompt := buildTextPrompt(body, imageText, j.config.TextMaxChars, j.config.ImageTextChars)
	raw, err := j.complete(ctx, &interfaces.CompletionRequest{
		Model:       j.config.Model,
		Messages:    []interfaces.Message{{Role: "user", Content: prompt}},
		MaxTokens:   j.config.MaxTokens,
		Temperature: j.config.TextTemperature,
	})
	if err != nil {
		j.logger.Warn().Err(err).Msg("Text judgment failed")
		return &models.Judgment{Kind: models.JudgmentText, Status: models.JudgmentError, Raw: models.TextErrorPrefix + err.Error()}
	}

	return ParseTextJudgment(raw)
}

// JudgeImage classifies the page from its screenshot plus the OCR/alt text
func (j *Judge) JudgeImage(ctx context.Context, screenshotPath, imageText string) *models.Judgment {
	if !j.enabled || screenshotPath == "" {
		return &models.Judgment{Kind: models.JudgmentImage, Status: models.JudgmentSkipped, Raw: models.ImageNotAnalyzed}
	}

	prepared, err := PrepareImage(screenshotPath, j.config.MaxImageDim, j.config.MaxImageBytes)
	if err != nil {
		var tooLarge *ImageTooLargeError
		if errors.As(err, &tooLarge) {
			j.logger.Warn().Int("encoded_size", tooLarge.EncodedSize).Msg("Screenshot over image budget, skipping image judgment")
			return &models.Judgment{Kind: models.JudgmentImage, Status: models.JudgmentRefused, Raw: models.OversizedImageMessage(tooLarge.EncodedSize)}
		}
		return &models.Judgment{Kind: models.JudgmentImage, Status: models.JudgmentError, Raw: models.ImageErrorPrefix + err.Error()}
	}

	raw, err := j.complete(ctx, &interfaces.CompletionRequest{
		Model: j.config.Model,
		Messages: []interfaces.Message{{
			Role:    "user",
			Content: buildImagePrompt(imageText, j.config.OCRTextChars),
			Images:  []interfaces.ImagePart{{MIMEType: "image/png", Data: prepared.PNG}},
		}},
		MaxTokens:   j.config.MaxTokens,
		Temperature: j.config.ImageTemperature,
	})
	if err != nil {
		j.logger.Warn().Err(err).Msg("Image judgment failed")
		return &models.Judgment{Kind: models.JudgmentImage, Status: models.JudgmentError, Raw: models.ImageErrorPrefix + err.Error()}
	}

	return ParseImageJudgment(raw)
}

func (j *Judge) complete(ctx context.Context, request *interfaces.CompletionRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	return j.completer.Complete(callCtx, request)
}
