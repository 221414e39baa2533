package llm

import (
	"encoding/base64"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/genai"

	"github.com/ternarybob/sitescreen/internal/interfaces"
)

func validateMessages(messages []interfaces.Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("messages cannot be empty")
	}
	for _, msg := range messages {
		if msg.Role == "user" {
			return nil
		}
	}
	return fmt.Errorf("at least one message must have role 'user'")
}

// convertMessagesToClaude maps messages to Claude params. The first system
// message becomes the system prompt; images precede the text block.
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string, error) {
	if err := validateMessages(messages); err != nil {
		return nil, "", err
	}

	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Images)+1)
		for _, img := range msg.Images {
			blocks = append(blocks, anthropic.NewImageBlockBase64(img.MIMEType, base64.StdEncoding.EncodeToString(img.Data)))
		}
		if msg.Content != "" {
			blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
		}
		if len(blocks) == 0 {
			continue
		}

		if msg.Role == "assistant" {
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(blocks...))
		} else {
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(blocks...))
		}
	}

	return claudeMessages, systemText, nil
}

// convertMessagesToGemini maps messages to Gemini contents with inline image parts
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
	if err := validateMessages(messages); err != nil {
		return nil, "", err
	}

	contents := make([]*genai.Content, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		role := genai.Role(genai.RoleUser)
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}

		parts := make([]*genai.Part, 0, len(msg.Images)+1)
		for _, img := range msg.Images {
			parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
		}
		if msg.Content != "" {
			parts = append(parts, genai.NewPartFromText(msg.Content))
		}
		if len(parts) == 0 {
			continue
		}

		contents = append(contents, genai.NewContentFromParts(parts, role))
	}

	return contents, systemText, nil
}
