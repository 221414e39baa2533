package interfaces

import (
	"context"

	"github.com/ternarybob/sitescreen/internal/models"
)

// ImagePart is an inline image attached to a message
type ImagePart struct {
	MIMEType string
	Data     []byte // Raw bytes; providers encode as they need
}

// Message represents a single message in a conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string

	// Images are sent alongside Content for multi-modal requests
	Images []ImagePart
}

// CompletionRequest is a provider-agnostic completion call
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// Completer sends a completion request to a language model and returns its
// free-form text answer
type Completer interface {
	Complete(ctx context.Context, request *CompletionRequest) (string, error)
}

// GenreJudge returns typed text and image genre judgments. Failures are
// reported inside the judgment, never as errors.
type GenreJudge interface {
	JudgeText(ctx context.Context, body, imageText string) *models.Judgment
	JudgeImage(ctx context.Context, screenshotPath, imageText string) *models.Judgment
}
