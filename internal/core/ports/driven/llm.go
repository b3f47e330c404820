package driven

import (
	"context"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

// LLMService generates text from a chat-style prompt
type LLMService interface {
	// Generate completes the prompt and returns the assistant text.
	// Failures wrap domain.ErrGenerationUnavailable.
	Generate(ctx context.Context, prompt domain.Prompt) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}
