package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

// Ensure OpenAILLM implements LLMService
var _ driven.LLMService = (*OpenAILLM)(nil)

const defaultOpenAIChatModel = "gpt-4o-mini"

// OpenAILLM implements LLMService on the chat completions API
type OpenAILLM struct {
	api         *apiClient
	model       string
	baseURL     string
	temperature float64
}

// NewOpenAILLM creates a new OpenAI chat service
func NewOpenAILLM(settings domain.LLMSettings) (*OpenAILLM, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", domain.ErrInvalidInput)
	}

	model := settings.Model
	if model == "" {
		model = defaultOpenAIChatModel
	}
	baseURL := strings.TrimRight(settings.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	return &OpenAILLM{
		api: newAPIClient("OpenAI", settings.Timeout, settings.RatePerMin, map[string]string{
			"Authorization": "Bearer " + settings.APIKey,
		}),
		model:       model,
		baseURL:     baseURL,
		temperature: settings.Temperature,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// chatMessages lays a prompt out as system, user and an assistant turn
// holding the prefix the reply continues from
func chatMessages(prompt domain.Prompt) []chatMessage {
	var messages []chatMessage
	if prompt.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: prompt.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt.Human})
	if prompt.Prefix != "" {
		messages = append(messages, chatMessage{Role: "assistant", Content: prompt.Prefix})
	}
	return messages
}

// Generate completes the prompt
func (l *OpenAILLM) Generate(ctx context.Context, prompt domain.Prompt) (string, error) {
	req := chatRequest{
		Model:       l.model,
		Messages:    chatMessages(prompt),
		Temperature: l.temperature,
	}

	var resp chatResponse
	if err := l.api.postJSON(ctx, l.baseURL+"/chat/completions", req, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", domain.ErrGenerationUnavailable)
	}
	return trimPrefix(resp.Choices[0].Message.Content, prompt.Prefix), nil
}

// Model returns the model name being used
func (l *OpenAILLM) Model() string {
	return l.model
}

// Ping sends a one-word prompt
func (l *OpenAILLM) Ping(ctx context.Context) error {
	_, err := l.Generate(ctx, domain.Prompt{Human: "ping"})
	return err
}

// Close releases idle connections
func (l *OpenAILLM) Close() error {
	l.api.close()
	return nil
}

// trimPrefix drops an echoed assistant prefix from the reply
func trimPrefix(text, prefix string) string {
	text = strings.TrimSpace(text)
	if prefix != "" {
		text = strings.TrimSpace(strings.TrimPrefix(text, strings.TrimSpace(prefix)))
	}
	return text
}
