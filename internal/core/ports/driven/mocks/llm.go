package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.LLMService = (*MockLLMService)(nil)

// MockLLMService records every prompt and answers with GenerateFn, or with
// a canned reply naming the prompt's system text when GenerateFn is nil.
type MockLLMService struct {
	mu      sync.Mutex
	prompts []domain.Prompt

	GenerateFn func(prompt domain.Prompt) (string, error)
}

// NewMockLLMService creates a new MockLLMService
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{}
}

func (m *MockLLMService) Generate(ctx context.Context, prompt domain.Prompt) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	fn := m.GenerateFn
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}
	if fn != nil {
		return fn(prompt)
	}
	return "reply to: " + prompt.System, nil
}

func (m *MockLLMService) Model() string {
	return "mock-llm"
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockLLMService) Close() error {
	return nil
}

// Prompts returns a copy of every prompt received
func (m *MockLLMService) Prompts() []domain.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Prompt(nil), m.prompts...)
}

// PromptsContaining returns the prompts whose system text contains s
func (m *MockLLMService) PromptsContaining(s string) []domain.Prompt {
	var out []domain.Prompt
	for _, p := range m.Prompts() {
		if strings.Contains(p.System, s) {
			out = append(out, p)
		}
	}
	return out
}
