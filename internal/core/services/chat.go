package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driving"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/runtime"
)

// Ensure chatService implements ChatService
var _ driving.ChatService = (*chatService)(nil)

// chatService composes an answer from the structured path (authenticated
// callers only) and the retrieval path, then merges the two.
type chatService struct {
	index      *VectorIndex
	structured *StructuredQuery
	services   *runtime.Services
	logger     *slog.Logger
	k          int
	timeout    time.Duration
}

// ChatServiceConfig holds configuration for the chat service.
type ChatServiceConfig struct {
	Index      *VectorIndex
	Structured *StructuredQuery // Optional: nil disables the structured path
	Services   *runtime.Services
	Logger     *slog.Logger
	K          int           // Chunks retrieved per question (default: 2)
	Timeout    time.Duration // Per generation call (default: 60s)
}

// NewChatService creates a new ChatService
func NewChatService(cfg ChatServiceConfig) driving.ChatService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	k := cfg.K
	if k <= 0 {
		k = domain.DefaultSearchK
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &chatService{
		index:      cfg.Index,
		structured: cfg.Structured,
		services:   cfg.Services,
		logger:     logger,
		k:          k,
		timeout:    timeout,
	}
}

// Answer composes one answer. Structured failures are absorbed; retrieval
// and merge failures wrap domain.ErrAnswerGenerationFailed.
func (s *chatService) Answer(ctx context.Context, qc domain.QueryContext) (string, error) {
	qc.Question = strings.TrimSpace(qc.Question)
	if qc.Question == "" {
		return "", fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	// The structured path runs alongside retrieval and must finish before merge.
	structuredCh := make(chan string, 1)
	go func() {
		structuredCh <- s.structuredAnswer(ctx, qc)
	}()

	ragAnswer, err := s.retrievalAnswer(ctx, qc)
	structured := <-structuredCh
	if err != nil {
		return "", err
	}

	llm, err := s.services.LLM()
	if err != nil {
		return "", generationFailed("merge", err)
	}
	merged, err := s.generate(ctx, llm.Generate, s.services.Prompts().Merge.Render(map[string]string{
		"sql_response":    structured,
		"vector_response": ragAnswer,
	}))
	if err != nil {
		return "", generationFailed("merge", err)
	}

	s.logger.Info("answered question",
		"authenticated", qc.Authenticated,
		"scope", qc.Scope(),
		"structured", structured != "",
	)
	return merged, nil
}

func (s *chatService) structuredAnswer(ctx context.Context, qc domain.QueryContext) string {
	if !qc.Authenticated || s.structured == nil {
		return ""
	}
	answer, err := s.structured.Answer(ctx, qc)
	if err != nil {
		s.logger.Warn("structured answer unavailable", "principal_id", qc.PrincipalID, "error", err)
		return ""
	}
	return answer
}

func (s *chatService) retrievalAnswer(ctx context.Context, qc domain.QueryContext) (string, error) {
	scope := qc.Scope()
	hits, err := s.index.Search(ctx, scope, qc.Question, s.k)
	if err != nil {
		return "", generationFailed("search", err)
	}

	parts := make([]string, 0, len(hits))
	for _, hit := range hits {
		parts = append(parts, hit.Chunk.Content)
	}
	s.logger.Debug("retrieved context", "scope", scope, "chunks", len(hits))

	llm, err := s.services.LLM()
	if err != nil {
		return "", generationFailed("rag", err)
	}
	answer, err := s.generate(ctx, llm.Generate, s.services.Prompts().RAG.Render(map[string]string{
		"context": strings.Join(parts, "\n\n"),
		"input":   qc.Question,
	}))
	if err != nil {
		return "", generationFailed("rag", err)
	}
	return answer, nil
}

func (s *chatService) generate(ctx context.Context, fn func(context.Context, domain.Prompt) (string, error), prompt domain.Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx, prompt)
}

func generationFailed(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrAnswerGenerationFailed, step, err)
}
