package runtime

import (
	"errors"
	"fmt"
	"sync"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

type closer interface {
	Close() error
}

// slot holds one swappable model backend. Replacing or clearing it closes
// the previous value.
type slot[T closer] struct {
	cur T
	set bool
}

func (s *slot[T]) get() (T, bool) {
	return s.cur, s.set
}

func (s *slot[T]) swap(next T, present bool) error {
	var err error
	if s.set {
		err = s.cur.Close()
	}
	var zero T
	s.cur, s.set = zero, false
	if present {
		s.cur, s.set = next, true
	}
	return err
}

// Services holds the model backends and prompts shared by the chat and
// ingestion paths. Backends may be swapped while requests are in flight.
type Services struct {
	backend string

	mu       sync.RWMutex
	embedder slot[driven.EmbeddingService]
	llm      slot[driven.LLMService]
	prompts  domain.PromptSet
}

// NewServices creates an empty registry using the built-in prompts. backend
// names the coordination store and is only reported through Capabilities.
func NewServices(backend string) *Services {
	return &Services{
		backend: backend,
		prompts: domain.DefaultPrompts(),
	}
}

// Prompts returns the prompt set used for generation
func (s *Services) Prompts() domain.PromptSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompts
}

// SetPrompts replaces the prompt set. Empty templates keep their defaults.
func (s *Services) SetPrompts(prompts domain.PromptSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = prompts.WithDefaults()
}

// Capabilities reports which backends are currently configured
func (s *Services) Capabilities() domain.Capabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, embedding := s.embedder.get()
	_, generation := s.llm.get()
	return domain.Capabilities{
		Backend:    s.backend,
		Embedding:  embedding,
		Generation: generation,
	}
}

// Embedding returns the embedding backend or ErrServiceUnavailable
func (s *Services) Embedding() (driven.EmbeddingService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if svc, ok := s.embedder.get(); ok {
		return svc, nil
	}
	return nil, fmt.Errorf("%w: embedding service not configured", domain.ErrServiceUnavailable)
}

// LLM returns the generation backend or ErrGenerationUnavailable
func (s *Services) LLM() (driven.LLMService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if svc, ok := s.llm.get(); ok {
		return svc, nil
	}
	return nil, fmt.Errorf("%w: llm service not configured", domain.ErrGenerationUnavailable)
}

// SetEmbedding installs svc, closing the backend it replaces. A nil svc
// clears the slot.
func (s *Services) SetEmbedding(svc driven.EmbeddingService) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.embedder.swap(svc, svc != nil)
}

// SetLLM installs svc, closing the backend it replaces. A nil svc clears
// the slot.
func (s *Services) SetLLM(svc driven.LLMService) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.llm.swap(svc, svc != nil)
}

// Close releases both backends
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(
		s.embedder.swap(nil, false),
		s.llm.swap(nil, false),
	)
}
