package runtime

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven/mocks"
)

// closingEmbedder records Close calls on top of the shared mock
type closingEmbedder struct {
	*mocks.MockEmbeddingService
	closes   int
	closeErr error
}

func newClosingEmbedder() *closingEmbedder {
	return &closingEmbedder{MockEmbeddingService: mocks.NewMockEmbeddingService()}
}

func (e *closingEmbedder) Close() error {
	e.closes++
	return e.closeErr
}

type closingLLM struct {
	*mocks.MockLLMService
	closes int
}

func (l *closingLLM) Close() error {
	l.closes++
	return nil
}

func TestNewServices_Empty(t *testing.T) {
	s := NewServices("redis")

	caps := s.Capabilities()
	if caps.Backend != "redis" || caps.Embedding || caps.Generation {
		t.Errorf("unexpected capabilities %+v", caps)
	}
	if _, err := s.Embedding(); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("Embedding error = %v", err)
	}
	if _, err := s.LLM(); !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Errorf("LLM error = %v", err)
	}
	if s.Prompts().RAG.System == "" {
		t.Error("default prompts should be loaded")
	}
}

func TestServices_SwapClosesPrevious(t *testing.T) {
	s := NewServices("postgres")
	first, second := newClosingEmbedder(), newClosingEmbedder()

	if err := s.SetEmbedding(first); err != nil {
		t.Fatal(err)
	}
	if err := s.SetEmbedding(second); err != nil {
		t.Fatal(err)
	}
	if first.closes != 1 || second.closes != 0 {
		t.Errorf("closes: first=%d second=%d", first.closes, second.closes)
	}
	got, err := s.Embedding()
	if err != nil || got != second {
		t.Errorf("Embedding() = %v, %v; want the second backend", got, err)
	}

	if err := s.SetEmbedding(nil); err != nil {
		t.Fatal(err)
	}
	if second.closes != 1 {
		t.Errorf("clearing should close the installed backend, closes=%d", second.closes)
	}
	if s.Capabilities().Embedding {
		t.Error("embedding should be unavailable after clearing")
	}
}

func TestServices_SwapReportsCloseError(t *testing.T) {
	s := NewServices("postgres")
	broken := newClosingEmbedder()
	broken.closeErr = errors.New("socket already closed")
	_ = s.SetEmbedding(broken)

	replacement := newClosingEmbedder()
	if err := s.SetEmbedding(replacement); err == nil {
		t.Error("expected the close error of the replaced backend")
	}
	if got, _ := s.Embedding(); got != replacement {
		t.Error("replacement should be installed even when the old one fails to close")
	}
}

func TestServices_Capabilities(t *testing.T) {
	s := NewServices("postgres")
	_ = s.SetLLM(&closingLLM{MockLLMService: mocks.NewMockLLMService()})
	if caps := s.Capabilities(); caps.CanAnswer() || !caps.Generation {
		t.Errorf("llm only: %+v", caps)
	}

	_ = s.SetEmbedding(newClosingEmbedder())
	if caps := s.Capabilities(); !caps.CanAnswer() || !caps.CanIngest() {
		t.Errorf("both configured: %+v", caps)
	}
}

func TestServices_Close(t *testing.T) {
	s := NewServices("postgres")
	embedder := newClosingEmbedder()
	llm := &closingLLM{MockLLMService: mocks.NewMockLLMService()}
	_ = s.SetEmbedding(embedder)
	_ = s.SetLLM(llm)

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if embedder.closes != 1 || llm.closes != 1 {
		t.Errorf("closes: embedding=%d llm=%d", embedder.closes, llm.closes)
	}
	if len(s.Capabilities().Missing()) != 2 {
		t.Error("nothing should be configured after Close")
	}
	// A second close has nothing left to release
	if err := s.Close(); err != nil || embedder.closes != 1 {
		t.Errorf("second Close: err=%v closes=%d", err, embedder.closes)
	}
}

func TestServices_SetPromptsKeepsDefaults(t *testing.T) {
	s := NewServices("postgres")
	defaults := s.Prompts()

	custom := domain.PromptSet{}
	custom.RAG.System = "Answer in one sentence."
	s.SetPrompts(custom)

	got := s.Prompts()
	if got.RAG.System != "Answer in one sentence." {
		t.Errorf("RAG.System = %q", got.RAG.System)
	}
	if got.Merge.System != defaults.Merge.System {
		t.Error("unset templates should keep their defaults")
	}
}

func TestServices_ConcurrentSwapAndRead(t *testing.T) {
	s := NewServices("postgres")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.SetEmbedding(newClosingEmbedder())
		}()
		go func() {
			defer wg.Done()
			if svc, err := s.Embedding(); err == nil {
				_, _ = svc.EmbedQuery(context.Background(), "q")
			}
			_ = s.Capabilities()
		}()
	}
	wg.Wait()
}
