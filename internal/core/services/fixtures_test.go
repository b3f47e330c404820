package services

import (
	"context"
	"strings"
	"testing"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven/mocks"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/postprocessors"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/readers"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/runtime"
)

// Prompt system texts start with these, which lets a mock LLM tell the
// four generation steps apart.
const (
	stepWriteQuery = "PostgreSQL expert"
	stepSQLAnswer  = "SQL results or general knowledge"
	stepRAG        = "consulting company"
	stepMerge      = "merges responses"
)

type indexFixture struct {
	services *runtime.Services
	embedder *mocks.MockEmbeddingService
	llm      *mocks.MockLLMService
	public   *mocks.MockVectorStore
	private  *mocks.MockVectorStore
	index    *VectorIndex
}

func newIndexFixture(t *testing.T) *indexFixture {
	t.Helper()
	f := &indexFixture{
		services: runtime.NewServices("postgres"),
		embedder: mocks.NewMockEmbeddingService(),
		llm:      mocks.NewMockLLMService(),
		public:   mocks.NewMockVectorStore(domain.ScopePublic),
		private:  mocks.NewMockVectorStore(domain.ScopePrivate),
	}
	_ = f.services.SetEmbedding(f.embedder)
	_ = f.services.SetLLM(f.llm)

	index, err := NewVectorIndex(VectorIndexConfig{
		Stores:   []driven.VectorStore{f.public, f.private},
		Services: f.services,
	})
	if err != nil {
		t.Fatalf("new vector index: %v", err)
	}
	f.index = index
	return f
}

// newPipeline wires the real plain text reader and chunker over dir.
func (f *indexFixture) newPipeline(dir string, documents *mocks.MockDocumentStore) *IngestionPipeline {
	return NewIngestionPipeline(IngestionConfig{
		Reader:    readers.DefaultRegistry(readers.Config{}),
		Chunker:   postprocessors.NewChunker(postprocessors.DefaultChunkConfig()),
		Index:     f.index,
		Documents: documents,
		Dir:       dir,
	})
}

// entries returns the content of every chunk in a store for a source
func entries(t *testing.T, store *mocks.MockVectorStore, source string) []string {
	t.Helper()
	hits, err := store.Search(context.Background(), make([]float32, 64), 1000)
	if err != nil {
		t.Fatalf("list store: %v", err)
	}
	var out []string
	for _, hit := range hits {
		if hit.Chunk.Source == source {
			out = append(out, hit.Chunk.Content)
		}
	}
	return out
}

func chunk(source, content string, position int) *domain.Chunk {
	return &domain.Chunk{
		Source:   source,
		Content:  content,
		Position: position,
		Metadata: map[string]string{"segment": "0"},
	}
}

// scriptLLM answers each generation step from a fixed table
func scriptLLM(llm *mocks.MockLLMService, answers map[string]string, fail map[string]error) {
	llm.GenerateFn = func(p domain.Prompt) (string, error) {
		for step, err := range fail {
			if strings.Contains(p.System, step) {
				return "", err
			}
		}
		for step, answer := range answers {
			if strings.Contains(p.System, step) {
				return answer, nil
			}
		}
		return "unexpected prompt", nil
	}
}
