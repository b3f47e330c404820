package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven/mocks"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/runtime"
)

func TestNewVectorIndex_RequiresOneStorePerScope(t *testing.T) {
	services := runtime.NewServices("postgres")
	public := mocks.NewMockVectorStore(domain.ScopePublic)

	tests := []struct {
		name   string
		stores []driven.VectorStore
	}{
		{"missing private", []driven.VectorStore{public}},
		{"duplicate public", []driven.VectorStore{public, mocks.NewMockVectorStore(domain.ScopePublic)}},
		{"unknown scope", []driven.VectorStore{public, mocks.NewMockVectorStore("internal")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVectorIndex(VectorIndexConfig{Stores: tt.stores, Services: services})
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestVectorIndex_UpsertAssignsFreshIDs(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	chunks := []*domain.Chunk{chunk("a.txt", "alpha", 0), chunk("a.txt", "beta", 1)}

	first, err := f.index.Upsert(ctx, domain.ScopePrivate, chunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.index.Upsert(ctx, domain.ScopePublic, chunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]bool)
	for _, id := range append(first.Stored, second.Stored...) {
		if id == "" || seen[id] {
			t.Fatalf("expected unique non-empty IDs, got %v and %v", first.Stored, second.Stored)
		}
		seen[id] = true
	}
	for _, c := range chunks {
		if c.ID != "" {
			t.Error("expected caller's chunks to be left untouched")
		}
		if _, ok := c.Metadata["index"]; ok {
			t.Error("expected caller's metadata to be left untouched")
		}
	}
}

func TestVectorIndex_ScopeIsolation(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()

	if _, err := f.index.Upsert(ctx, domain.ScopePrivate, []*domain.Chunk{chunk("salaries.txt", "salary bands for engineers", 0)}); err != nil {
		t.Fatalf("upsert private: %v", err)
	}
	if _, err := f.index.Upsert(ctx, domain.ScopePublic, []*domain.Chunk{chunk("about.txt", "we are a consulting company", 0)}); err != nil {
		t.Fatalf("upsert public: %v", err)
	}

	hits, err := f.index.Search(ctx, domain.ScopePublic, "salary bands", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, hit := range hits {
		if hit.Chunk.Source == "salaries.txt" {
			t.Fatal("private chunk leaked into public search")
		}
		if hit.Chunk.Metadata["index"] != "public" {
			t.Errorf("expected index metadata public, got %q", hit.Chunk.Metadata["index"])
		}
	}
	if f.private.SearchCount() != 0 {
		t.Errorf("expected private store untouched, got %d searches", f.private.SearchCount())
	}

	hits, err = f.index.Search(ctx, domain.ScopePrivate, "salary bands", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].Chunk.Source != "salaries.txt" {
		t.Errorf("expected the salary chunk from the private index, got %d hits", len(hits))
	}
}

func TestVectorIndex_SearchRanksAndLimits(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	_, _ = f.index.Upsert(ctx, domain.ScopePublic, []*domain.Chunk{
		chunk("a.txt", "holiday calendar for the year", 0),
		chunk("b.txt", "leave policy grants twenty days of leave", 0),
		chunk("c.txt", "office address and parking", 0),
	})

	hits, err := f.index.Search(ctx, domain.ScopePublic, "leave policy", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Chunk.Source != "b.txt" {
		t.Errorf("expected leave policy first, got %s", hits[0].Chunk.Source)
	}
}

func TestVectorIndex_SearchEmptyIndex(t *testing.T) {
	f := newIndexFixture(t)
	hits, err := f.index.Search(context.Background(), domain.ScopePublic, "anything", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits == nil || len(hits) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", hits)
	}
}

func TestVectorIndex_UnknownScope(t *testing.T) {
	f := newIndexFixture(t)
	if _, err := f.index.Search(context.Background(), "internal", "q", 2); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.index.Upsert(context.Background(), "internal", nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestVectorIndex_NoEmbeddingService(t *testing.T) {
	f := newIndexFixture(t)
	_ = f.services.SetEmbedding(nil)

	_, err := f.index.Search(context.Background(), domain.ScopePublic, "q", 2)
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestVectorIndex_PartialFailure(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	f.private.PutFn = func(c *domain.Chunk) error {
		if strings.Contains(c.Content, "broken") {
			return errors.New("disk full")
		}
		return nil
	}

	report, err := f.index.Upsert(ctx, domain.ScopePrivate, []*domain.Chunk{
		chunk("a.txt", "first part", 0),
		chunk("a.txt", "broken part", 1),
		chunk("a.txt", "third part", 2),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.OK() {
		t.Error("expected report to show a failure")
	}
	if len(report.Stored) != 2 {
		t.Errorf("expected 2 stored, got %d", len(report.Stored))
	}
	if len(report.Failed) != 1 || report.Failed[0] != "a.txt#0:1" {
		t.Errorf("expected failure a.txt#0:1, got %v", report.Failed)
	}
	if n, _ := f.index.Count(ctx, domain.ScopePrivate); n != 2 {
		t.Errorf("expected stored chunks to survive, got %d", n)
	}
}

func TestVectorIndex_EmbeddingBatchFailure(t *testing.T) {
	f := newIndexFixture(t)
	f.embedder.FailOn = "poison"

	report, err := f.index.Upsert(context.Background(), domain.ScopePublic, []*domain.Chunk{
		chunk("a.txt", "fine", 0),
		chunk("a.txt", "poison", 1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Failed) != 2 {
		t.Errorf("expected the whole batch to fail, got %v", report.Failed)
	}
}

func TestVectorIndex_DeleteBySource(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	chunks := []*domain.Chunk{chunk("doc1.txt", "one", 0), chunk("doc1.txt", "two", 1)}
	_, _ = f.index.Upsert(ctx, domain.ScopePrivate, chunks)
	_, _ = f.index.Upsert(ctx, domain.ScopePublic, chunks)
	_, _ = f.index.Upsert(ctx, domain.ScopePublic, []*domain.Chunk{chunk("other.txt", "keep", 0)})

	n, err := f.index.DeleteBySource(ctx, "doc1.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 removed across both indexes, got %d", n)
	}
	if got := entries(t, f.public, "other.txt"); len(got) != 1 {
		t.Errorf("expected other source kept, got %v", got)
	}

	n, err = f.index.DeleteBySource(ctx, "never-ingested.txt")
	if err != nil || n != 0 {
		t.Errorf("expected no-op for unknown source, got %d, %v", n, err)
	}
}

func TestVectorIndex_DeleteByID(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	_, _ = f.index.Upsert(ctx, domain.ScopePublic, []*domain.Chunk{chunk("doc1.txt", "old", 0)})
	fresh, _ := f.index.Upsert(ctx, domain.ScopePublic, []*domain.Chunk{chunk("doc1.txt", "new", 0)})

	n, err := f.index.Delete(ctx, fresh.Stored)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 removed, got %d, %v", n, err)
	}
	if got := entries(t, f.public, "doc1.txt"); len(got) != 1 || got[0] != "old" {
		t.Errorf("expected only the old entry left, got %v", got)
	}
	if n, err := f.index.Delete(ctx, nil); n != 0 || err != nil {
		t.Errorf("expected no-op for no IDs, got %d, %v", n, err)
	}
}

func TestVectorIndex_DeleteStale(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	_, _ = f.index.Upsert(ctx, domain.ScopePublic, []*domain.Chunk{chunk("doc1.txt", "old", 0)})
	_, _ = f.index.Upsert(ctx, domain.ScopePrivate, []*domain.Chunk{chunk("doc1.txt", "old", 0)})
	_, _ = f.index.Upsert(ctx, domain.ScopePublic, []*domain.Chunk{chunk("other.txt", "keep", 0)})
	fresh, _ := f.index.Upsert(ctx, domain.ScopePublic, []*domain.Chunk{chunk("doc1.txt", "new", 0)})

	n, err := f.index.DeleteStale(ctx, "doc1.txt", fresh.Stored)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 removed across both indexes, got %d, %v", n, err)
	}
	if got := entries(t, f.public, "doc1.txt"); len(got) != 1 || got[0] != "new" {
		t.Errorf("expected only the new entry left, got %v", got)
	}
	if got := entries(t, f.public, "other.txt"); len(got) != 1 {
		t.Errorf("expected other source kept, got %v", got)
	}
}
