package mocks

import (
	"context"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.VectorStore = (*MockVectorStore)(nil)

type vectorEntry struct {
	chunk     domain.Chunk
	embedding []float32
}

// MockVectorStore is a brute-force cosine index for one scope. It records
// every search so tests can assert which index a request touched.
type MockVectorStore struct {
	mu       sync.RWMutex
	scope    domain.AccessScope
	entries  map[string]vectorEntry
	searches []string

	// PutFn, when set, runs before each Put and can fail it
	PutFn func(chunk *domain.Chunk) error
	// SearchFn, when set, replaces Search
	SearchFn func(embedding []float32, k int) ([]*domain.SearchHit, error)
}

// NewMockVectorStore creates an empty store for scope
func NewMockVectorStore(scope domain.AccessScope) *MockVectorStore {
	return &MockVectorStore{
		scope:   scope,
		entries: make(map[string]vectorEntry),
	}
}

func (m *MockVectorStore) Scope() domain.AccessScope {
	return m.scope
}

func (m *MockVectorStore) Put(ctx context.Context, chunk *domain.Chunk, embedding []float32) error {
	if m.PutFn != nil {
		if err := m.PutFn(chunk); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[chunk.ID] = vectorEntry{chunk: *chunk, embedding: append([]float32(nil), embedding...)}
	return nil
}

func (m *MockVectorStore) Search(ctx context.Context, embedding []float32, k int) ([]*domain.SearchHit, error) {
	m.mu.Lock()
	m.searches = append(m.searches, string(m.scope))
	m.mu.Unlock()

	if m.SearchFn != nil {
		return m.SearchFn(embedding, k)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	hits := make([]*domain.SearchHit, 0, len(m.entries))
	for _, e := range m.entries {
		c := e.chunk
		hits = append(hits, &domain.SearchHit{Chunk: &c, Scope: m.scope, Score: cosine(embedding, e.embedding)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	if k >= 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *MockVectorStore) DeleteBySource(ctx context.Context, source string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.entries {
		if e.chunk.Source == source {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

func (m *MockVectorStore) Delete(ctx context.Context, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := m.entries[id]; ok {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

func (m *MockVectorStore) DeleteStale(ctx context.Context, source string, keep []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.entries {
		if e.chunk.Source == source && !slices.Contains(keep, id) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

func (m *MockVectorStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *MockVectorStore) Ping(ctx context.Context) error {
	return nil
}

// IDs returns the stored chunk IDs
func (m *MockVectorStore) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SearchCount returns how many searches hit this store
func (m *MockVectorStore) SearchCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.searches)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
