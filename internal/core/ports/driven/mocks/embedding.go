package mocks

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*MockEmbeddingService)(nil)

// ErrMockEmbedding is returned when a mock embedding call is set to fail
var ErrMockEmbedding = errors.New("mock embedding failure")

// MockEmbeddingService hashes words into a fixed number of buckets, so texts
// sharing words land close together and results are deterministic.
type MockEmbeddingService struct {
	mu         sync.Mutex
	dimensions int
	failNext   bool
	calls      int

	// FailOn makes any text containing this substring fail to embed
	FailOn string
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{dimensions: 64}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

func (m *MockEmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failNext {
		m.failNext = false
		return nil, ErrMockEmbedding
	}
	if m.FailOn != "" && strings.Contains(text, m.FailOn) {
		return nil, ErrMockEmbedding
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.vector(text), nil
}

func (m *MockEmbeddingService) vector(text string) []float32 {
	v := make([]float32, m.dimensions)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		v[h.Sum32()%uint32(m.dimensions)]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x * x)
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

func (m *MockEmbeddingService) Dimensions() int {
	return m.dimensions
}

func (m *MockEmbeddingService) Model() string {
	return "mock-embedding-model"
}

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockEmbeddingService) Close() error {
	return nil
}

// SetFailNext makes the next embedding call fail
func (m *MockEmbeddingService) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

// Calls returns how many texts have been embedded
func (m *MockEmbeddingService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
