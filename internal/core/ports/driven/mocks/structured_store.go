package mocks

import (
	"context"
	"sync"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.StructuredStore = (*MockStructuredStore)(nil)

// MockStructuredStore records executed queries and returns Result
type MockStructuredStore struct {
	mu       sync.Mutex
	executed []string

	SchemaText string
	Result     *driven.QueryResult
	QueryFn    func(query string) (*driven.QueryResult, error)
}

// NewMockStructuredStore creates a store with a small employees schema
func NewMockStructuredStore() *MockStructuredStore {
	return &MockStructuredStore{
		SchemaText: "CREATE TABLE employees (id integer, name text, email text, employee_type text)",
		Result:     &driven.QueryResult{Columns: []string{"count"}, Rows: [][]string{{"0"}}},
	}
}

func (m *MockStructuredStore) Schema(ctx context.Context) (string, error) {
	return m.SchemaText, nil
}

func (m *MockStructuredStore) QueryReadOnly(ctx context.Context, query string) (*driven.QueryResult, error) {
	m.mu.Lock()
	m.executed = append(m.executed, query)
	m.mu.Unlock()
	if m.QueryFn != nil {
		return m.QueryFn(query)
	}
	return m.Result, nil
}

// Executed returns every query that reached the store
func (m *MockStructuredStore) Executed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.executed...)
}
