package mocks

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*MockDocumentStore)(nil)

// MockDocumentStore is a mock implementation of DocumentStore for testing
type MockDocumentStore struct {
	mu        sync.RWMutex
	documents map[int64]*domain.Document
	nextID    int64

	// CreateFn overrides Create when set
	CreateFn func(doc *domain.Document) error
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		documents: make(map[int64]*domain.Document),
	}
}

func (m *MockDocumentStore) Create(ctx context.Context, doc *domain.Document) error {
	if m.CreateFn != nil {
		if err := m.CreateFn(doc); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.originalPathTaken(doc.OriginalPath) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateSource, doc.OriginalPath)
	}
	m.nextID++
	doc.ID = m.nextID
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	stored := *doc
	m.documents[doc.ID] = &stored
	return nil
}

func (m *MockDocumentStore) Get(ctx context.Context, id int64) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *doc
	return &c, nil
}

func (m *MockDocumentStore) find(match func(*domain.Document) bool) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, doc := range m.documents {
		if match(doc) {
			c := *doc
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockDocumentStore) GetByOriginalPath(ctx context.Context, originalPath string) (*domain.Document, error) {
	return m.find(func(d *domain.Document) bool { return d.OriginalPath == originalPath })
}

func (m *MockDocumentStore) GetByDocPath(ctx context.Context, docPath string) (*domain.Document, error) {
	return m.find(func(d *domain.Document) bool { return d.DocPath == docPath })
}

func (m *MockDocumentStore) List(ctx context.Context, query domain.DocumentListQuery) ([]*domain.Document, int, error) {
	if err := query.Normalize(); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	var matched []*domain.Document
	filter := strings.ToLower(query.Filter)
	for _, doc := range m.documents {
		if query.Type != "all" && string(doc.Scope) != query.Type {
			continue
		}
		if filter != "" &&
			!strings.Contains(strings.ToLower(doc.OriginalPath), filter) &&
			!strings.Contains(strings.ToLower(doc.DocPath), filter) &&
			strconv.FormatInt(doc.ID, 10) != filter {
			continue
		}
		c := *doc
		matched = append(matched, &c)
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		less := matched[i].ID < matched[j].ID
		if query.OrderBy == "original_path" {
			less = matched[i].OriginalPath < matched[j].OriginalPath
		}
		if query.OrderDirection == "desc" {
			return !less
		}
		return less
	})

	total := len(matched)
	start := query.Offset()
	if start > total {
		start = total
	}
	end := start + query.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *MockDocumentStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.documents, id)
	return nil
}

// MarkProcessed applies the path change only when commit succeeds, the same
// all-or-nothing outcome a database transaction gives. A record already at
// newPath wins and the one at oldPath is dropped.
func (m *MockDocumentStore) MarkProcessed(ctx context.Context, oldPath, newPath string, scope domain.AccessScope, commit func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var target, replaced *domain.Document
	for _, doc := range m.documents {
		switch doc.DocPath {
		case oldPath:
			target = doc
		case newPath:
			replaced = doc
		}
	}

	switch {
	case replaced != nil:
		if err := commit(); err != nil {
			return err
		}
		if target != nil {
			delete(m.documents, target.ID)
		}
		return nil
	case target != nil:
		if err := commit(); err != nil {
			return err
		}
		target.DocPath = newPath
		return nil
	case m.originalPathTaken(oldPath):
		return fmt.Errorf("%w: %s", domain.ErrDuplicateSource, oldPath)
	}

	if err := commit(); err != nil {
		return err
	}
	m.nextID++
	m.documents[m.nextID] = &domain.Document{
		ID:           m.nextID,
		OriginalPath: oldPath,
		DocPath:      newPath,
		Scope:        scope,
		CreatedAt:    time.Now(),
	}
	return nil
}

func (m *MockDocumentStore) originalPathTaken(originalPath string) bool {
	for _, doc := range m.documents {
		if doc.OriginalPath == originalPath {
			return true
		}
	}
	return false
}

// Count returns the number of stored records
func (m *MockDocumentStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents)
}
