package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var (
	_ driven.EmployeeStore = (*MockEmployeeStore)(nil)
	_ driven.AddressStore  = (*MockAddressStore)(nil)
)

// MockEmployeeStore is a mock implementation of EmployeeStore for testing
type MockEmployeeStore struct {
	mu        sync.RWMutex
	employees map[int64]*domain.Employee
	nextID    int64
}

// NewMockEmployeeStore creates a new MockEmployeeStore
func NewMockEmployeeStore() *MockEmployeeStore {
	return &MockEmployeeStore{employees: make(map[int64]*domain.Employee)}
}

func (m *MockEmployeeStore) Create(ctx context.Context, e *domain.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.employees {
		if strings.EqualFold(existing.Email, e.Email) {
			return domain.ErrAlreadyExists
		}
	}
	m.nextID++
	e.ID = m.nextID
	e.CreatedAt = time.Now()
	c := *e
	m.employees[e.ID] = &c
	return nil
}

func (m *MockEmployeeStore) Get(ctx context.Context, id int64) (*domain.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *e
	return &c, nil
}

func (m *MockEmployeeStore) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.employees {
		if strings.EqualFold(e.Email, email) {
			c := *e
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockEmployeeStore) List(ctx context.Context, query domain.EmployeeListQuery) ([]*domain.Employee, int, error) {
	query.Normalize()
	m.mu.RLock()
	var matched []*domain.Employee
	filter := strings.ToLower(query.Filter)
	for _, e := range m.employees {
		if filter != "" && !strings.Contains(strings.ToLower(e.Name), filter) &&
			!strings.Contains(strings.ToLower(e.Email), filter) {
			continue
		}
		c := *e
		matched = append(matched, &c)
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := len(matched)
	start := (query.Page - 1) * query.Limit
	if start > total {
		start = total
	}
	end := start + query.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *MockEmployeeStore) Update(ctx context.Context, e *domain.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[e.ID]; !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	e.UpdatedAt = &now
	c := *e
	m.employees[e.ID] = &c
	return nil
}

func (m *MockEmployeeStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.employees, id)
	return nil
}

// MockAddressStore is a mock implementation of AddressStore for testing
type MockAddressStore struct {
	mu        sync.RWMutex
	addresses map[int64]*domain.EmployeeAddress
	nextID    int64
}

// NewMockAddressStore creates a new MockAddressStore
func NewMockAddressStore() *MockAddressStore {
	return &MockAddressStore{addresses: make(map[int64]*domain.EmployeeAddress)}
}

func (m *MockAddressStore) Create(ctx context.Context, a *domain.EmployeeAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.IsDefault {
		for _, existing := range m.addresses {
			if existing.EmployeeID == a.EmployeeID {
				existing.IsDefault = false
			}
		}
	}
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = time.Now()
	c := *a
	m.addresses[a.ID] = &c
	return nil
}

func (m *MockAddressStore) Get(ctx context.Context, id int64) (*domain.EmployeeAddress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.addresses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (m *MockAddressStore) ListByEmployee(ctx context.Context, employeeID int64) ([]*domain.EmployeeAddress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*domain.EmployeeAddress{}
	for _, a := range m.addresses {
		if a.EmployeeID == employeeID {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MockAddressStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.addresses[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.addresses, id)
	return nil
}
