package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*MockDistributedLock)(nil)

// MockDistributedLock is an in-memory lock with expiry. Every instance is a
// separate owner, so a test can hold a lock "elsewhere" with HoldElsewhere.
type MockDistributedLock struct {
	mu       sync.Mutex
	expiry   map[string]time.Time
	acquires map[string]int
	extends  map[string]int

	AcquireFn func(name string, ttl time.Duration) (bool, error)
	ExtendFn  func(name string, ttl time.Duration) error
}

// NewMockDistributedLock creates an empty lock table
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{
		expiry:   make(map[string]time.Time),
		acquires: make(map[string]int),
		extends:  make(map[string]int),
	}
}

func (m *MockDistributedLock) held(name string) bool {
	exp, ok := m.expiry[name]
	return ok && time.Now().Before(exp)
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(name, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held(name) {
		return false, nil
	}
	m.expiry[name] = time.Now().Add(ttl)
	m.acquires[name]++
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.expiry, name)
	return nil
}

func (m *MockDistributedLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extends[name]++
	if m.ExtendFn != nil {
		return m.ExtendFn(name, ttl)
	}
	if !m.held(name) {
		return fmt.Errorf("lock %s not held", name)
	}
	m.expiry[name] = time.Now().Add(ttl)
	return nil
}

func (m *MockDistributedLock) Ping(ctx context.Context) error { return nil }

// HoldElsewhere marks name as held by another owner for ttl
func (m *MockDistributedLock) HoldElsewhere(name string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expiry[name] = time.Now().Add(ttl)
}

// IsHeld reports whether name is currently held by anyone
func (m *MockDistributedLock) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held(name)
}

// Acquires returns how many times name was taken successfully
func (m *MockDistributedLock) Acquires(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquires[name]
}

// Extends returns how many times Extend was called for name
func (m *MockDistributedLock) Extends(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extends[name]
}
