package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/fullstackverse/form-gateway/internal/domain"
)

// MemoryKVStore is an in-memory implementation of domain.KVStore for testing.
type MemoryKVStore struct {
	mu      sync.Mutex
	Values  map[string]string
	GetErr  error
	SetErr  error
	GetHits int
	SetHits int
}

func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{Values: make(map[string]string)}
}

func (m *MemoryKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetHits++
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	v, ok := m.Values[key]
	return v, ok, nil
}

func (m *MemoryKVStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetHits++
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Values[key] = value
	return nil
}

// MemoryLocker is a single-process implementation of domain.Locker backed by
// one global semaphore; tests never need per-name granularity.
type MemoryLocker struct {
	AcquireErr error
	once       sync.Once
	sem        chan struct{}
}

func (m *MemoryLocker) init() {
	m.sem = make(chan struct{}, 1)
}

func (m *MemoryLocker) Acquire(ctx context.Context, name string, wait time.Duration) (func(), error) {
	m.once.Do(m.init)
	if m.AcquireErr != nil {
		return nil, m.AcquireErr
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case m.sem <- struct{}{}:
		return func() { <-m.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, domain.ErrLockTimeout
	}
}

// MockSubmissionStore records appended rows for assertions in tests.
type MockSubmissionStore struct {
	mu        sync.Mutex
	Rows      []domain.StoredRow
	AppendErr error
}

func (m *MockSubmissionStore) AppendRow(ctx context.Context, row domain.StoredRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.Rows = append(m.Rows, row)
	return nil
}
