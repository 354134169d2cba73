package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driven"
)

var _ driven.RecordStore = (*MockRecordStore)(nil)

// MockRecordStore is a mock implementation of RecordStore for testing.
// It applies the same last-writer-wins rule as the real adapters.
type MockRecordStore struct {
	mu      sync.RWMutex
	records map[string]*domain.PersistedRecord

	// PutErr, when set, is returned by Put for the given document ID
	PutErr map[string]error
	// GetErr, when set, is returned by every Get
	GetErr error
	// Puts counts successful writes per document ID
	Puts map[string]int
}

// NewMockRecordStore creates a new MockRecordStore
func NewMockRecordStore() *MockRecordStore {
	return &MockRecordStore{
		records: make(map[string]*domain.PersistedRecord),
		PutErr:  make(map[string]error),
		Puts:    make(map[string]int),
	}
}

func (m *MockRecordStore) Get(ctx context.Context, documentID string) (*domain.PersistedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	rec, ok := m.records[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	cp.Paragraphs = append([]string{}, rec.Paragraphs...)
	return &cp, nil
}

func (m *MockRecordStore) Put(ctx context.Context, documentID string, rec *domain.PersistedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.PutErr[documentID]; err != nil {
		return err
	}
	if existing, ok := m.records[documentID]; ok && existing.LastModified > rec.LastModified {
		return domain.ErrStaleWrite
	}
	cp := *rec
	cp.Paragraphs = append([]string{}, rec.Paragraphs...)
	m.records[documentID] = &cp
	m.Puts[documentID]++
	return nil
}

func (m *MockRecordStore) Delete(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, documentID)
	return nil
}

func (m *MockRecordStore) DeleteAll(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.records)
	m.records = make(map[string]*domain.PersistedRecord)
	return n, nil
}

func (m *MockRecordStore) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MockRecordStore) Ping(ctx context.Context) error {
	return nil
}

// Seed stores a record directly (for test setup)
func (m *MockRecordStore) Seed(documentID string, rec *domain.PersistedRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[documentID] = rec
}
