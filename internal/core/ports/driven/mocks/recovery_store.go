package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driven"
)

var _ driven.RecoveryStore = (*MockRecoveryStore)(nil)

// MockRecoveryStore is a mock implementation of RecoveryStore for testing.
// TTLs are recorded but not enforced.
type MockRecoveryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.RecoverySnapshot
	TTLs      map[string]time.Duration
	SaveErr   error
}

// NewMockRecoveryStore creates a new MockRecoveryStore
func NewMockRecoveryStore() *MockRecoveryStore {
	return &MockRecoveryStore{
		snapshots: make(map[string]*domain.RecoverySnapshot),
		TTLs:      make(map[string]time.Duration),
	}
}

func (m *MockRecoveryStore) Save(ctx context.Context, snapshot *domain.RecoverySnapshot, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.snapshots[snapshot.SessionID] = snapshot
	m.TTLs[snapshot.SessionID] = ttl
	return nil
}

func (m *MockRecoveryStore) Load(ctx context.Context, sessionID string) (*domain.RecoverySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return snap, nil
}

func (m *MockRecoveryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, sessionID)
	delete(m.TTLs, sessionID)
	return nil
}

func (m *MockRecoveryStore) Ping(ctx context.Context) error {
	return nil
}

// Has reports whether a snapshot is stored for sessionID
func (m *MockRecoveryStore) Has(sessionID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.snapshots[sessionID]
	return ok
}
