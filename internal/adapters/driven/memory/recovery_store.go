// Package memory holds in-process adapters for single-instance deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RecoveryStore = (*RecoveryStore)(nil)

type entry struct {
	snapshot  *domain.RecoverySnapshot
	expiresAt time.Time
}

// RecoveryStore keeps recovery snapshots in process memory.
// It survives session eviction but not a restart.
type RecoveryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewRecoveryStore creates an empty in-memory RecoveryStore
func NewRecoveryStore() *RecoveryStore {
	return &RecoveryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Save stores the snapshot of a session, replacing any previous one.
// Expired snapshots of other sessions are dropped on the way.
func (s *RecoveryStore) Save(ctx context.Context, snapshot *domain.RecoverySnapshot, ttl time.Duration) error {
	if snapshot.SessionID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
		}
	}
	s.entries[snapshot.SessionID] = entry{snapshot: snapshot, expiresAt: now.Add(ttl)}
	return nil
}

// Load retrieves the snapshot of a session
func (s *RecoveryStore) Load(ctx context.Context, sessionID string) (*domain.RecoverySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, sessionID)
		return nil, domain.ErrNotFound
	}
	return e.snapshot, nil
}

// Delete removes the snapshot of a session
func (s *RecoveryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

// Ping always succeeds
func (s *RecoveryStore) Ping(ctx context.Context) error {
	return nil
}
