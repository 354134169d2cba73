package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
)

// RecoveryStore holds the short-lived crash-recovery mirror of a session
// (Redis with TTL, or process memory)
type RecoveryStore interface {
	// Save stores the snapshot of a session for ttl
	Save(ctx context.Context, snapshot *domain.RecoverySnapshot, ttl time.Duration) error

	// Load retrieves the snapshot of a session.
	// Returns domain.ErrNotFound if none exists or it expired.
	Load(ctx context.Context, sessionID string) (*domain.RecoverySnapshot, error)

	// Delete removes the snapshot of a session
	Delete(ctx context.Context, sessionID string) error

	// Ping checks if the backend is healthy
	Ping(ctx context.Context) error
}
