package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/passage-highlights/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*LeaseLock)(nil)

// LeaseLock implements DistributedLock with rows of the session_leases table.
// Unlike advisory locks, leases are not bound to a pooled connection: they
// carry an owner and an expiry, and a lapsed lease can be taken over.
//
// For deployments that already run Redis, the Redis lock is cheaper.
type LeaseLock struct {
	db      *DB
	ownerID string
}

// NewLeaseLock creates a new PostgreSQL lease adapter.
func NewLeaseLock(db *DB) *LeaseLock {
	hostname, _ := os.Hostname()
	randomBytes := make([]byte, 8)
	_, _ = rand.Read(randomBytes)
	return &LeaseLock{
		db:      db,
		ownerID: fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), hex.EncodeToString(randomBytes)),
	}
}

// Acquire takes the named lease if it is free, lapsed or already ours.
func (l *LeaseLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	query := `
		INSERT INTO session_leases (name, owner, expires_at)
		VALUES ($1, $2, NOW() + $3 * INTERVAL '1 millisecond')
		ON CONFLICT (name) DO UPDATE SET
			owner = EXCLUDED.owner,
			expires_at = EXCLUDED.expires_at
		WHERE session_leases.owner = EXCLUDED.owner OR session_leases.expires_at < NOW()
	`

	result, err := l.db.ExecContext(ctx, query, name, l.ownerID, ttl.Milliseconds())
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return rows == 1, nil
}

// Release drops the named lease if held by this instance.
// Safe to call even if the lease is not held.
func (l *LeaseLock) Release(ctx context.Context, name string) error {
	_, err := l.db.ExecContext(ctx, "DELETE FROM session_leases WHERE name = $1 AND owner = $2", name, l.ownerID)
	if err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// Extend pushes back the expiry of a lease held by this instance.
func (l *LeaseLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	query := `
		UPDATE session_leases
		SET expires_at = NOW() + $3 * INTERVAL '1 millisecond'
		WHERE name = $1 AND owner = $2 AND expires_at >= NOW()
	`

	result, err := l.db.ExecContext(ctx, query, name, l.ownerID, ttl.Milliseconds())
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if rows == 0 {
		return fmt.Errorf("lock %s not held by this instance", name)
	}
	return nil
}

// Ping checks if the PostgreSQL backend is healthy.
func (l *LeaseLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
