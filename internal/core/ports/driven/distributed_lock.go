package driven

import (
	"context"
	"time"
)

// DistributedLock provides named leases shared across instances.
// A session lease makes sure only one instance serves a session: the owner
// keeps extending it while the session is live, and resuming a session held
// by another instance is refused.
type DistributedLock interface {
	// Acquire attempts to take a named lease for ttl.
	// Returns false if another instance holds it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release drops a lease. Safe to call when the lease is not held or expired.
	Release(ctx context.Context, name string) error

	// Extend pushes back the expiry of a held lease.
	// Returns an error if the lease is not held by this instance.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
