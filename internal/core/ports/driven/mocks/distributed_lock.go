package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/passage-highlights/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*MockDistributedLock)(nil)

// LeaseTable is the shared state behind one or more MockDistributedLocks.
// Two locks over the same table behave like two instances of the service.
type LeaseTable struct {
	mu     sync.Mutex
	leases map[string]leaseEntry
}

type leaseEntry struct {
	owner  string
	expiry time.Time
}

// NewLeaseTable creates an empty lease table
func NewLeaseTable() *LeaseTable {
	return &LeaseTable{leases: make(map[string]leaseEntry)}
}

// MockDistributedLock is an in-memory DistributedLock for testing.
// Behavior can be overridden with the Fn hooks.
type MockDistributedLock struct {
	table *LeaseTable
	owner string

	AcquireFn func(name string, ttl time.Duration) (bool, error)
	PingFn    func() error
}

// NewMockDistributedLock creates a lock with its own lease table.
func NewMockDistributedLock() *MockDistributedLock {
	return NewMockDistributedLockOn(NewLeaseTable(), "instance-a")
}

// NewMockDistributedLockOn creates a lock for owner over a shared table.
func NewMockDistributedLockOn(table *LeaseTable, owner string) *MockDistributedLock {
	return &MockDistributedLock{table: table, owner: owner}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(name, ttl)
	}

	m.table.mu.Lock()
	defer m.table.mu.Unlock()

	if entry, ok := m.table.leases[name]; ok && time.Now().Before(entry.expiry) && entry.owner != m.owner {
		return false, nil
	}
	m.table.leases[name] = leaseEntry{owner: m.owner, expiry: time.Now().Add(ttl)}
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	m.table.mu.Lock()
	defer m.table.mu.Unlock()

	if entry, ok := m.table.leases[name]; ok && entry.owner == m.owner {
		delete(m.table.leases, name)
	}
	return nil
}

func (m *MockDistributedLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	m.table.mu.Lock()
	defer m.table.mu.Unlock()

	entry, ok := m.table.leases[name]
	if !ok || entry.owner != m.owner || time.Now().After(entry.expiry) {
		return fmt.Errorf("lease %s not held by %s", name, m.owner)
	}
	entry.expiry = time.Now().Add(ttl)
	m.table.leases[name] = entry
	return nil
}

func (m *MockDistributedLock) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

// IsHeld reports whether this lock holds name (for test assertions)
func (m *MockDistributedLock) IsHeld(name string) bool {
	m.table.mu.Lock()
	defer m.table.mu.Unlock()

	entry, ok := m.table.leases[name]
	return ok && entry.owner == m.owner && time.Now().Before(entry.expiry)
}
