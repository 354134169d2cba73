package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RecoveryStore = (*RecoveryStore)(nil)

const recoveryPrefix = "passage-highlights:recovery:"

// RecoveryStore implements driven.RecoveryStore using Redis.
// Snapshots use Redis TTL for automatic expiration.
type RecoveryStore struct {
	client *redis.Client
}

// NewRecoveryStore creates a new Redis-backed RecoveryStore
func NewRecoveryStore(client *redis.Client) *RecoveryStore {
	return &RecoveryStore{client: client}
}

// Save stores the snapshot of a session, replacing any previous one
func (s *RecoveryStore) Save(ctx context.Context, snapshot *domain.RecoverySnapshot, ttl time.Duration) error {
	if snapshot.SessionID == "" {
		return domain.ErrInvalidInput
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal recovery snapshot: %w", err)
	}
	if err := s.client.Set(ctx, recoveryPrefix+snapshot.SessionID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save recovery snapshot: %w", err)
	}
	return nil
}

// Load retrieves the snapshot of a session
func (s *RecoveryStore) Load(ctx context.Context, sessionID string) (*domain.RecoverySnapshot, error) {
	data, err := s.client.Get(ctx, recoveryPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recovery snapshot: %w", err)
	}

	var snapshot domain.RecoverySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recovery snapshot: %w", err)
	}
	return &snapshot, nil
}

// Delete removes the snapshot of a session
func (s *RecoveryStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, recoveryPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete recovery snapshot: %w", err)
	}
	return nil
}

// Ping checks if the Redis backend is healthy.
func (s *RecoveryStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
