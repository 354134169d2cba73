package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RecordStore = (*RecordStore)(nil)

const (
	fieldData         = "data"
	fieldLastModified = "lm"
	scanBatch         = 100
)

// RecordStore implements driven.RecordStore using Redis.
// Each record is a hash under domain.RecordKey holding the JSON record and
// its lastModified; records never expire.
type RecordStore struct {
	client *redis.Client
}

// NewRecordStore creates a new Redis-backed RecordStore
func NewRecordStore(client *redis.Client) *RecordStore {
	return &RecordStore{client: client}
}

// Get retrieves the record of a document
func (s *RecordStore) Get(ctx context.Context, documentID string) (*domain.PersistedRecord, error) {
	data, err := s.client.HGet(ctx, domain.RecordKey(documentID), fieldData).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var rec domain.PersistedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", documentID, err)
	}
	return &rec, nil
}

// putScript writes a record unless the stored one is newer.
var putScript = redis.NewScript(`
	local current = redis.call("hget", KEYS[1], "lm")
	if current and tonumber(current) > tonumber(ARGV[2]) then
		return 0
	end
	redis.call("hset", KEYS[1], "data", ARGV[1], "lm", ARGV[2])
	return 1
`)

// Put stores a record. A record older than the stored one is refused with
// domain.ErrStaleWrite.
func (s *RecordStore) Put(ctx context.Context, documentID string, rec *domain.PersistedRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	written, err := putScript.Run(ctx, s.client, []string{domain.RecordKey(documentID)}, data, rec.LastModified).Int64()
	if err != nil {
		return fmt.Errorf("failed to put record: %w", err)
	}
	if written == 0 {
		return domain.ErrStaleWrite
	}
	return nil
}

// Delete removes the record of a document
func (s *RecordStore) Delete(ctx context.Context, documentID string) error {
	if err := s.client.Del(ctx, domain.RecordKey(documentID)).Err(); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// DeleteAll removes every record and returns how many were removed
func (s *RecordStore) DeleteAll(ctx context.Context) (int, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	return len(keys), nil
}

// List returns the document IDs with a record, sorted
func (s *RecordStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, domain.RecordKeyPrefix))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *RecordStore) keys(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
		seen   = make(map[string]bool)
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, domain.RecordKeyPrefix+"*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan records: %w", err)
		}
		// SCAN may return a key more than once
		for _, key := range batch {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// Ping checks if the Redis backend is healthy.
func (s *RecordStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
