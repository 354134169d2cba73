package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore implements driven.RecordStore on BadgerDB.
// Records are JSON values under domain.RecordKey. The database is embedded,
// so Puts are serialised in process and never hit transaction conflicts.
type RecordStore struct {
	db *DB
	mu sync.Mutex
}

// NewRecordStore creates a new Badger-backed RecordStore
func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{db: db}
}

// Get retrieves the record of a document
func (s *RecordStore) Get(ctx context.Context, documentID string) (*domain.PersistedRecord, error) {
	var rec *domain.PersistedRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = readRecord(txn, documentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func readRecord(txn *badger.Txn, documentID string) (*domain.PersistedRecord, error) {
	item, err := txn.Get([]byte(domain.RecordKey(documentID)))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var rec domain.PersistedRecord
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", documentID, err)
	}
	return &rec, nil
}

// Put stores a record. A record older than the stored one is refused with
// domain.ErrStaleWrite.
func (s *RecordStore) Put(ctx context.Context, documentID string, rec *domain.PersistedRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.Update(func(txn *badger.Txn) error {
		existing, err := readRecord(txn, documentID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return err
		case existing.LastModified > rec.LastModified:
			return domain.ErrStaleWrite
		}
		return txn.Set([]byte(domain.RecordKey(documentID)), data)
	})
	if err != nil && !errors.Is(err, domain.ErrStaleWrite) {
		return fmt.Errorf("failed to put record: %w", err)
	}
	return err
}

// Delete removes the record of a document
func (s *RecordStore) Delete(ctx context.Context, documentID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(domain.RecordKey(documentID)))
	})
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// DeleteAll removes every record and returns how many were removed
func (s *RecordStore) DeleteAll(ctx context.Context) (int, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, id := range ids {
		if err := wb.Delete([]byte(domain.RecordKey(id))); err != nil {
			return 0, fmt.Errorf("failed to delete records: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	return len(ids), nil
}

// List returns the document IDs with a record, sorted
func (s *RecordStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(domain.RecordKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, strings.TrimPrefix(key, domain.RecordKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Ping reports whether the database is open
func (s *RecordStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database closed")
	}
	return nil
}
