package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore implements driven.RecordStore using PostgreSQL
type RecordStore struct {
	db *DB
}

// NewRecordStore creates a new RecordStore
func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{db: db}
}

// Get retrieves the record of a document
func (s *RecordStore) Get(ctx context.Context, documentID string) (*domain.PersistedRecord, error) {
	query := `
		SELECT annotated, paragraphs, last_modified
		FROM annotation_records
		WHERE document_id = $1
	`

	var rec domain.PersistedRecord
	err := s.db.QueryRowContext(ctx, query, documentID).Scan(
		&rec.Annotated,
		pq.Array(&rec.Paragraphs),
		&rec.LastModified,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	if rec.Paragraphs == nil {
		rec.Paragraphs = []string{}
	}
	return &rec, nil
}

// Put stores a record. The conflict clause keeps a newer stored record, in
// which case no row is affected and domain.ErrStaleWrite is returned.
func (s *RecordStore) Put(ctx context.Context, documentID string, rec *domain.PersistedRecord) error {
	query := `
		INSERT INTO annotation_records (document_id, annotated, paragraphs, last_modified, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (document_id) DO UPDATE SET
			annotated = EXCLUDED.annotated,
			paragraphs = EXCLUDED.paragraphs,
			last_modified = EXCLUDED.last_modified,
			updated_at = NOW()
		WHERE annotation_records.last_modified <= EXCLUDED.last_modified
	`

	paragraphs := rec.Paragraphs
	if paragraphs == nil {
		paragraphs = []string{}
	}
	result, err := s.db.ExecContext(ctx, query,
		documentID,
		rec.Annotated,
		pq.Array(paragraphs),
		rec.LastModified,
	)
	if err != nil {
		return fmt.Errorf("failed to put record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to put record: %w", err)
	}
	if rows == 0 {
		return domain.ErrStaleWrite
	}
	return nil
}

// Delete removes the record of a document
func (s *RecordStore) Delete(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM annotation_records WHERE document_id = $1", documentID)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// DeleteAll removes every record and returns how many were removed
func (s *RecordStore) DeleteAll(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM annotation_records")
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	return int(rows), nil
}

// List returns the document IDs with a record, sorted
func (s *RecordStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT document_id FROM annotation_records ORDER BY document_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan record id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Ping checks if the database is reachable
func (s *RecordStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
