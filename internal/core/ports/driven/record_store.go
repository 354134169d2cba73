package driven

import (
	"context"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
)

// RecordStore handles durable persistence of annotated passages
// (Badger, Redis or PostgreSQL). Records are keyed by domain.RecordKey.
type RecordStore interface {
	// Get retrieves the record of a document.
	// Returns domain.ErrNotFound if nothing was persisted.
	Get(ctx context.Context, documentID string) (*domain.PersistedRecord, error)

	// Put writes a record. A stored record with a newer LastModified is kept
	// and domain.ErrStaleWrite is returned.
	Put(ctx context.Context, documentID string, rec *domain.PersistedRecord) error

	// Delete removes the record of a document. Missing records are not an error.
	Delete(ctx context.Context, documentID string) error

	// DeleteAll removes every annotation record and returns how many were removed
	DeleteAll(ctx context.Context) (int, error)

	// List returns the document IDs with a record, sorted
	List(ctx context.Context) ([]string, error)

	// Ping checks if the backend is healthy
	Ping(ctx context.Context) error
}
