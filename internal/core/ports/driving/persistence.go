package driving

import (
	"context"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
)

// PersistenceService moves annotation state between a session and durable storage
type PersistenceService interface {
	// Commit writes every passage of a session. The returned task may be
	// awaited or ignored.
	Commit(ctx context.Context, sessionID string) (*domain.CommitTask, error)

	// Export returns a deep copy of every passage of a session
	Export(ctx context.Context, sessionID string) (domain.Snapshot, error)

	// Import merges a snapshot into a session and writes the imported records
	Import(ctx context.Context, sessionID string, snapshot domain.Snapshot) (*domain.ImportResult, error)

	// Record returns the durable record of a passage
	Record(ctx context.Context, documentID string) (*domain.PersistedRecord, error)

	// Records lists the passages with a durable record
	Records(ctx context.Context) ([]string, error)

	// ClearRecord deletes the durable record of a passage
	ClearRecord(ctx context.Context, documentID string) error

	// ClearRecords deletes every durable record
	ClearRecords(ctx context.Context) (int, error)

	// Ping checks the durable backend
	Ping(ctx context.Context) error
}
