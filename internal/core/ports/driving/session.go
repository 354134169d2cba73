package driving

import (
	"context"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
)

// SessionService manages test-taking sessions
type SessionService interface {
	// Start opens a new empty session
	Start(ctx context.Context) (*domain.SessionStarted, error)

	// Resume re-attaches to a session, rebuilding it from the recovery
	// mirror when this instance does not hold it
	Resume(ctx context.Context, sessionID string) (*domain.SessionStarted, error)

	// Validate checks a session token and returns the session ID
	Validate(ctx context.Context, token string) (string, error)

	// Get returns a summary of a live session
	Get(ctx context.Context, sessionID string) (*domain.SessionInfo, error)

	// SetSubject records the content type being displayed
	SetSubject(ctx context.Context, sessionID, subject string) (*domain.SessionInfo, error)

	// Reset clears all annotation state ("start new test")
	Reset(ctx context.Context, sessionID string) error

	// End closes a session and drops its recovery mirror
	End(ctx context.Context, sessionID string) error
}
