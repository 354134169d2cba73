package domain

import "time"

// SessionClaims is the payload of a session token.
// It identifies a test-taking session; it does not identify a user.
type SessionClaims struct {
	SessionID string `json:"session_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// IsExpired checks if the claims have expired
func (c *SessionClaims) IsExpired(now time.Time) bool {
	return c.ExpiresAt > 0 && now.Unix() >= c.ExpiresAt
}

// SessionStarted is returned when a session is started or resumed
type SessionStarted struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Documents []string  `json:"documents"`
}

// SessionInfo summarises a live session
type SessionInfo struct {
	SessionID      string    `json:"session_id"`
	Subject        string    `json:"subject"`
	ActiveDocument string    `json:"active_document,omitempty"`
	Documents      []string  `json:"documents"`
	Consumers      int       `json:"consumers"`
	CreatedAt      time.Time `json:"created_at"`
}

// CommitResult reports the outcome of a commit of all documents
type CommitResult struct {
	Written []string `json:"written"`
	Stale   []string `json:"stale"`
	Failed  []string `json:"failed"`
}

// OK reports whether every document was written or legitimately skipped
func (r CommitResult) OK() bool {
	return len(r.Failed) == 0
}

// RecoverySnapshot is the crash-recovery mirror of a workspace. It lives in
// short-lived storage and is never the durable record of a document.
type RecoverySnapshot struct {
	SessionID      string            `json:"session_id"`
	Subject        string            `json:"subject"`
	ActiveDocument string            `json:"active_document,omitempty"`
	Consumers      map[string]string `json:"consumers"`
	Documents      Snapshot          `json:"documents"`
	SavedAt        int64             `json:"saved_at"`
}
