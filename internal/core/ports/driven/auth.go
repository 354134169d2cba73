package driven

import "github.com/custodia-labs/passage-highlights/internal/core/domain"

// SessionTokenAdapter signs and verifies session tokens.
// This does NOT handle storage - live sessions are held in runtime.Sessions.
type SessionTokenAdapter interface {
	GenerateToken(claims *domain.SessionClaims) (string, error)
	ParseToken(token string) (*domain.SessionClaims, error)
}
