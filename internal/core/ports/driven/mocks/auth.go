package mocks

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driven"
)

// Ensure MockSessionTokenAdapter implements SessionTokenAdapter
var _ driven.SessionTokenAdapter = (*MockSessionTokenAdapter)(nil)

// MockSessionTokenAdapter is a mock implementation of SessionTokenAdapter.
// Tokens are base64-encoded JSON claims. NOT secure - only for testing.
type MockSessionTokenAdapter struct{}

// NewMockSessionTokenAdapter creates a new MockSessionTokenAdapter
func NewMockSessionTokenAdapter() *MockSessionTokenAdapter {
	return &MockSessionTokenAdapter{}
}

// GenerateToken creates a base64-encoded JSON token from claims
func (m *MockSessionTokenAdapter) GenerateToken(claims *domain.SessionClaims) (string, error) {
	data, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ParseToken decodes a base64-encoded JSON token and returns claims
func (m *MockSessionTokenAdapter) ParseToken(token string) (*domain.SessionClaims, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	var claims domain.SessionClaims
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, domain.ErrTokenInvalid
	}
	return &claims, nil
}
