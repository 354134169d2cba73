package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driven"
)

// Ensure Adapter implements SessionTokenAdapter
var _ driven.SessionTokenAdapter = (*Adapter)(nil)

const issuer = "passage-highlights"

// jwtClaims wraps domain.SessionClaims for JWT compatibility
type jwtClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Adapter signs and verifies session tokens as HS256 JWTs
type Adapter struct {
	jwtSecret []byte
}

// NewAdapter creates a new token adapter with the given JWT secret
func NewAdapter(jwtSecret string) *Adapter {
	return &Adapter{jwtSecret: []byte(jwtSecret)}
}

// GenerateToken creates a signed JWT from domain claims
func (a *Adapter) GenerateToken(claims *domain.SessionClaims) (string, error) {
	jc := jwtClaims{
		SessionID: claims.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   claims.SessionID,
			IssuedAt:  jwt.NewNumericDate(time.Unix(claims.IssuedAt, 0)),
			ExpiresAt: jwt.NewNumericDate(time.Unix(claims.ExpiresAt, 0)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jc)
	return token.SignedString(a.jwtSecret)
}

// ParseToken validates a JWT and extracts domain claims.
// Expired tokens yield domain.ErrTokenExpired, anything else domain.ErrTokenInvalid.
func (a *Adapter) ParseToken(tokenString string) (*domain.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithIssuer(issuer))

	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, domain.ErrTokenExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, domain.ErrTokenInvalid
	}

	out := &domain.SessionClaims{SessionID: claims.SessionID}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return out, nil
}
