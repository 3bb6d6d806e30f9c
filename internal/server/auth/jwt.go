// Package auth implements session-token issuance/validation and the tiered
// authorization policy evaluated by the HTTP access gate.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/roadsvr/backend/internal/server/apperr"
)

// Principal is the authenticated identity decoded from a session token.
// It is reconstructed on every request and never persisted.
type Principal struct {
	UserID int64
	Level  int
}

// TokenValidity is how long tokens minted on login, registration and
// refresh stay valid.
const TokenValidity = 240 * time.Hour

// Claims carries the principal inside the signed token.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
	Level  int   `json:"level"`
}

// IssueToken signs an HS256 token for p. A zero ttl produces a token with
// no expiry; only trusted internal flows may rely on that, public paths
// always pass TokenValidity.
func IssueToken(p Principal, secretKey []byte, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		UserID: p.UserID,
		Level:  p.Level,
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// ValidateToken verifies the signature and, when present, the expiry.
// Every failure mode collapses into apperr.ErrInvalidToken so callers
// cannot tell a bad signature from an expired or not-yet-valid token.
func ValidateToken(tokenString string, secretKey []byte) (Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Principal{}, apperr.ErrInvalidToken
	}

	return Principal{UserID: claims.UserID, Level: claims.Level}, nil
}
