package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// decodes token claims without verifying the signature. the remote API owns
// the signing key; claims are only read to learn identity and expiry early.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}

	return claims, nil
}

// reports whether token is a JWT whose exp is at or before now.
// opaque tokens are never considered expired locally.
func TokenExpired(token string, now time.Time) bool {
	claims, err := ParseClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}

	return !now.Before(claims.ExpiresAt.Time)
}
