// Package security issues and verifies the bearer tokens that
// authenticate API requests.
package security

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smartscan-app/smartscan/internal/pkg/env"
)

const defaultTokenTTL = 24 * time.Hour

// TokenIssuer signs and parses HS256 bearer tokens carrying the user ID
// as subject.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer reads the signing secret from JWT_SECRET.
func NewTokenIssuer() (*TokenIssuer, error) {
	secret := env.GetEnv("JWT_SECRET", "")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	ttl := defaultTokenTTL
	if hours := env.GetEnvInt("JWT_TTL_HOURS", 0); hours > 0 {
		ttl = time.Duration(hours) * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}, nil
}

// GenerateToken mints a signed token for the user.
func (t *TokenIssuer) GenerateToken(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies the signature and expiry and returns the user ID.
func (t *TokenIssuer) ParseToken(tokenString string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token subject %q", claims.Subject)
	}
	return uint(userID), nil
}
