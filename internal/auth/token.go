package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSecretRequired  = errors.New("jwt secret is required")
	ErrSubjectRequired = errors.New("subject is required")
)

// MintToken signs an HS256 token for subject that expires ttl after now.
func MintToken(secret, subject string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", ErrSecretRequired
	}
	if subject == "" {
		return "", ErrSubjectRequired
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive, got: %v", ttl)
	}

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token minted with secret and returns its claims.
func ParseToken(secret, token string) (*jwt.RegisteredClaims, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}
