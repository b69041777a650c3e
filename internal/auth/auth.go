// Package auth checks the collector's bearer credential: either the shared
// secret itself or an HS256 token signed with it.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Audience is the required "aud" claim of collector tokens.
const Audience = "collector"

var (
	ErrMissingCredential = errors.New("missing bearer credential")
	ErrBadCredential     = errors.New("invalid bearer credential")
	ErrNoSecret          = errors.New("collector secret is not configured")
)

// Verify accepts credential when it equals secret or is a valid collector token signed with it.
func Verify(secret, credential string) error {
	if secret == "" {
		return ErrNoSecret
	}
	if credential == "" {
		return ErrMissingCredential
	}
	if subtle.ConstantTimeCompare([]byte(credential), []byte(secret)) == 1 {
		return nil
	}

	_, err := jwt.Parse(credential,
		func(t *jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadCredential, err)
	}
	return nil
}

// IssueToken signs a collector token for subject valid for ttl.
func IssueToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
