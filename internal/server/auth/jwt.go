// Package auth signs and verifies the short-lived access tokens handed to
// clients after login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/reactivities/identity/internal/common"
	"github.com/reactivities/identity/internal/server/models"
)

// MinKeyLength is the smallest accepted HS512 key, in bytes.
const MinKeyLength = 64

// ErrWeakKey is returned by NewSigner for a missing or short key.
var ErrWeakKey = errors.New("signing key must be at least 64 bytes")

// Claims is the access token payload. Subject duplicates UserID.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"nameid"`
	UserName string `json:"unique_name"`
	Email    string `json:"email"`
}

// Clock returns the current time.
type Clock func() time.Time

// Signer creates and verifies HS512 access tokens with a fixed validity
// window and no clock skew tolerance.
type Signer struct {
	key      []byte
	validity time.Duration
	now      Clock
}

// NewSigner returns a Signer using key. Startup should treat an error as fatal.
func NewSigner(key []byte, validity time.Duration) (*Signer, error) {
	if len(key) < MinKeyLength {
		return nil, ErrWeakKey
	}
	if validity <= 0 {
		return nil, fmt.Errorf("invalid token validity %s", validity)
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Signer{key: k, validity: validity, now: time.Now}, nil
}

// WithClock replaces the time source. Intended for tests.
func (s *Signer) WithClock(c Clock) *Signer {
	s.now = c
	return s
}

// CreateAccessToken signs a token for user that expires after the validity window.
func (s *Signer) CreateAccessToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		UserID:   user.ID,
		UserName: user.UserName,
		Email:    user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenString and returns its claims. Expired tokens yield
// common.ErrTokenExpired, everything else common.ErrInvalidToken.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithLeeway(0),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.IssuedAt == nil || claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
