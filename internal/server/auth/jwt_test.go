package auth

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/reactivities/identity/internal/common"
	"github.com/reactivities/identity/internal/server/models"
)

var testKey = bytes.Repeat([]byte("k"), MinKeyLength)

var alice = &models.User{ID: "3f7c1a52-6f1e-4c1b-9d0f-6f2f0e8a1b11", UserName: "alice", Email: "alice@test.com"}

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

func newTestSigner(t *testing.T, now time.Time) *Signer {
	t.Helper()
	s, err := NewSigner(testKey, 10*time.Minute)
	if err != nil {
		t.Fatalf("NewSigner error: %v", err)
	}
	return s.WithClock(fixedClock(now))
}

func TestNewSigner_RejectsWeakKeys(t *testing.T) {
	t.Parallel()

	for _, key := range [][]byte{nil, []byte("short"), testKey[:MinKeyLength-1]} {
		if _, err := NewSigner(key, time.Minute); !errors.Is(err, ErrWeakKey) {
			t.Fatalf("len %d: want ErrWeakKey, got %v", len(key), err)
		}
	}
	if _, err := NewSigner(testKey, 0); err == nil {
		t.Fatal("expected error for zero validity")
	}
}

func TestCreateAndVerify_Success(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSigner(t, now)

	tok, err := s.CreateAccessToken(alice)
	if err != nil {
		t.Fatalf("CreateAccessToken error: %v", err)
	}

	claims, err := s.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.UserID != alice.ID || claims.Subject != alice.ID {
		t.Fatalf("subject mismatch: %+v", claims)
	}
	if claims.UserName != "alice" || claims.Email != "alice@test.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Time.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("exp = %v, want %v", claims.ExpiresAt.Time, now.Add(10*time.Minute))
	}
	if !claims.IssuedAt.Time.Equal(now) {
		t.Fatalf("iat = %v, want %v", claims.IssuedAt.Time, now)
	}
}

func TestCreateAccessToken_UsesHS512AndWireNames(t *testing.T) {
	t.Parallel()

	s := newTestSigner(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	tok, err := s.CreateAccessToken(alice)
	if err != nil {
		t.Fatalf("CreateAccessToken error: %v", err)
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(tok, jwt.MapClaims{})
	if err != nil {
		t.Fatalf("ParseUnverified error: %v", err)
	}
	if parsed.Method.Alg() != "HS512" {
		t.Fatalf("alg = %s, want HS512", parsed.Method.Alg())
	}
	mc := parsed.Claims.(jwt.MapClaims)
	for _, k := range []string{"nameid", "unique_name", "email", "sub", "iat", "nbf", "exp"} {
		if _, ok := mc[k]; !ok {
			t.Fatalf("claim %q missing in %v", k, mc)
		}
	}
}

func TestVerify_ExpiryIsExact(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSigner(t, issued)
	tok, err := s.CreateAccessToken(alice)
	if err != nil {
		t.Fatalf("CreateAccessToken error: %v", err)
	}

	s.WithClock(fixedClock(issued.Add(10*time.Minute - time.Second)))
	if _, err := s.Verify(tok); err != nil {
		t.Fatalf("one second before expiry: %v", err)
	}

	s.WithClock(fixedClock(issued.Add(10 * time.Minute)))
	if _, err := s.Verify(tok); !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("at expiry: want ErrTokenExpired, got %v", err)
	}

	s.WithClock(fixedClock(issued.Add(10*time.Minute + time.Second)))
	if _, err := s.Verify(tok); !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("after expiry: want ErrTokenExpired, got %v", err)
	}
}

func TestVerify_RejectsOtherKeysAndAlgorithms(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSigner(t, now)

	other, err := NewSigner(bytes.Repeat([]byte("o"), MinKeyLength), 10*time.Minute)
	if err != nil {
		t.Fatalf("NewSigner error: %v", err)
	}
	foreign, _ := other.WithClock(fixedClock(now)).CreateAccessToken(alice)
	if _, err := s.Verify(foreign); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("foreign key: want ErrInvalidToken, got %v", err)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   alice.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		UserID: alice.ID,
	}
	hs256, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	if err != nil {
		t.Fatalf("sign HS256: %v", err)
	}
	if _, err := s.Verify(hs256); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("HS256: want ErrInvalidToken, got %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := s.Verify(none); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("none: want ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Tampered(t *testing.T) {
	t.Parallel()

	s := newTestSigner(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	tok, _ := s.CreateAccessToken(alice)

	parts := strings.Split(tok, ".")
	parts[2] = strings.Repeat("A", len(parts[2]))
	if _, err := s.Verify(strings.Join(parts, ".")); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
	if _, err := s.Verify("garbage"); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestVerify_RequiresIssuedAtAndExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSigner(t, now)

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: alice.ID, IssuedAt: jwt.NewNumericDate(now)},
		UserID:           alice.ID,
	}).SignedString(testKey)
	if _, err := s.Verify(noExp); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("missing exp: want ErrInvalidToken, got %v", err)
	}

	noIat, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: alice.ID, ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		UserID:           alice.ID,
	}).SignedString(testKey)
	if _, err := s.Verify(noIat); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("missing iat: want ErrInvalidToken, got %v", err)
	}

	future, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   alice.ID,
			IssuedAt:  jwt.NewNumericDate(now.Add(time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UserID: alice.ID,
	}).SignedString(testKey)
	if _, err := s.Verify(future); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("iat in future: want ErrInvalidToken, got %v", err)
	}
}
