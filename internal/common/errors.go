// Package common defines shared constants, sentinel errors and error types
// used across the identity server. Callers should use errors.Is / errors.As
// to match these values.
package common

import (
	"errors"
	"sort"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrVersionConflict = errors.New("version conflict")

	// Auth errors (invalid, malformed or already redeemed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)

// AuthError is an unauthorized outcome with a human readable reason that is
// safe to return to the caller ("Invalid email", "Email not confirmed", ...).
// It matches ErrorUnauthorized under errors.Is.
type AuthError struct {
	Reason string
}

// NewAuthError returns an AuthError with the given reason.
func NewAuthError(reason string) *AuthError {
	return &AuthError{Reason: reason}
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return ErrorUnauthorized.Error()
	}
	return ErrorUnauthorized.Error() + ": " + e.Reason
}

func (e *AuthError) Unwrap() error { return ErrorUnauthorized }

// ValidationError collects field-level validation failures. Fields maps a
// field name (e.g. "email") to one or more messages.
type ValidationError struct {
	Fields map[string][]string
}

// Add records msg for field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// HasErrors reports whether any field error was recorded.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation error: " + strings.Join(parts, "; ")
}
