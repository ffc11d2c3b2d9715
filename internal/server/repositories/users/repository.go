// Package users declares the user-record store consumed by the account
// services and provides its PostgreSQL implementation.
package users

import (
	"context"

	"github.com/reactivities/identity/internal/server/models"
)

// Repository is the user-record store. Lookups return common.ErrorNotFound
// when no user matches. Email and username comparisons are case-insensitive.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UserNameExists(ctx context.Context, userName string) (bool, error)
	// SetEmailConfirmed marks the user's email as confirmed.
	SetEmailConfirmed(ctx context.Context, id string) error
}
