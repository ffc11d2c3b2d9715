package refreshtokens

import (
	"context"
	"time"

	"github.com/reactivities/identity/internal/server/models"
)

// Repository persists refresh tokens. Rows are never deleted; revocation is
// recorded in place.
type Repository interface {
	// Create stores token and fills in its ID and CreatedAt.
	Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error)
	// FindForUser returns the token with the given value owned by userID, or
	// common.ErrorNotFound.
	FindForUser(ctx context.Context, userID, token string) (*models.RefreshToken, error)
	// Revoke marks the token revoked at the given instant. It returns
	// common.ErrVersionConflict if the token was already revoked.
	Revoke(ctx context.Context, id string, at time.Time) error
}
