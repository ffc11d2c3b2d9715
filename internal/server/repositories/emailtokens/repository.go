// Package emailtokens stores hashed one-time email tokens.
package emailtokens

import (
	"context"
	"time"

	"github.com/reactivities/identity/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.EmailToken) (*models.EmailToken, error)
	// Consume marks the matching token consumed at now. It returns
	// common.ErrorNotFound unless exactly one unconsumed, unexpired token of
	// the given purpose and hash belongs to userID.
	Consume(ctx context.Context, userID, purpose string, tokenHash []byte, now time.Time) error
}
