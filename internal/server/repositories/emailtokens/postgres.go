package emailtokens

import (
	"context"
	"fmt"
	"time"

	"github.com/reactivities/identity/internal/common"
	"github.com/reactivities/identity/internal/dbx"
	"github.com/reactivities/identity/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.EmailToken) (*models.EmailToken, error) {
	query := `
		INSERT INTO email_tokens (user_id, purpose, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, token.UserID, token.Purpose, token.TokenHash, token.Expires).
		Scan(&token.ID, &token.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

func (r *PostgresRepository) Consume(ctx context.Context, userID, purpose string, tokenHash []byte, now time.Time) error {
	query := `
		UPDATE email_tokens
		SET consumed_at = $4
		WHERE user_id = $1 AND purpose = $2 AND token_hash = $3
		  AND consumed_at IS NULL AND expires_at > $4
	`
	res, err := r.db.ExecContext(ctx, query, userID, purpose, tokenHash, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("%w: %d email tokens consumed", common.ErrorInternal, n)
	}
}
