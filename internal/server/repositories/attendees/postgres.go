package attendees

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/reactivities/identity/internal/common"
	"github.com/reactivities/identity/internal/dbx"
	"github.com/reactivities/identity/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Find(ctx context.Context, userID, activityID string) (*models.ActivityAttendee, error) {
	query := `
		SELECT user_id, activity_id, is_host
		FROM activity_attendees
		WHERE user_id = $1 AND activity_id = $2
	`
	a := &models.ActivityAttendee{}
	if err := r.db.QueryRowContext(ctx, query, userID, activityID).
		Scan(&a.UserID, &a.ActivityID, &a.IsHost); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}
