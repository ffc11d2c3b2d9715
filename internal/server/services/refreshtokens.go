package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/reactivities/identity/internal/common"
	"github.com/reactivities/identity/internal/server/models"
	"github.com/reactivities/identity/internal/server/repositories/repomanager"
)

// refreshTokenBytes is the entropy of a refresh token before encoding.
const refreshTokenBytes = 32

// RefreshTokenService manages a user's refresh tokens. A token moves from
// active to revoked (recorded) or to expired (computed); neither state is
// ever left again.
type RefreshTokenService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validity    time.Duration
	now         func() time.Time
}

func NewRefreshTokenService(db *sql.DB, m repomanager.RepositoryManager, validity time.Duration) *RefreshTokenService {
	return &RefreshTokenService{db: db, repomanager: m, validity: validity, now: time.Now}
}

// Issue creates and stores a new refresh token for user.
func (s *RefreshTokenService) Issue(ctx context.Context, user *models.User) (*models.RefreshToken, error) {
	value, err := common.MakeRandURLString(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}

	token := &models.RefreshToken{
		UserID:  user.ID,
		Token:   value,
		Expires: s.now().Add(s.validity),
	}
	created, err := s.repomanager.RefreshTokens(s.db).Create(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}
	return created, nil
}

// Rotate retires the presented token. A value never issued to user is a
// no-op. A known but inactive value is a replay and fails with
// ErrorUnauthorized, as does losing a concurrent rotation of the same value.
func (s *RefreshTokenService) Rotate(ctx context.Context, user *models.User, presented string) error {
	token, err := s.find(ctx, user, presented)
	if err != nil || token == nil {
		return err
	}

	now := s.now()
	if !token.IsActive(now) {
		return common.ErrorUnauthorized
	}

	if err := s.repomanager.RefreshTokens(s.db).Revoke(ctx, token.ID, now); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return common.ErrorUnauthorized
		}
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	return nil
}

// Revoke retires the presented token on logout. Unknown and already
// inactive values are accepted silently.
func (s *RefreshTokenService) Revoke(ctx context.Context, user *models.User, presented string) error {
	token, err := s.find(ctx, user, presented)
	if err != nil || token == nil {
		return err
	}

	now := s.now()
	if !token.IsActive(now) {
		return nil
	}

	err = s.repomanager.RefreshTokens(s.db).Revoke(ctx, token.ID, now)
	if err != nil && !errors.Is(err, common.ErrVersionConflict) {
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	return nil
}

// find returns nil, nil when the user holds no token with that value.
func (s *RefreshTokenService) find(ctx context.Context, user *models.User, presented string) (*models.RefreshToken, error) {
	if presented == "" {
		return nil, nil
	}
	token, err := s.repomanager.RefreshTokens(s.db).FindForUser(ctx, user.ID, presented)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	return token, nil
}
