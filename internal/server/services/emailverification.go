package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/reactivities/identity/internal/common"
	"github.com/reactivities/identity/internal/cryptox"
	"github.com/reactivities/identity/internal/dbx"
	"github.com/reactivities/identity/internal/server/models"
	"github.com/reactivities/identity/internal/server/repositories/repomanager"
)

// emailTokenBytes is the entropy of a raw email token before hex encoding.
const emailTokenBytes = 32

// EmailVerificationService issues and redeems one-time email confirmation
// tokens. Only a hash of each raw token is stored. Requesting a new token
// leaves earlier ones valid until they expire.
type EmailVerificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validity    time.Duration
	purpose     string
	now         func() time.Time
}

func NewEmailVerificationService(db *sql.DB, m repomanager.RepositoryManager, validity time.Duration) *EmailVerificationService {
	return &EmailVerificationService{
		db:          db,
		repomanager: m,
		validity:    validity,
		purpose:     models.PurposeConfirmEmail,
		now:         time.Now,
	}
}

// Generate stores a new confirmation token for user and returns it encoded
// for use in a URL.
func (s *EmailVerificationService) Generate(ctx context.Context, user *models.User) (string, error) {
	raw, err := common.MakeRandHexString(emailTokenBytes)
	if err != nil {
		return "", fmt.Errorf("error generating email token: %w", err)
	}

	_, err = s.repomanager.EmailTokens(s.db).Create(ctx, &models.EmailToken{
		UserID:    user.ID,
		Purpose:   s.purpose,
		TokenHash: cryptox.HashToken(raw),
		Expires:   s.now().Add(s.validity),
	})
	if err != nil {
		return "", fmt.Errorf("error storing email token: %w", err)
	}
	return s.Encode(raw), nil
}

// Encode returns raw in unpadded base64url.
func (s *EmailVerificationService) Encode(raw string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode reverses Encode. Padded input is accepted. Anything that does not
// decode to non-empty UTF-8 is common.ErrInvalidToken.
func (s *EmailVerificationService) Decode(encoded string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil || len(b) == 0 || !utf8.Valid(b) {
		return "", common.ErrInvalidToken
	}
	return string(b), nil
}

// Redeem consumes raw for user and marks the email confirmed in one
// transaction. Unknown, expired, already consumed or foreign tokens yield
// common.ErrInvalidToken and leave the user untouched.
func (s *EmailVerificationService) Redeem(ctx context.Context, user *models.User, raw string) error {
	if raw == "" {
		return common.ErrInvalidToken
	}
	hash := cryptox.HashToken(raw)
	now := s.now()

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.EmailTokens(tx).Consume(ctx, user.ID, s.purpose, hash, now); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error consuming email token: %w", err)
		}
		if err := s.repomanager.Users(tx).SetEmailConfirmed(ctx, user.ID); err != nil {
			return fmt.Errorf("error confirming email: %w", err)
		}
		return nil
	})
}
