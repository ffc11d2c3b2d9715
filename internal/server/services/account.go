// Package services contains server-side business logic: account flows,
// refresh token rotation, email verification and host authorization.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/reactivities/identity/internal/common"
	"github.com/reactivities/identity/internal/cryptox"
	"github.com/reactivities/identity/internal/logging"
	"github.com/reactivities/identity/internal/server/auth"
	"github.com/reactivities/identity/internal/server/config"
	"github.com/reactivities/identity/internal/server/mail"
	"github.com/reactivities/identity/internal/server/models"
	"github.com/reactivities/identity/internal/server/repositories/repomanager"
)

// Reasons returned to clients on a rejected login.
const (
	ReasonInvalidEmail      = "Invalid email"
	ReasonInvalidPassword   = "Invalid password"
	ReasonEmailNotConfirmed = "Email not confirmed"
)

// TokenSigner mints access tokens.
type TokenSigner interface {
	CreateAccessToken(user *models.User) (string, error)
}

// Session is what a client receives after authenticating. RefreshToken is
// nil when no new refresh token was issued.
type Session struct {
	User         *models.User
	AccessToken  string
	RefreshToken *models.RefreshToken
}

// Registration is a request to create an account.
type Registration struct {
	Email       string
	Password    string
	DisplayName string
	UserName    string
}

// AccountService orchestrates login, registration, session refresh and
// email verification. Every operation takes the caller's identity as an
// explicit argument.
type AccountService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	signer       TokenSigner
	refresh      *RefreshTokenService
	verification *EmailVerificationService
	mailer       mail.Sender
	logger       logging.Logger

	reissueOnRotate bool
	bypassUser      string
}

func NewAccountService(
	db *sql.DB,
	m repomanager.RepositoryManager,
	signer TokenSigner,
	refresh *RefreshTokenService,
	verification *EmailVerificationService,
	mailer mail.Sender,
	logger logging.Logger,
	cfg *config.Config,
) *AccountService {
	s := &AccountService{
		db:              db,
		repomanager:     m,
		signer:          signer,
		refresh:         refresh,
		verification:    verification,
		mailer:          mailer,
		logger:          logger,
		reissueOnRotate: cfg.ReissueOnRotate,
	}
	if cfg.Development {
		s.bypassUser = cfg.ConfirmationBypassUser
	}
	return s
}

// Login checks credentials and opens a new session. Failures are
// *common.AuthError values carrying a client-facing reason.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewAuthError(ReasonInvalidEmail)
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if !user.EmailConfirmed && !s.bypassesConfirmation(user) {
		return nil, common.NewAuthError(ReasonEmailNotConfirmed)
	}

	ok, err := cryptox.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("error verifying password: %w", err)
	}
	if !ok {
		return nil, common.NewAuthError(ReasonInvalidPassword)
	}

	return s.openSession(ctx, user)
}

func (s *AccountService) bypassesConfirmation(user *models.User) bool {
	return s.bypassUser != "" && strings.EqualFold(user.UserName, s.bypassUser)
}

// Register creates an unconfirmed account and mails a verification link
// rooted at origin. Email and username collisions are reported together.
func (s *AccountService) Register(ctx context.Context, reg Registration, origin string) error {
	users := s.repomanager.Users(s.db)

	verr := &common.ValidationError{}
	emailTaken, err := users.EmailExists(ctx, reg.Email)
	if err != nil {
		return fmt.Errorf("error checking email: %w", err)
	}
	if emailTaken {
		verr.Add("email", "Email taken")
	}
	nameTaken, err := users.UserNameExists(ctx, reg.UserName)
	if err != nil {
		return fmt.Errorf("error checking username: %w", err)
	}
	if nameTaken {
		verr.Add("username", "Username taken")
	}
	if verr.HasErrors() {
		return verr
	}

	user, err := users.Create(ctx, &models.User{
		UserName:     reg.UserName,
		Email:        reg.Email,
		DisplayName:  reg.DisplayName,
		PasswordHash: cryptox.HashPassword(reg.Password),
	})
	if err != nil {
		var dup *common.ValidationError
		if errors.As(err, &dup) {
			return dup
		}
		return fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return s.sendVerification(ctx, user, origin)
}

// RefreshSession rotates the presented refresh token for the principal in
// claims and returns a fresh access token.
func (s *AccountService) RefreshSession(ctx context.Context, claims *auth.Claims, presented string) (*Session, error) {
	user, err := s.principal(ctx, claims)
	if err != nil {
		return nil, err
	}

	if err := s.refresh.Rotate(ctx, user, presented); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.logger.Warn(ctx, "refresh token replay rejected", "user_id", user.ID)
		}
		return nil, err
	}

	access, err := s.signer.CreateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("error creating access token: %w", err)
	}
	session := &Session{User: user, AccessToken: access}

	if s.reissueOnRotate {
		if session.RefreshToken, err = s.refresh.Issue(ctx, user); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// CurrentUser returns a session for the principal in claims. A new refresh
// token is issued on every call.
func (s *AccountService) CurrentUser(ctx context.Context, claims *auth.Claims) (*Session, error) {
	if claims == nil {
		return nil, common.ErrorUnauthorized
	}
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return s.openSession(ctx, user)
}

// Logout revokes the presented refresh token.
func (s *AccountService) Logout(ctx context.Context, claims *auth.Claims, presented string) error {
	user, err := s.principal(ctx, claims)
	if err != nil {
		return err
	}
	return s.refresh.Revoke(ctx, user, presented)
}

// VerifyEmail redeems an encoded confirmation token for email.
func (s *AccountService) VerifyEmail(ctx context.Context, encodedToken, email string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}

	raw, err := s.verification.Decode(encodedToken)
	if err != nil {
		return err
	}
	if err := s.verification.Redeem(ctx, user, raw); err != nil {
		return err
	}

	s.logger.Info(ctx, "email confirmed", "user_id", user.ID)
	return nil
}

// ResendVerification mails a new confirmation link. Earlier links stay valid.
func (s *AccountService) ResendVerification(ctx context.Context, email, origin string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.sendVerification(ctx, user, origin)
}

func (s *AccountService) openSession(ctx context.Context, user *models.User) (*Session, error) {
	refresh, err := s.refresh.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	access, err := s.signer.CreateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("error creating access token: %w", err)
	}
	return &Session{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AccountService) principal(ctx context.Context, claims *auth.Claims) (*models.User, error) {
	if claims == nil || claims.UserID == "" {
		return nil, common.ErrorUnauthorized
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

func (s *AccountService) userByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

func (s *AccountService) sendVerification(ctx context.Context, user *models.User, origin string) error {
	token, err := s.verification.Generate(ctx, user)
	if err != nil {
		return err
	}

	link := VerificationLink(origin, token, user.Email)
	err = s.mailer.Send(ctx, mail.Message{
		To:      mail.Address{Name: user.DisplayName, Email: user.Email},
		Subject: "Please verify your Reactivities email",
		HTML: fmt.Sprintf(`<p>Please click the below link to verify your email address:</p><p><a href="%s">Click to verify email</a></p>`,
			html.EscapeString(link)),
		PlainText: "Please open the following link to verify your email address: " + link,
	})
	if err != nil {
		return fmt.Errorf("error sending verification email: %w", err)
	}
	return nil
}

// VerificationLink builds <origin>/account/verifyEmail?token=...&email=...
func VerificationLink(origin, encodedToken, email string) string {
	return strings.TrimRight(origin, "/") + "/account/verifyEmail?token=" + encodedToken +
		"&email=" + url.QueryEscape(email)
}
