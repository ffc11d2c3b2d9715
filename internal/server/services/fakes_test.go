package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/reactivities/identity/internal/common"
	"github.com/reactivities/identity/internal/cryptox"
	"github.com/reactivities/identity/internal/dbx"
	"github.com/reactivities/identity/internal/server/mail"
	"github.com/reactivities/identity/internal/server/models"
	"github.com/reactivities/identity/internal/server/repositories/attendees"
	"github.com/reactivities/identity/internal/server/repositories/emailtokens"
	"github.com/reactivities/identity/internal/server/repositories/refreshtokens"
	"github.com/reactivities/identity/internal/server/repositories/users"
)

// memStore is an in-memory stand-in for the PostgreSQL schema.
type memStore struct {
	mu        sync.Mutex
	seq       int
	users     map[string]*models.User
	refresh   map[string]*models.RefreshToken
	email     []*models.EmailToken
	attendees map[[2]string]models.ActivityAttendee

	usersErr    error
	refreshErr  error
	attendeeErr error
	// beforeRevoke runs without the lock just before a revocation is written.
	beforeRevoke func(id string)
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]*models.User{},
		refresh:   map[string]*models.RefreshToken{},
		attendees: map[[2]string]models.ActivityAttendee{},
	}
}

func (s *memStore) nextID() string {
	s.seq++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", s.seq)
}

var cheapParams = cryptox.Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

func (s *memStore) addUser(name, email, password string, confirmed bool) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{
		ID:             s.nextID(),
		UserName:       name,
		Email:          email,
		DisplayName:    strings.ToUpper(name[:1]) + name[1:],
		EmailConfirmed: confirmed,
		PasswordHash:   cryptox.HashPasswordWithParams(password, cheapParams),
		CreatedAt:      time.Now(),
	}
	s.users[u.ID] = u
	cp := *u
	return &cp
}

func (s *memStore) user(id string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func (s *memStore) refreshTokens() []models.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.RefreshToken, 0, len(s.refresh))
	for _, t := range s.refresh {
		out = append(out, *t)
	}
	return out
}

type fakeRepoManager struct{ st *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return (*fakeUsers)(m.st) }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return (*fakeRefresh)(m.st)
}
func (m *fakeRepoManager) EmailTokens(dbx.DBTX) emailtokens.Repository { return (*fakeEmail)(m.st) }
func (m *fakeRepoManager) Attendees(dbx.DBTX) attendees.Repository     { return (*fakeAttendees)(m.st) }

type fakeUsers memStore

func (f *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usersErr != nil {
		return nil, s.usersErr
	}
	cp := *u
	cp.ID = s.nextID()
	cp.CreatedAt = time.Now()
	s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsers) find(match func(*models.User) bool) (*models.User, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usersErr != nil {
		return nil, s.usersErr
	}
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (f *fakeUsers) exists(match func(*models.User) bool) (bool, error) {
	_, err := f.find(match)
	if err == common.ErrorNotFound {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeUsers) EmailExists(_ context.Context, email string) (bool, error) {
	return f.exists(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (f *fakeUsers) UserNameExists(_ context.Context, name string) (bool, error) {
	return f.exists(func(u *models.User) bool { return strings.EqualFold(u.UserName, name) })
}

func (f *fakeUsers) SetEmailConfirmed(_ context.Context, id string) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.EmailConfirmed = true
	return nil
}

type fakeRefresh memStore

func (f *fakeRefresh) Create(_ context.Context, t *models.RefreshToken) (*models.RefreshToken, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	cp := *t
	cp.ID = s.nextID()
	cp.CreatedAt = time.Now()
	s.refresh[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeRefresh) FindForUser(_ context.Context, userID, token string) (*models.RefreshToken, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	for _, t := range s.refresh {
		if t.UserID == userID && t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRefresh) Revoke(_ context.Context, id string, at time.Time) error {
	s := (*memStore)(f)
	if s.beforeRevoke != nil {
		s.beforeRevoke(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshErr != nil {
		return s.refreshErr
	}
	t, ok := s.refresh[id]
	if !ok || t.Revoked != nil {
		return common.ErrVersionConflict
	}
	t.Revoked = &at
	return nil
}

type fakeEmail memStore

func (f *fakeEmail) Create(_ context.Context, t *models.EmailToken) (*models.EmailToken, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	cp.ID = s.nextID()
	s.email = append(s.email, &cp)
	out := cp
	return &out, nil
}

func (f *fakeEmail) Consume(_ context.Context, userID, purpose string, hash []byte, now time.Time) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.email {
		if t.UserID == userID && t.Purpose == purpose && bytes.Equal(t.TokenHash, hash) &&
			t.ConsumedAt == nil && now.Before(t.Expires) {
			t.ConsumedAt = &now
			return nil
		}
	}
	return common.ErrorNotFound
}

type fakeAttendees memStore

func (f *fakeAttendees) Find(_ context.Context, userID, activityID string) (*models.ActivityAttendee, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attendeeErr != nil {
		return nil, s.attendeeErr
	}
	a, ok := s.attendees[[2]string{userID, activityID}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingMailer) last(t *testing.T) mail.Message {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		t.Fatal("no mail sent")
	}
	return r.sent[len(r.sent)-1]
}

// newTxDB returns a sqlmock DB for code paths that open transactions.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time          { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }
