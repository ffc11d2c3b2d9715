package repomanager

import (
	"context"
	"database/sql"

	"github.com/reactivities/identity/internal/dbx"
	"github.com/reactivities/identity/internal/server/repositories/attendees"
	"github.com/reactivities/identity/internal/server/repositories/emailtokens"
	"github.com/reactivities/identity/internal/server/repositories/refreshtokens"
	"github.com/reactivities/identity/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound either to the pool or to an
// open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	EmailTokens(db dbx.DBTX) emailtokens.Repository
	Attendees(db dbx.DBTX) attendees.Repository
}
