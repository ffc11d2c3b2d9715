package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/reactivities/identity/internal/common"
	"github.com/reactivities/identity/internal/server/auth"
	"github.com/reactivities/identity/internal/server/repositories/repomanager"
)

// Evaluator decides whether a principal holds the host role on a resource.
type Evaluator interface {
	Evaluate(ctx context.Context, principalID, resourceID string) (bool, error)
}

// HostPolicy grants the privilege to the attendee flagged as host. It is
// read-only and consults storage on every call.
type HostPolicy struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewHostPolicy(db *sql.DB, m repomanager.RepositoryManager) *HostPolicy {
	return &HostPolicy{db: db, repomanager: m}
}

// Evaluate fails closed: a missing principal, an unparsable resource ID or a
// missing membership row all yield false. Storage errors are returned, never
// turned into a grant.
func (p *HostPolicy) Evaluate(ctx context.Context, principalID, resourceID string) (bool, error) {
	if principalID == "" {
		return false, nil
	}
	id, err := uuid.Parse(resourceID)
	if err != nil {
		return false, nil
	}

	attendee, err := p.repomanager.Attendees(p.db).Find(ctx, principalID, id.String())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("error searching attendee: %w", err)
	}
	return attendee.IsHost, nil
}

// IsPrivilegedFor evaluates the subject of verified claims against
// resourceID. Nil claims are denied.
func IsPrivilegedFor(ctx context.Context, e Evaluator, claims *auth.Claims, resourceID string) (bool, error) {
	if claims == nil {
		return false, nil
	}
	return e.Evaluate(ctx, claims.UserID, resourceID)
}
