// Package attendees reads the activity membership relation used for host
// authorization.
package attendees

import (
	"context"

	"github.com/reactivities/identity/internal/server/models"
)

// Repository is read-only: membership rows are owned by the activity
// subsystem.
type Repository interface {
	// Find returns the membership of userID in activityID, or
	// common.ErrorNotFound if the user does not attend the activity.
	Find(ctx context.Context, userID, activityID string) (*models.ActivityAttendee, error)
}
