package models

// ActivityAttendee links a user to an activity. IsHost marks the user who
// owns the activity and may edit, cancel or delete it.
type ActivityAttendee struct {
	UserID     string
	ActivityID string
	IsHost     bool
}
