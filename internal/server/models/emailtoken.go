package models

import "time"

// PurposeConfirmEmail tags tokens that prove ownership of an email address.
const PurposeConfirmEmail = "confirm_email"

// EmailToken is a one-time proof issued to a user for a single purpose. Only
// the SHA-256 hash of the raw token is stored.
type EmailToken struct {
	ID         string
	UserID     string
	Purpose    string
	TokenHash  []byte
	Expires    time.Time
	CreatedAt  time.Time
	ConsumedAt *time.Time
}
