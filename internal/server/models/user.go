// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the principal: an account that can authenticate and own resources.
// PasswordHash is maintained by the user store and never leaves it in
// responses.
type User struct {
	ID             string
	UserName       string
	Email          string
	DisplayName    string
	Bio            string
	EmailConfirmed bool
	PasswordHash   string
	CreatedAt      time.Time
}
