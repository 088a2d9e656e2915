package models

import (
	"strings"
	"time"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// DisplayName derives the public name shown to other participants.
// First plus last name when set, otherwise the email local-part.
func (u User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// DisplayInfo is the minimal projection used for attendee name resolution.
type DisplayInfo struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	DisplayName string `json:"display_name"`
}

// DisplayInfoOf projects a user into its name-resolution form.
func DisplayInfoOf(u User) DisplayInfo {
	return DisplayInfo{ID: u.ID, FirstName: strings.TrimSpace(u.FirstName), DisplayName: u.DisplayName()}
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
