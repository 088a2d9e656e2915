package models

import "time"

// Event represents a trip or gathering organised by a user.
type Event struct {
	ID                   string    `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	StartAt              time.Time `db:"start_at" json:"start_at"`
	EndAt                time.Time `db:"end_at" json:"end_at"`
	Location             *string   `db:"location" json:"location,omitempty"`
	Description          *string   `db:"description" json:"description,omitempty"`
	AcceptingSubmissions bool      `db:"accepting_submissions" json:"accepting_submissions"`
	OwnerID              string    `db:"owner_id" json:"owner_id"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// PublicEventSummary is the projection exposed to unauthenticated visitors
// following a share link. Never carries description, attendees or owner data.
type PublicEventSummary struct {
	ID       string    `db:"id" json:"id"`
	StartAt  time.Time `db:"start_at" json:"start_at"`
	EndAt    time.Time `db:"end_at" json:"end_at"`
	Location *string   `db:"location" json:"location,omitempty"`
}

// EventFilter narrows down event listings.
type EventFilter struct {
	UserID   string
	Page     int
	PageSize int
}

// ViewMode classifies how an event page is rendered for a given viewer.
type ViewMode string

const (
	ViewNotFound     ViewMode = "not_found"
	ViewUnauthorized ViewMode = "unauthorized"
	ViewOwner        ViewMode = "owner"
	ViewParticipant  ViewMode = "participant"
)
