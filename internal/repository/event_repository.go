package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tripsync/tripsync-api/internal/models"
)

// EventRepository persists events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// GetByID fetches a full event row.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	const query = `SELECT id, name, start_at, end_at, location, description, accepting_submissions, owner_id, created_at, updated_at
FROM events WHERE id = $1 LIMIT 1`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}

// GetPublicSummary fetches the share-link projection of an event. Only the
// fields safe to show an unauthenticated visitor are selected.
func (r *EventRepository) GetPublicSummary(ctx context.Context, id string) (*models.PublicEventSummary, error) {
	const query = `SELECT id, start_at, end_at, location FROM events WHERE id = $1 LIMIT 1`
	var summary models.PublicEventSummary
	if err := r.db.GetContext(ctx, &summary, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get public event summary: %w", err)
	}
	return &summary, nil
}

// ListForUser returns events the user owns or participates in, ordered by
// start instant.
func (r *EventRepository) ListForUser(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	const base = `FROM events e WHERE e.owner_id = $1
OR EXISTS (SELECT 1 FROM attendance_records a WHERE a.event_id = e.id AND a.user_id = $1)`

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	listQuery := fmt.Sprintf(`SELECT e.id, e.name, e.start_at, e.end_at, e.location, e.description, e.accepting_submissions, e.owner_id, e.created_at, e.updated_at
%s ORDER BY e.start_at ASC LIMIT %d OFFSET %d`, base, size, offset)

	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, listQuery, filter.UserID); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, filter.UserID); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	return events, total, nil
}

// Create inserts an event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	const query = `INSERT INTO events (id, name, start_at, end_at, location, description, accepting_submissions, owner_id, created_at, updated_at)
VALUES (:id, :name, :start_at, :end_at, :location, :description, :accepting_submissions, :owner_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update modifies mutable event fields.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET name = :name, start_at = :start_at, end_at = :end_at, location = :location,
description = :description, accepting_submissions = :accepting_submissions, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// Delete removes an event and its attendance records.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete event: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM attendance_records WHERE event_id = $1", id); err != nil {
		return fmt.Errorf("delete event attendance: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return tx.Commit()
}
