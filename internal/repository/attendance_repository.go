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

// AttendanceRepository persists attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByEvent returns every attendance record for an event in insertion
// order. The stable ordering keeps bucket entries deterministic.
func (r *AttendanceRepository) ListByEvent(ctx context.Context, eventID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, event_id, user_id, arrival_at, departure_at, arrival_transport, departure_transport, created_at, updated_at
FROM attendance_records WHERE event_id = $1 ORDER BY created_at ASC, id ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, eventID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// GetByEventAndUser returns the single record a user holds for an event.
func (r *AttendanceRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*models.AttendanceRecord, error) {
	const query = `SELECT id, event_id, user_id, arrival_at, departure_at, arrival_transport, departure_transport, created_at, updated_at
FROM attendance_records WHERE event_id = $1 AND user_id = $2 LIMIT 1`
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, eventID, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return &record, nil
}

// Upsert inserts or replaces the (event, user) record. One record per pair;
// a second write overwrites the first.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO attendance_records (id, event_id, user_id, arrival_at, departure_at, arrival_transport, departure_transport, created_at, updated_at)
VALUES (:id, :event_id, :user_id, :arrival_at, :departure_at, :arrival_transport, :departure_transport, :created_at, :updated_at)
ON CONFLICT (event_id, user_id) DO UPDATE
SET arrival_at = EXCLUDED.arrival_at, departure_at = EXCLUDED.departure_at,
arrival_transport = EXCLUDED.arrival_transport, departure_transport = EXCLUDED.departure_transport,
updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// Delete removes a user's record for an event. Returns sql.ErrNoRows when
// the user never submitted one.
func (r *AttendanceRepository) Delete(ctx context.Context, eventID, userID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM attendance_records WHERE event_id = $1 AND user_id = $2", eventID, userID)
	if err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
