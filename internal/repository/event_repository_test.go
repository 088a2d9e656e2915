package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsync/tripsync-api/internal/models"
)

func newEventRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func eventColumns() []string {
	return []string{"id", "name", "start_at", "end_at", "location", "description", "accepting_submissions", "owner_id", "created_at", "updated_at"}
}

func TestEventRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(eventColumns()).
		AddRow("evt-1", "Summer trip", now, now.Add(48*time.Hour), "Lisbon", nil, true, "owner-1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, start_at, end_at, location, description, accepting_submissions, owner_id, created_at, updated_at")).
		WithArgs("evt-1").
		WillReturnRows(rows)

	event, err := repo.GetByID(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "Summer trip", event.Name)
	assert.Equal(t, "owner-1", event.OwnerID)
	require.NotNil(t, event.Location)
	assert.Equal(t, "Lisbon", *event.Location)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectQuery("SELECT id, name").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEventRepositoryGetPublicSummary(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "start_at", "end_at", "location"}).
		AddRow("evt-1", now, now.Add(48*time.Hour), "Lisbon")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, start_at, end_at, location FROM events")).
		WithArgs("evt-1").
		WillReturnRows(rows)

	summary, err := repo.GetPublicSummary(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "evt-1", summary.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListForUser(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(eventColumns()).
		AddRow("evt-1", "Trip A", now, now.Add(time.Hour), nil, nil, true, "user-1", now, now).
		AddRow("evt-2", "Trip B", now.Add(time.Hour), now.Add(2*time.Hour), nil, nil, false, "other", now, now)
	mock.ExpectQuery("SELECT e.id, e.name").
		WithArgs("user-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	events, total, err := repo.ListForUser(context.Background(), models.EventFilter{UserID: "user-1", Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, 2, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO events")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	event := &models.Event{
		Name:                 "Summer trip",
		StartAt:              time.Now().UTC(),
		EndAt:                time.Now().UTC().Add(48 * time.Hour),
		AcceptingSubmissions: true,
		OwnerID:              "owner-1",
	}
	require.NoError(t, repo.Create(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	event := &models.Event{ID: "evt-1", Name: "Renamed"}
	require.NoError(t, repo.Update(context.Background(), event))
	assert.False(t, event.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_records WHERE event_id = $1")).
		WithArgs("evt-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM events WHERE id = $1")).
		WithArgs("evt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "evt-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
