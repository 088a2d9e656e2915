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

func newAttendanceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attendanceColumns() []string {
	return []string{"id", "event_id", "user_id", "arrival_at", "departure_at", "arrival_transport", "departure_transport", "created_at", "updated_at"}
}

func TestAttendanceRepositoryListByEvent(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(attendanceColumns()).
		AddRow("att-1", "evt-1", "user-1", now, now.Add(time.Hour), "car", "plane", now, now).
		AddRow("att-2", "evt-1", "user-2", now, now.Add(2*time.Hour), "train", "train", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC, id ASC")).
		WithArgs("evt-1").
		WillReturnRows(rows)

	records, err := repo.ListByEvent(context.Background(), "evt-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.TransportCar, records[0].ArrivalTransport)
	assert.Equal(t, "user-2", records[1].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryGetByEventAndUser(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(attendanceColumns()).
		AddRow("att-1", "evt-1", "user-1", now, now.Add(time.Hour), "car", "plane", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE event_id = $1 AND user_id = $2")).
		WithArgs("evt-1", "user-1").
		WillReturnRows(rows)

	record, err := repo.GetByEventAndUser(context.Background(), "evt-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "att-1", record.ID)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE event_id = $1 AND user_id = $2")).
		WithArgs("evt-1", "nobody").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByEventAndUser(context.Background(), "evt-1", "nobody")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (event_id, user_id) DO UPDATE")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.AttendanceRecord{
		EventID:            "evt-1",
		UserID:             "user-1",
		ArrivalAt:          time.Now().UTC(),
		DepartureAt:        time.Now().UTC().Add(time.Hour),
		ArrivalTransport:   models.TransportCar,
		DepartureTransport: models.TransportPlane,
	}
	require.NoError(t, repo.Upsert(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_records WHERE event_id = $1 AND user_id = $2")).
		WithArgs("evt-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "evt-1", "user-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_records WHERE event_id = $1 AND user_id = $2")).
		WithArgs("evt-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Delete(context.Background(), "evt-1", "user-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
