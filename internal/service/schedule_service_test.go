package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tripsync/tripsync-api/internal/models"
	appErrors "github.com/tripsync/tripsync-api/pkg/errors"
)

func day(year int, month time.Month, d, hour, min int) time.Time {
	return time.Date(year, month, d, hour, min, 0, 0, time.UTC)
}

func TestBucketByDaySpansEventPlusTravelDays(t *testing.T) {
	records := []models.AttendanceRecord{
		{
			ID:                 "att-1",
			UserID:             "user-1",
			ArrivalAt:          day(2026, time.June, 9, 23, 0),
			DepartureAt:        day(2026, time.June, 12, 20, 0),
			ArrivalTransport:   models.TransportCar,
			DepartureTransport: models.TransportPlane,
		},
	}
	users := map[string]models.DisplayInfo{
		"user-1": {ID: "user-1", FirstName: "Ana", DisplayName: "Ana Silva"},
	}

	buckets, err := BucketByDay(day(2026, time.June, 10, 9, 0), day(2026, time.June, 12, 18, 0), records, users)
	require.NoError(t, err)
	require.Len(t, buckets, 5)

	assert.Equal(t, "2026-06-09", buckets[0].DateKey())
	assert.Equal(t, "2026-06-13", buckets[4].DateKey())

	for i, expected := range []bool{false, true, true, true, false} {
		assert.Equal(t, expected, buckets[i].IsEventDay, "bucket %s", buckets[i].DateKey())
	}

	require.Len(t, buckets[0].Arriving, 1)
	arriving := buckets[0].Arriving[0]
	assert.Equal(t, "Ana", arriving.Name)
	assert.Equal(t, "11:00 PM", arriving.Time)
	assert.Equal(t, models.TransportCar, arriving.Transport)

	require.Len(t, buckets[3].Departing, 1)
	departing := buckets[3].Departing[0]
	assert.Equal(t, "8:00 PM", departing.Time)
	assert.Equal(t, models.TransportPlane, departing.Transport)
}

func TestBucketByDaySingleDayEvent(t *testing.T) {
	buckets, err := BucketByDay(day(2026, time.July, 4, 10, 0), day(2026, time.July, 4, 22, 0), nil, nil)
	require.NoError(t, err)
	require.Len(t, buckets, 3)
	assert.False(t, buckets[0].IsEventDay)
	assert.True(t, buckets[1].IsEventDay)
	assert.False(t, buckets[2].IsEventDay)
}

func TestBucketByDaySameDayRoundTrip(t *testing.T) {
	records := []models.AttendanceRecord{
		{
			ID:                 "att-1",
			UserID:             "user-1",
			ArrivalAt:          day(2026, time.June, 11, 8, 0),
			DepartureAt:        day(2026, time.June, 11, 19, 0),
			ArrivalTransport:   models.TransportTrain,
			DepartureTransport: models.TransportTrain,
		},
	}

	buckets, err := BucketByDay(day(2026, time.June, 10, 9, 0), day(2026, time.June, 12, 18, 0), records, nil)
	require.NoError(t, err)

	var target *models.DayBucket
	for i := range buckets {
		if buckets[i].DateKey() == "2026-06-11" {
			target = &buckets[i]
		}
	}
	require.NotNil(t, target)
	assert.Len(t, target.Arriving, 1)
	assert.Len(t, target.Departing, 1)
}

func TestBucketByDayGuestFallback(t *testing.T) {
	records := []models.AttendanceRecord{
		{
			ID:          "att-1",
			UserID:      "ghost",
			ArrivalAt:   day(2026, time.June, 10, 12, 0),
			DepartureAt: day(2026, time.June, 11, 12, 0),
		},
	}

	buckets, err := BucketByDay(day(2026, time.June, 10, 9, 0), day(2026, time.June, 12, 18, 0), records, map[string]models.DisplayInfo{})
	require.NoError(t, err)
	require.Len(t, buckets[1].Arriving, 1)
	assert.Equal(t, "Guest", buckets[1].Arriving[0].Name)
}

func TestBucketByDayOmitsOutOfRangeRecords(t *testing.T) {
	records := []models.AttendanceRecord{
		{
			ID:          "att-early",
			UserID:      "user-1",
			ArrivalAt:   day(2026, time.June, 1, 12, 0),
			DepartureAt: day(2026, time.June, 20, 12, 0),
		},
	}

	buckets, err := BucketByDay(day(2026, time.June, 10, 9, 0), day(2026, time.June, 12, 18, 0), records, nil)
	require.NoError(t, err)
	for _, bucket := range buckets {
		assert.Empty(t, bucket.Arriving, "bucket %s", bucket.DateKey())
		assert.Empty(t, bucket.Departing, "bucket %s", bucket.DateKey())
	}
}

func TestBucketByDayKeepsRecordOrder(t *testing.T) {
	arrival := day(2026, time.June, 10, 12, 0)
	departure := day(2026, time.June, 11, 12, 0)
	records := []models.AttendanceRecord{
		{ID: "att-1", UserID: "a", ArrivalAt: arrival, DepartureAt: departure},
		{ID: "att-2", UserID: "b", ArrivalAt: arrival, DepartureAt: departure},
		{ID: "att-3", UserID: "c", ArrivalAt: arrival, DepartureAt: departure},
	}

	buckets, err := BucketByDay(day(2026, time.June, 10, 9, 0), day(2026, time.June, 12, 18, 0), records, nil)
	require.NoError(t, err)
	require.Len(t, buckets[1].Arriving, 3)
	assert.Equal(t, "att-1", buckets[1].Arriving[0].Record.ID)
	assert.Equal(t, "att-2", buckets[1].Arriving[1].Record.ID)
	assert.Equal(t, "att-3", buckets[1].Arriving[2].Record.ID)
}

func TestBucketByDayMalformedInstants(t *testing.T) {
	_, err := BucketByDay(time.Time{}, day(2026, time.June, 12, 18, 0), nil, nil)
	require.Error(t, err)
	assert.Equal(t, "MALFORMED_INPUT", appErrors.FromError(err).Code)

	_, err = BucketByDay(day(2026, time.June, 12, 18, 0), day(2026, time.June, 10, 9, 0), nil, nil)
	require.Error(t, err)
	assert.Equal(t, "MALFORMED_INPUT", appErrors.FromError(err).Code)

	records := []models.AttendanceRecord{{ID: "att-1", UserID: "a"}}
	_, err = BucketByDay(day(2026, time.June, 10, 9, 0), day(2026, time.June, 12, 18, 0), records, nil)
	require.Error(t, err)
	assert.Equal(t, "MALFORMED_INPUT", appErrors.FromError(err).Code)
}

func TestBucketByDayIdempotent(t *testing.T) {
	records := []models.AttendanceRecord{
		{
			ID:          "att-1",
			UserID:      "user-1",
			ArrivalAt:   day(2026, time.June, 10, 12, 0),
			DepartureAt: day(2026, time.June, 11, 12, 0),
		},
	}

	first, err := BucketByDay(day(2026, time.June, 10, 9, 0), day(2026, time.June, 12, 18, 0), records, nil)
	require.NoError(t, err)
	second, err := BucketByDay(day(2026, time.June, 10, 9, 0), day(2026, time.June, 12, 18, 0), records, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

type fakeScheduleEventRepo struct {
	event *models.Event
	err   error
}

func (f *fakeScheduleEventRepo) GetByID(ctx context.Context, id string) (*models.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

type fakeScheduleAttendanceRepo struct {
	records []models.AttendanceRecord
	err     error
}

func (f *fakeScheduleAttendanceRepo) ListByEvent(ctx context.Context, eventID string) ([]models.AttendanceRecord, error) {
	return f.records, f.err
}

type fakeUserResolver struct {
	users      map[string]models.DisplayInfo
	resolvedID []string
}

func (f *fakeUserResolver) ResolveUsers(ctx context.Context, ids []string) (map[string]models.DisplayInfo, error) {
	f.resolvedID = ids
	return f.users, nil
}

func TestScheduleServiceDayBuckets(t *testing.T) {
	events := &fakeScheduleEventRepo{event: &models.Event{
		ID:      "evt-1",
		StartAt: day(2026, time.June, 10, 9, 0),
		EndAt:   day(2026, time.June, 12, 18, 0),
	}}
	attendance := &fakeScheduleAttendanceRepo{records: []models.AttendanceRecord{
		{ID: "att-1", UserID: "user-1", ArrivalAt: day(2026, time.June, 10, 8, 0), DepartureAt: day(2026, time.June, 12, 20, 0)},
		{ID: "att-2", UserID: "user-1", ArrivalAt: day(2026, time.June, 10, 9, 0), DepartureAt: day(2026, time.June, 11, 20, 0)},
	}}
	resolver := &fakeUserResolver{users: map[string]models.DisplayInfo{
		"user-1": {ID: "user-1", FirstName: "Ben"},
	}}

	svc := NewScheduleService(events, attendance, resolver, nil, time.Minute, zap.NewNop())
	buckets, err := svc.DayBuckets(context.Background(), "evt-1")
	require.NoError(t, err)
	require.Len(t, buckets, 5)

	// Duplicate user ids are resolved once.
	assert.Equal(t, []string{"user-1"}, resolver.resolvedID)
	require.Len(t, buckets[1].Arriving, 2)
	assert.Equal(t, "Ben", buckets[1].Arriving[0].Name)
}

func TestScheduleServiceEventNotFound(t *testing.T) {
	svc := NewScheduleService(&fakeScheduleEventRepo{err: sql.ErrNoRows}, &fakeScheduleAttendanceRepo{}, &fakeUserResolver{}, nil, time.Minute, zap.NewNop())
	_, err := svc.DayBuckets(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}
