package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tripsync/tripsync-api/internal/models"
	appErrors "github.com/tripsync/tripsync-api/pkg/errors"
)

// guestName is shown for attendees whose user document cannot be resolved.
const guestName = "Guest"

// BucketByDay groups attendance records into one bucket per calendar day
// across the event span plus one buffer day on each side. Records are placed
// in the arriving bucket of their arrival day and the departing bucket of
// their departure day; a same-day round trip appears in both lists of that
// day. Records falling outside the padded range are omitted. Bucket entries
// keep the input order of records.
func BucketByDay(eventStart, eventEnd time.Time, records []models.AttendanceRecord, users map[string]models.DisplayInfo) ([]models.DayBucket, error) {
	if eventStart.IsZero() || eventEnd.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrMalformedInput, "event has a malformed start or end instant")
	}
	if eventEnd.Before(eventStart) {
		return nil, appErrors.Clone(appErrors.ErrMalformedInput, "event end precedes start")
	}

	firstEventDay := calendarDay(eventStart)
	lastEventDay := calendarDay(eventEnd)
	rangeStart := firstEventDay.AddDate(0, 0, -1)
	rangeEnd := lastEventDay.AddDate(0, 0, 1)

	var buckets []models.DayBucket
	index := make(map[string]int)
	for day := rangeStart; !day.After(rangeEnd); day = day.AddDate(0, 0, 1) {
		index[day.Format("2006-01-02")] = len(buckets)
		buckets = append(buckets, models.DayBucket{
			Date:       day,
			IsEventDay: !day.Before(firstEventDay) && !day.After(lastEventDay),
		})
	}

	for _, record := range records {
		if record.ArrivalAt.IsZero() || record.DepartureAt.IsZero() {
			return nil, appErrors.Clone(appErrors.ErrMalformedInput,
				fmt.Sprintf("attendance record %s has a malformed arrival or departure instant", record.ID))
		}

		name := guestName
		if info, ok := users[record.UserID]; ok && info.FirstName != "" {
			name = info.FirstName
		}

		if i, ok := index[calendarDay(record.ArrivalAt).Format("2006-01-02")]; ok {
			buckets[i].Arriving = append(buckets[i].Arriving, models.DayEntry{
				Record:    record,
				Name:      name,
				Time:      record.ArrivalAt.UTC().Format("3:04 PM"),
				Transport: record.ArrivalTransport,
			})
		}
		if i, ok := index[calendarDay(record.DepartureAt).Format("2006-01-02")]; ok {
			buckets[i].Departing = append(buckets[i].Departing, models.DayEntry{
				Record:    record,
				Name:      name,
				Time:      record.DepartureAt.UTC().Format("3:04 PM"),
				Transport: record.DepartureTransport,
			})
		}
	}

	return buckets, nil
}

// calendarDay truncates an instant to its UTC calendar date.
func calendarDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

type scheduleEventRepository interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
}

type scheduleAttendanceRepository interface {
	ListByEvent(ctx context.Context, eventID string) ([]models.AttendanceRecord, error)
}

type userResolver interface {
	ResolveUsers(ctx context.Context, ids []string) (map[string]models.DisplayInfo, error)
}

// ScheduleService computes and caches the per-day schedule for an event.
type ScheduleService struct {
	events     scheduleEventRepository
	attendance scheduleAttendanceRepository
	users      userResolver
	cache      *CacheService
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewScheduleService constructs the service.
func NewScheduleService(events scheduleEventRepository, attendance scheduleAttendanceRepository, users userResolver, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ScheduleService{events: events, attendance: attendance, users: users, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// DayBuckets returns the bucketed schedule for an event.
func (s *ScheduleService) DayBuckets(ctx context.Context, eventID string) ([]models.DayBucket, error) {
	cacheKey := scheduleCacheKey(eventID)
	if s.cache.Enabled() {
		var cached []models.DayBucket
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	records, err := s.attendance.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	ids := make([]string, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		if _, ok := seen[record.UserID]; ok {
			continue
		}
		seen[record.UserID] = struct{}{}
		ids = append(ids, record.UserID)
	}

	users, err := s.users.ResolveUsers(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve attendees")
	}

	buckets, err := BucketByDay(event.StartAt, event.EndAt, records, users)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, buckets, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache schedule", zap.String("event_id", eventID), zap.Error(err))
		}
	}

	return buckets, nil
}

// Invalidate drops any cached schedule for the event. Called after
// attendance or event writes.
func (s *ScheduleService) Invalidate(ctx context.Context, eventID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, scheduleCacheKey(eventID)); err != nil {
		s.logger.Warn("failed to invalidate schedule cache", zap.String("event_id", eventID), zap.Error(err))
	}
}

func scheduleCacheKey(eventID string) string {
	return "schedule:" + eventID
}
