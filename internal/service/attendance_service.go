package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tripsync/tripsync-api/internal/models"
	appErrors "github.com/tripsync/tripsync-api/pkg/errors"
)

type attendanceRepository interface {
	ListByEvent(ctx context.Context, eventID string) ([]models.AttendanceRecord, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*models.AttendanceRecord, error)
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
	Delete(ctx context.Context, eventID, userID string) error
}

// changeNotifier receives a signal whenever an event's attendance set changed.
type changeNotifier interface {
	NotifyChanged(eventID string)
}

// UpsertScheduleRequest carries a participant's travel plan. Instants are
// RFC 3339 strings so that unparseable input can be rejected explicitly.
type UpsertScheduleRequest struct {
	Arrival            string `json:"arrival" validate:"required"`
	Departure          string `json:"departure" validate:"required"`
	ArrivalTransport   string `json:"arrival_transport" validate:"required,oneof=car plane train bus other"`
	DepartureTransport string `json:"departure_transport" validate:"required,oneof=car plane train bus other"`
}

// AttendanceService manages participants' travel plans for an event.
type AttendanceService struct {
	repo      attendanceRepository
	events    eventRepository
	schedule  *ScheduleService
	notifier  changeNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the service. schedule and notifier may be
// nil; writes then skip cache invalidation and live updates respectively.
func NewAttendanceService(repo attendanceRepository, events eventRepository, schedule *ScheduleService, notifier changeNotifier, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:      repo,
		events:    events,
		schedule:  schedule,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
	}
}

// Upsert stores or replaces the caller's travel plan for the event. The
// record's user is always the caller; the payload cannot act for someone
// else. Instants must parse as RFC 3339, arrival must not follow departure,
// and both must land within the event span padded by one day on each side.
func (s *AttendanceService) Upsert(ctx context.Context, eventID string, claims *models.JWTClaims, req UpsertScheduleRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	arrival, err := time.Parse(time.RFC3339, req.Arrival)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrMalformedInput, "arrival is not a valid RFC 3339 instant")
	}
	departure, err := time.Parse(time.RFC3339, req.Departure)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrMalformedInput, "departure is not a valid RFC 3339 instant")
	}
	if departure.Before(arrival) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "departure must be on or after arrival")
	}

	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if !event.AcceptingSubmissions && event.OwnerID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrSubmissionsClosed, "this event is no longer accepting schedule submissions")
	}

	// The schedule view carries one buffer day each side of the event span;
	// writes are held to the same window.
	rangeStart := calendarDay(event.StartAt).AddDate(0, 0, -1)
	rangeEnd := calendarDay(event.EndAt).AddDate(0, 0, 2)
	if arrival.Before(rangeStart) || !departure.Before(rangeEnd) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "arrival and departure must fall within one day of the event dates")
	}

	record := &models.AttendanceRecord{
		EventID:            eventID,
		UserID:             claims.UserID,
		ArrivalAt:          arrival,
		DepartureAt:        departure,
		ArrivalTransport:   models.Transport(req.ArrivalTransport),
		DepartureTransport: models.Transport(req.DepartureTransport),
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save travel plan")
	}

	s.afterWrite(ctx, eventID)
	return record, nil
}

// Get returns the caller's own travel plan for the event.
func (s *AttendanceService) Get(ctx context.Context, eventID, userID string) (*models.AttendanceRecord, error) {
	record, err := s.repo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no travel plan submitted for this event")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load travel plan")
	}
	return record, nil
}

// List returns every travel plan for the event with display names attached.
func (s *AttendanceService) List(ctx context.Context, eventID string, users userResolver) ([]models.AttendanceEntry, error) {
	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return nil, err
	}

	records, err := s.repo.ListByEvent(ctx, eventID)
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

	resolved := map[string]models.DisplayInfo{}
	if users != nil && len(ids) > 0 {
		resolved, err = users.ResolveUsers(ctx, ids)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve attendees")
		}
	}

	entries := make([]models.AttendanceEntry, 0, len(records))
	for _, record := range records {
		name := guestName
		if info, ok := resolved[record.UserID]; ok && info.DisplayName != "" {
			name = info.DisplayName
		}
		entries = append(entries, models.AttendanceEntry{AttendanceRecord: record, Name: name})
	}
	return entries, nil
}

// Delete withdraws the caller's travel plan.
func (s *AttendanceService) Delete(ctx context.Context, eventID, userID string) error {
	if err := s.repo.Delete(ctx, eventID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no travel plan submitted for this event")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw travel plan")
	}
	s.afterWrite(ctx, eventID)
	return nil
}

func (s *AttendanceService) loadEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

func (s *AttendanceService) afterWrite(ctx context.Context, eventID string) {
	if s.schedule != nil {
		s.schedule.Invalidate(ctx, eventID)
	}
	if s.notifier != nil {
		s.notifier.NotifyChanged(eventID)
	}
}
