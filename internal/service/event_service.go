package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tripsync/tripsync-api/internal/models"
	appErrors "github.com/tripsync/tripsync-api/pkg/errors"
)

type eventRepository interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
	GetPublicSummary(ctx context.Context, id string) (*models.PublicEventSummary, error)
	ListForUser(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
}

// SelectView decides how an event page renders for a viewer. Evaluated
// top to bottom, first match wins:
// nothing loaded -> NotFound; anonymous -> Unauthorized (public summary
// only); owner -> Owner; any other signed-in user -> Participant.
func SelectView(event *models.Event, summary *models.PublicEventSummary, claims *models.JWTClaims) models.ViewMode {
	switch {
	case event == nil && summary == nil:
		return models.ViewNotFound
	case claims == nil:
		return models.ViewUnauthorized
	case event != nil && event.OwnerID == claims.UserID:
		return models.ViewOwner
	default:
		return models.ViewParticipant
	}
}

// EventView is the mode-dependent payload for the event detail page. Exactly
// one of Event/Summary is set outside the NotFound mode.
type EventView struct {
	Mode    models.ViewMode            `json:"mode"`
	Event   *models.Event              `json:"event,omitempty"`
	Summary *models.PublicEventSummary `json:"summary,omitempty"`
}

// CreateEventRequest describes the create payload.
type CreateEventRequest struct {
	Name                 string    `json:"name" validate:"required"`
	StartAt              time.Time `json:"start_at" validate:"required"`
	EndAt                time.Time `json:"end_at" validate:"required"`
	Location             *string   `json:"location"`
	Description          *string   `json:"description"`
	AcceptingSubmissions *bool     `json:"accepting_submissions"`
}

// UpdateEventRequest describes the partial update payload. Only non-nil
// fields are applied.
type UpdateEventRequest struct {
	Name                 *string    `json:"name"`
	StartAt              *time.Time `json:"start_at"`
	EndAt                *time.Time `json:"end_at"`
	Location             *string    `json:"location"`
	Description          *string    `json:"description"`
	AcceptingSubmissions *bool      `json:"accepting_submissions"`
}

// EventService manages events and their visibility.
type EventService struct {
	repo      eventRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the service.
func NewEventService(repo eventRepository, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, validator: validate, logger: logger}
}

// View loads an event through the visibility decision table. Anonymous
// viewers only ever receive the public summary.
func (s *EventService) View(ctx context.Context, id string, claims *models.JWTClaims) (*EventView, error) {
	var event *models.Event
	if claims != nil {
		loaded, err := s.repo.GetByID(ctx, id)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
		}
		event = loaded
	}

	summary, err := s.repo.GetPublicSummary(ctx, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event summary")
	}

	mode := SelectView(event, summary, claims)
	switch mode {
	case models.ViewNotFound:
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	case models.ViewUnauthorized:
		return &EventView{Mode: mode, Summary: summary}, nil
	default:
		if event == nil {
			// Signed in, but the full row vanished between the two reads.
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return &EventView{Mode: mode, Event: event}, nil
	}
}

// Get returns a full event for authenticated flows.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// List returns events the user owns or participates in.
func (s *EventService) List(ctx context.Context, userID string, page, pageSize int) ([]models.Event, *models.Pagination, error) {
	filter := models.EventFilter{UserID: userID, Page: page, PageSize: pageSize}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	events, total, err := s.repo.ListForUser(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return events, pagination, nil
}

// Create registers a new event owned by the caller.
func (s *EventService) Create(ctx context.Context, ownerID string, req CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if req.EndAt.Before(req.StartAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_at must be on or after start_at")
	}

	accepting := true
	if req.AcceptingSubmissions != nil {
		accepting = *req.AcceptingSubmissions
	}

	event := &models.Event{
		Name:                 req.Name,
		StartAt:              req.StartAt,
		EndAt:                req.EndAt,
		Location:             req.Location,
		Description:          req.Description,
		AcceptingSubmissions: accepting,
		OwnerID:              ownerID,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	return event, nil
}

// Update applies a field-level partial update. Owner only.
func (s *EventService) Update(ctx context.Context, id, userID string, req UpdateEventRequest) (*models.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owner can edit this event")
	}

	if req.Name != nil {
		event.Name = *req.Name
	}
	if req.StartAt != nil {
		event.StartAt = *req.StartAt
	}
	if req.EndAt != nil {
		event.EndAt = *req.EndAt
	}
	if req.Location != nil {
		event.Location = req.Location
	}
	if req.Description != nil {
		event.Description = req.Description
	}
	if req.AcceptingSubmissions != nil {
		event.AcceptingSubmissions = *req.AcceptingSubmissions
	}

	if event.EndAt.Before(event.StartAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_at must be on or after start_at")
	}

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	return event, nil
}

// Delete removes an event. Owner only.
func (s *EventService) Delete(ctx context.Context, id, userID string) error {
	event, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if event.OwnerID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the owner can delete this event")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	return nil
}

// ICalendar renders the event span as an iCalendar document for share links.
func (s *EventService) ICalendar(ctx context.Context, id string) (string, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//TripSync//EN")

	entry := cal.AddEvent(event.ID + "@tripsync")
	entry.SetCreatedTime(event.CreatedAt)
	entry.SetDtStampTime(event.UpdatedAt)
	entry.SetStartAt(event.StartAt)
	entry.SetEndAt(event.EndAt)
	entry.SetSummary(event.Name)
	if event.Location != nil {
		entry.SetLocation(*event.Location)
	}
	if event.Description != nil {
		entry.SetDescription(*event.Description)
	}

	return cal.Serialize(), nil
}
