package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tripsync/tripsync-api/internal/models"
	appErrors "github.com/tripsync/tripsync-api/pkg/errors"
)

type fakeEventProvider struct {
	event *models.Event
	err   error
}

func (f *fakeEventProvider) Get(ctx context.Context, id string) (*models.Event, error) {
	return f.event, f.err
}

type fakeScheduleProvider struct {
	buckets []models.DayBucket
	err     error
}

func (f *fakeScheduleProvider) DayBuckets(ctx context.Context, eventID string) ([]models.DayBucket, error) {
	return f.buckets, f.err
}

func exportFixture() (*fakeEventProvider, *fakeScheduleProvider) {
	events := &fakeEventProvider{event: &models.Event{ID: "evt-1", Name: "Summer Trip 2026"}}
	schedule := &fakeScheduleProvider{buckets: []models.DayBucket{
		{
			Date:       time.Date(2026, time.June, 9, 0, 0, 0, 0, time.UTC),
			IsEventDay: false,
			Arriving: []models.DayEntry{
				{Name: "Ana", Time: "11:00 PM", Transport: models.TransportCar},
			},
		},
		{
			Date:       time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC),
			IsEventDay: true,
			Departing: []models.DayEntry{
				{Name: "Ben", Time: "8:00 PM", Transport: models.TransportPlane},
				{Name: "Guest", Time: "9:30 PM", Transport: models.TransportBus},
			},
		},
	}}
	return events, schedule
}

func TestExportServiceCSV(t *testing.T) {
	events, schedule := exportFixture()
	svc := NewExportService(events, schedule, true, zap.NewNop())

	result, err := svc.Schedule(context.Background(), "evt-1", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "summer-trip-2026-schedule.csv", result.FileName)
	assert.Equal(t, "text/csv", result.ContentType)

	body := string(result.Content)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Day,Arriving,Departing", lines[0])
	assert.Contains(t, lines[1], "2026-06-09")
	assert.Contains(t, lines[1], "Travel day")
	assert.Contains(t, lines[1], "Ana (car) 11:00 PM")
	assert.Contains(t, lines[2], "Event day")
	assert.Contains(t, lines[2], "Ben (plane) 8:00 PM; Guest (bus) 9:30 PM")
}

func TestExportServicePDF(t *testing.T) {
	events, schedule := exportFixture()
	svc := NewExportService(events, schedule, true, zap.NewNop())

	result, err := svc.Schedule(context.Background(), "evt-1", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "summer-trip-2026-schedule.pdf", result.FileName)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	events, schedule := exportFixture()
	svc := NewExportService(events, schedule, true, zap.NewNop())

	_, err := svc.Schedule(context.Background(), "evt-1", ExportFormat("xml"))
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
}

func TestExportServiceDisabled(t *testing.T) {
	events, schedule := exportFixture()
	svc := NewExportService(events, schedule, false, zap.NewNop())

	_, err := svc.Schedule(context.Background(), "evt-1", ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", appErrors.FromError(err).Code)
}
