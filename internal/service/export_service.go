package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tripsync/tripsync-api/internal/models"
	appErrors "github.com/tripsync/tripsync-api/pkg/errors"
	"github.com/tripsync/tripsync-api/pkg/export"
)

// ExportFormat enumerates supported schedule export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries a rendered document ready for download.
type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

type scheduleProvider interface {
	DayBuckets(ctx context.Context, eventID string) ([]models.DayBucket, error)
}

type exportEventProvider interface {
	Get(ctx context.Context, id string) (*models.Event, error)
}

// ExportService renders an event's day-by-day schedule as CSV or PDF.
type ExportService struct {
	events   exportEventProvider
	schedule scheduleProvider
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	enabled  bool
	logger   *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(events exportEventProvider, schedule scheduleProvider, enabled bool, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		events:   events,
		schedule: schedule,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		enabled:  enabled,
		logger:   logger,
	}
}

// Schedule renders the event schedule in the requested format.
func (s *ExportService) Schedule(ctx context.Context, eventID string, format ExportFormat) (*ExportResult, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	buckets, err := s.schedule.DayBuckets(ctx, eventID)
	if err != nil {
		return nil, err
	}

	dataset := scheduleDataset(buckets)
	base := exportFileName(event.Name)

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{FileName: base + ".csv", ContentType: "text/csv", Content: content}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, event.Name+" schedule")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{FileName: base + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func scheduleDataset(buckets []models.DayBucket) export.Dataset {
	dataset := export.Dataset{Headers: []string{"Date", "Day", "Arriving", "Departing"}}
	for _, bucket := range buckets {
		day := "Travel day"
		if bucket.IsEventDay {
			day = "Event day"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":      bucket.DateKey(),
			"Day":       day,
			"Arriving":  formatEntries(bucket.Arriving),
			"Departing": formatEntries(bucket.Departing),
		})
	}
	return dataset
}

func formatEntries(entries []models.DayEntry) string {
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		parts = append(parts, fmt.Sprintf("%s (%s) %s", entry.Name, entry.Transport, entry.Time))
	}
	return strings.Join(parts, "; ")
}

func exportFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, strings.TrimSpace(name))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "schedule"
	}
	return strings.ToLower(cleaned) + "-schedule"
}
