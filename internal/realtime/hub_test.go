package realtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tripsync/tripsync-api/internal/models"
)

func TestHubSubscribeDeliversInitialSnapshot(t *testing.T) {
	loader := func(ctx context.Context, eventID string) ([]models.AttendanceEntry, error) {
		return []models.AttendanceEntry{
			{AttendanceRecord: models.AttendanceRecord{ID: "att-1", EventID: eventID, UserID: "user-1"}, Name: "Ana"},
		}, nil
	}

	hub := NewHub(nil, loader, Config{}, zap.NewNop())
	snapshots, unsubscribe, err := hub.Subscribe(context.Background(), "evt-1")
	require.NoError(t, err)
	defer unsubscribe()

	snapshot := <-snapshots
	require.Len(t, snapshot, 1)
	assert.Equal(t, "att-1", snapshot[0].ID)
	assert.Equal(t, "Ana", snapshot[0].Name)
}

func TestHubSubscribeLoaderFailure(t *testing.T) {
	loader := func(ctx context.Context, eventID string) ([]models.AttendanceEntry, error) {
		return nil, errors.New("store down")
	}

	hub := NewHub(nil, loader, Config{}, zap.NewNop())
	_, _, err := hub.Subscribe(context.Background(), "evt-1")
	require.Error(t, err)
}

func TestHubNotifyChangedWithoutRedisIsNoop(t *testing.T) {
	loader := func(ctx context.Context, eventID string) ([]models.AttendanceEntry, error) {
		return nil, nil
	}

	hub := NewHub(nil, loader, Config{}, zap.NewNop())
	hub.Start(context.Background())
	defer hub.Stop()

	// Without a broker there is nothing to publish; the call must not block
	// or panic.
	hub.NotifyChanged("evt-1")

	var nilHub *Hub
	nilHub.NotifyChanged("evt-1")
}
