package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tripsync/tripsync-api/internal/models"
	"github.com/tripsync/tripsync-api/pkg/jobs"
)

// SnapshotLoader produces the current attendance set for an event.
type SnapshotLoader func(ctx context.Context, eventID string) ([]models.AttendanceEntry, error)

// Config tunes the hub.
type Config struct {
	ChannelPrefix  string
	PublishWorkers int
	BufferSize     int
}

// Hub fans attendance changes out to live subscribers. Writers call
// NotifyChanged after a successful write; the change is published through
// Redis so every API instance sees it. Each subscriber receives full
// snapshots, not deltas, and only ever the latest one: if a subscriber is
// slow, intermediate snapshots are dropped.
type Hub struct {
	client  redis.UniversalClient
	loader  SnapshotLoader
	prefix  string
	publish *jobs.Queue
	logger  *zap.Logger

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewHub constructs a hub. A nil client yields a degraded hub: subscribers
// still get the initial snapshot but no live updates.
func NewHub(client redis.UniversalClient, loader SnapshotLoader, cfg Config, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ChannelPrefix == "" {
		cfg.ChannelPrefix = "tripsync:attendance:"
	}
	if cfg.PublishWorkers <= 0 {
		cfg.PublishWorkers = 2
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}

	h := &Hub{client: client, loader: loader, prefix: cfg.ChannelPrefix, logger: logger}
	h.publish = jobs.NewQueue("attendance-publish", h.publishJob, jobs.QueueConfig{
		Workers:    cfg.PublishWorkers,
		BufferSize: cfg.BufferSize,
		Logger:     logger,
	})
	return h
}

// Start launches the publish workers.
func (h *Hub) Start(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return
	}
	h.ctx, h.cancel = context.WithCancel(ctx)
	h.publish.Start(h.ctx)
	h.started = true
}

// Stop shuts down publish workers and all subscriber pumps.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return
	}
	h.cancel()
	h.started = false
	h.mu.Unlock()
	h.publish.Stop()
	h.wg.Wait()
}

// NotifyChanged schedules a change broadcast for the event. Non-blocking
// from the caller's perspective beyond the queue buffer.
func (h *Hub) NotifyChanged(eventID string) {
	if h == nil || h.client == nil {
		return
	}
	err := h.publish.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "attendance-changed",
		Payload: eventID,
	})
	if err != nil {
		h.logger.Warn("failed to enqueue attendance broadcast", zap.String("event_id", eventID), zap.Error(err))
	}
}

func (h *Hub) publishJob(ctx context.Context, job jobs.Job) error {
	eventID, ok := job.Payload.(string)
	if !ok {
		return nil
	}
	return h.client.Publish(ctx, h.prefix+eventID, eventID).Err()
}

// Subscribe returns a channel of attendance snapshots for the event. The
// current snapshot is delivered first; afterwards a fresh snapshot arrives
// whenever the attendance set changes. The returned function must be called
// to release the subscription.
func (h *Hub) Subscribe(ctx context.Context, eventID string) (<-chan []models.AttendanceEntry, func(), error) {
	initial, err := h.loader(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan []models.AttendanceEntry, 1)
	out <- initial

	if h.client == nil {
		return out, func() {}, nil
	}

	sub := h.client.Subscribe(ctx, h.prefix+eventID)
	subCtx, cancel := context.WithCancel(ctx)

	h.wg.Add(1)
	go h.pump(subCtx, sub, eventID, out)

	unsubscribe := func() {
		cancel()
		_ = sub.Close()
	}
	return out, unsubscribe, nil
}

// pump reloads and forwards snapshots as change notifications arrive. The
// out channel holds at most one snapshot; a pending older one is replaced.
func (h *Hub) pump(ctx context.Context, sub *redis.PubSub, eventID string, out chan []models.AttendanceEntry) {
	defer h.wg.Done()
	defer close(out)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-messages:
			if !ok {
				return
			}
			snapshot, err := h.loader(ctx, eventID)
			if err != nil {
				h.logger.Warn("failed to load attendance snapshot", zap.String("event_id", eventID), zap.Error(err))
				continue
			}
			select {
			case out <- snapshot:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- snapshot:
				default:
				}
			}
		}
	}
}
