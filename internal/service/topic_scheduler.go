package service

import (
	"context"
	"log/slog"
	"time"

	"crowdpulse-api/internal/event"
)

type TopicStatusUpdater interface {
	OpenScheduled(ctx context.Context, now time.Time) (int64, error)
	CloseExpired(ctx context.Context, now time.Time) (int64, error)
}

// TopicScheduler moves topics through scheduled, open and closed as their
// start and end dates pass.
type TopicScheduler struct {
	store  TopicStatusUpdater
	events event.Bus
	now    func() time.Time
}

func NewTopicScheduler(store TopicStatusUpdater, events event.Bus) *TopicScheduler {
	return &TopicScheduler{store: store, events: events, now: time.Now}
}

// Run applies transitions immediately and then on every tick until ctx is
// cancelled. A failed pass is logged and retried on the next tick.
func (s *TopicScheduler) Run(ctx context.Context, interval time.Duration) {
	s.tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *TopicScheduler) tick(ctx context.Context) {
	if _, _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		slog.Error("topic scheduler pass failed", "error", err)
	}
}

func (s *TopicScheduler) RunOnce(ctx context.Context) (opened int64, closed int64, err error) {
	now := s.now().UTC()

	opened, err = s.store.OpenScheduled(ctx, now)
	if err != nil {
		return 0, 0, err
	}
	if opened > 0 {
		slog.Info("topics moved from scheduled to open", "count", opened)
		publish(s.events, event.Event{Type: event.TypeTopicsOpened, Payload: map[string]any{"count": opened}})
	}

	closed, err = s.store.CloseExpired(ctx, now)
	if err != nil {
		return opened, 0, err
	}
	if closed > 0 {
		slog.Info("topics moved from open to closed", "count", closed)
		publish(s.events, event.Event{Type: event.TypeTopicsClosed, Payload: map[string]any{"count": closed}})
	}

	return opened, closed, nil
}
