package service

import (
	"context"
	"log/slog"
	"time"

	"crowdpulse-api/internal/event"
	"crowdpulse-api/internal/model"
)

type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

type AuditService struct {
	store AuditStore
	now   func() time.Time
}

func NewAuditService(store AuditStore) *AuditService {
	return &AuditService{store: store, now: time.Now}
}

// Log records an audit entry. A write failure is logged and otherwise
// ignored; auditing never fails the request being audited.
func (s *AuditService) Log(ctx context.Context, entry model.AuditEntry) {
	if s == nil || s.store == nil {
		return
	}

	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = s.now().UTC()
	}
	if entry.Status == "" {
		entry.Status = model.AuditStatusSuccess
	}

	// The request context may be cancelled as soon as the response is written.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.store.Log(writeCtx, entry); err != nil {
		slog.Warn("failed to write audit entry", "action", entry.Action, "error", err)
	}
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	return s.store.Query(ctx, query)
}

// Consume records every event from events as an audit entry until the channel
// closes or ctx is cancelled.
func (s *AuditService) Consume(ctx context.Context, events <-chan event.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			s.Log(ctx, model.AuditEntry{
				Action:     string(e.Type),
				OccurredAt: e.OccurredAt,
				Actor:      model.AuditActor{UserID: e.ActorID},
				Resource:   e.ResourceID,
				Detail:     e.Payload,
			})
		}
	}
}
