package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher decouples domain logic from audit persistence. Emit never blocks
// the request path: events go through a bounded inbox drained by Run, and are
// dropped with a log line when the inbox is full.
type Publisher struct {
	store  Store
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(store Store, buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Publisher{
		store:  store,
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Emit enqueues an event for background persistence.
func (p *Publisher) Emit(_ context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit inbox full, dropping event",
			"action", event.Action,
			"user_id", event.UserID)
	}
}

// Run drains the inbox until ctx is canceled. Append failures are logged and
// skipped; the trail is best-effort.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-p.inbox:
			if err := p.store.Append(ctx, event); err != nil {
				p.logger.Error("failed to append audit event",
					"action", event.Action,
					"user_id", event.UserID,
					"error", err)
			}
		}
	}
}

// List returns the persisted trail for one user.
func (p *Publisher) List(ctx context.Context, userID string) ([]Event, error) {
	return p.store.ListByUser(ctx, userID)
}
