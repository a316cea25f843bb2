package mail

import (
	"context"
	"log/slog"
	"time"
)

// Dispatcher queues outbound mail and delivers it on a background worker.
// Enqueue never blocks: when the queue is full the message is dropped and
// logged, matching the service contract that mail failures never fail the
// operation that triggered them.
type Dispatcher struct {
	mailer      Mailer
	queue       chan Message
	logger      *slog.Logger
	sendTimeout time.Duration
}

func NewDispatcher(mailer Mailer, queueSize int, sendTimeout time.Duration, logger *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		mailer:      mailer,
		queue:       make(chan Message, queueSize),
		logger:      logger,
		sendTimeout: sendTimeout,
	}
}

// Enqueue hands a message to the worker.
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("mail queue full, dropping message",
			"to", msg.To,
			"subject", msg.Subject)
	}
}

// Run delivers queued messages until ctx is canceled. Provider errors are
// logged and the worker moves on.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-d.queue:
			sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
			if err := d.mailer.Send(sendCtx, msg); err != nil {
				d.logger.Error("failed to send email",
					"to", msg.To,
					"subject", msg.Subject,
					"error", err)
			}
			cancel()
		}
	}
}
