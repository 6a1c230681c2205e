package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/mailer"
)

// ErrUndeliverable marks a message that no retry can fix.
var ErrUndeliverable = errors.New("undeliverable message")

type Store interface {
	FindPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	MarkSent(ctx context.Context, id uint, at time.Time) error
	MarkAttemptFailed(ctx context.Context, id uint, reason string, giveUp bool) error
}

// Transport hands a message to whatever sends it.
type Transport interface {
	Deliver(ctx context.Context, msg domain.OutboxMessage) error
}

type Relay struct {
	store        Store
	transport    Transport
	pollInterval time.Duration
	batchSize    int
	maxAttempts  int
	newBackOff   func() backoff.BackOff
	now          func() time.Time
}

func NewRelay(store Store, transport Transport, pollInterval time.Duration, batchSize, maxAttempts int) *Relay {
	return &Relay{
		store:        store,
		transport:    transport,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxAttempts:  maxAttempts,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = 15 * time.Second
			return backoff.WithMaxRetries(b, 3)
		},
		now: time.Now,
	}
}

// Run polls for pending messages until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		if err := r.Flush(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zap.L().Error("outbox flush failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Flush delivers one batch of pending messages in id order.
func (r *Relay) Flush(ctx context.Context) error {
	msgs, err := r.store.FindPending(ctx, r.batchSize)
	if err != nil {
		return fmt.Errorf("r.store.FindPending -> %w", err)
	}

	for _, msg := range msgs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.deliver(ctx, msg)
	}

	return nil
}

func (r *Relay) deliver(ctx context.Context, msg domain.OutboxMessage) {
	log := zap.L().With(zap.Uint("outbox_id", msg.ID), zap.String("kind", string(msg.Kind)))

	err := backoff.Retry(func() error {
		return r.transport.Deliver(ctx, msg)
	}, backoff.WithContext(r.newBackOff(), ctx))
	if err == nil {
		if err = r.store.MarkSent(ctx, msg.ID, r.now()); err != nil {
			log.Error("failed to mark outbox message sent", zap.Error(err))
		}
		return
	}

	if ctx.Err() != nil {
		return
	}

	giveUp := errors.Is(err, ErrUndeliverable) || msg.Attempts+1 >= r.maxAttempts

	log.Warn("outbox delivery failed", zap.Error(err), zap.Int("attempts", msg.Attempts+1), zap.Bool("give_up", giveUp))
	if markErr := r.store.MarkAttemptFailed(ctx, msg.ID, err.Error(), giveUp); markErr != nil {
		log.Error("failed to record outbox failure", zap.Error(markErr))
	}
}

// MailTransport renders and sends the message directly.
type MailTransport struct {
	renderer *mailer.Renderer
	mailer   mailer.Mailer
}

func NewMailTransport(renderer *mailer.Renderer, m mailer.Mailer) *MailTransport {
	return &MailTransport{renderer: renderer, mailer: m}
}

func (t *MailTransport) Deliver(ctx context.Context, msg domain.OutboxMessage) error {
	rendered, err := t.renderer.Render(msg)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("%w: %v", ErrUndeliverable, err))
	}

	return t.mailer.Send(ctx, rendered)
}
