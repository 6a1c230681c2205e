package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/outbox"
	"github.com/thenamerahulkr/cems/internal/repository"
)

const mailDateLayout = "Mon, 02 Jan 2006 15:04"

type OutboxRepository interface {
	Create(ctx context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error)
}

type MailEnqueuer interface {
	Enqueue(ctx context.Context, kind domain.MailKind, to domain.User, subject string, payload map[string]interface{})
}

// MailQueue writes mail intents to the outbox. The relay sends them later.
type MailQueue struct {
	repo        OutboxRepository
	frontendURL string
}

func NewMailQueue(repo OutboxRepository, frontendURL string) *MailQueue {
	return &MailQueue{
		repo:        repo,
		frontendURL: frontendURL,
	}
}

// Enqueue queues a one-off mail. Failures are logged and dropped.
func (q *MailQueue) Enqueue(ctx context.Context, kind domain.MailKind, to domain.User, subject string, payload map[string]interface{}) {
	if _, err := q.EnqueueOnce(ctx, outbox.NewKey(), kind, to, subject, payload); err != nil {
		zap.L().Warn("failed to queue mail",
			zap.String("kind", string(kind)),
			zap.Uint("user_id", to.ID),
			zap.Error(err),
		)
	}
}

// EnqueueOnce queues a mail under key. It reports false when a mail with the
// same key was queued before.
func (q *MailQueue) EnqueueOnce(ctx context.Context, key string, kind domain.MailKind, to domain.User, subject string, payload map[string]interface{}) (bool, error) {
	data := map[string]interface{}{
		"name":        to.Name,
		"frontendUrl": q.frontendURL,
	}
	for k, v := range payload {
		data[k] = v
	}

	_, err := q.repo.Create(ctx, domain.OutboxMessage{
		Key:       key,
		Kind:      kind,
		Recipient: to.Email,
		Subject:   subject,
		Payload:   data,
	})
	if err != nil {
		if errors.Is(err, repository.ErrOutboxKeyExists) {
			return false, nil
		}

		return false, fmt.Errorf("q.repo.Create -> %w", err)
	}

	return true, nil
}

func eventMailPayload(event domain.Event) map[string]interface{} {
	return map[string]interface{}{
		"eventTitle": event.Title,
		"eventDate":  event.Date.Format(mailDateLayout),
		"venue":      event.Venue,
	}
}
