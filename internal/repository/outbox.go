package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/repository/dao"
)

var ErrOutboxKeyExists = dao.ErrOutboxKeyExists

type OutboxDAO interface {
	Insert(ctx context.Context, msg dao.OutboxMessage) (dao.OutboxMessage, error)
	FindPending(ctx context.Context, limit int) ([]dao.OutboxMessage, error)
	MarkSent(ctx context.Context, id uint, at time.Time) error
	MarkAttemptFailed(ctx context.Context, id uint, reason string, giveUp bool) error
}

type OutboxRepository struct {
	dao OutboxDAO
}

func NewOutboxRepository(dao OutboxDAO) *OutboxRepository {
	return &OutboxRepository{
		dao: dao,
	}
}

func (r *OutboxRepository) Create(ctx context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("json.Marshal -> %w", err)
	}

	created, err := r.dao.Insert(ctx, dao.OutboxMessage{
		Key:       msg.Key,
		Kind:      string(msg.Kind),
		Recipient: msg.Recipient,
		Subject:   msg.Subject,
		Payload:   datatypes.JSON(payload),
		Status:    string(domain.OutboxPending),
	})
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return outboxDaoToDomain(created)
}

func (r *OutboxRepository) FindPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	found, err := r.dao.FindPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindPending -> %w", err)
	}

	out := make([]domain.OutboxMessage, 0, len(found))
	for _, m := range found {
		msg, err := outboxDaoToDomain(m)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}

	return out, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uint, at time.Time) error {
	if err := r.dao.MarkSent(ctx, id, at); err != nil {
		return fmt.Errorf("r.dao.MarkSent -> %w", err)
	}

	return nil
}

func (r *OutboxRepository) MarkAttemptFailed(ctx context.Context, id uint, reason string, giveUp bool) error {
	if err := r.dao.MarkAttemptFailed(ctx, id, reason, giveUp); err != nil {
		return fmt.Errorf("r.dao.MarkAttemptFailed -> %w", err)
	}

	return nil
}

func outboxDaoToDomain(m dao.OutboxMessage) (domain.OutboxMessage, error) {
	msg := domain.OutboxMessage{
		ID:        m.ID,
		Key:       m.Key,
		Kind:      domain.MailKind(m.Kind),
		Recipient: m.Recipient,
		Subject:   m.Subject,
		Status:    domain.OutboxStatus(m.Status),
		Attempts:  m.Attempts,
		LastError: m.LastError,
		SentAt:    m.SentAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}

	if len(m.Payload) > 0 {
		if err := json.Unmarshal(m.Payload, &msg.Payload); err != nil {
			return domain.OutboxMessage{}, fmt.Errorf("json.Unmarshal outbox payload %d -> %w", m.ID, err)
		}
	}

	return msg, nil
}
