package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrOutboxKeyExists = errors.New("outbox message already exists")

const outboxKeyIndex = "idx_outbox_messages_key"

type OutboxMessage struct {
	ID        uint           `gorm:"primaryKey"`
	Key       string         `gorm:"not null;uniqueIndex:idx_outbox_messages_key"`
	Kind      string         `gorm:"not null"`
	Recipient string         `gorm:"not null"`
	Subject   string         `gorm:"not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	Status    string         `gorm:"not null;default:pending;index"` // "pending", "sent" or "failed"
	Attempts  int            `gorm:"not null;default:0"`
	LastError string
	SentAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OutboxDAO struct {
	db *gorm.DB
}

func NewOutboxDAO(db *gorm.DB) *OutboxDAO {
	return &OutboxDAO{
		db: db,
	}
}

func (d *OutboxDAO) Insert(ctx context.Context, msg OutboxMessage) (OutboxMessage, error) {
	if err := d.db.WithContext(ctx).Create(&msg).Error; err != nil {
		if isUniqueViolation(err, outboxKeyIndex) {
			return OutboxMessage{}, ErrOutboxKeyExists
		}

		return OutboxMessage{}, err
	}

	return msg, nil
}

// FindPending returns the oldest pending messages first.
func (d *OutboxDAO) FindPending(ctx context.Context, limit int) ([]OutboxMessage, error) {
	var msgs []OutboxMessage

	err := d.db.WithContext(ctx).
		Where("status = ?", "pending").
		Order("id ASC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}

	return msgs, nil
}

func (d *OutboxDAO) MarkSent(ctx context.Context, id uint, at time.Time) error {
	return d.db.WithContext(ctx).Model(&OutboxMessage{ID: id}).Updates(map[string]interface{}{
		"status":   "sent",
		"sent_at":  at,
		"attempts": gorm.Expr("attempts + 1"),
	}).Error
}

// MarkAttemptFailed records a failed delivery. When giveUp is set the
// message leaves the pending queue.
func (d *OutboxDAO) MarkAttemptFailed(ctx context.Context, id uint, reason string, giveUp bool) error {
	updates := map[string]interface{}{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": reason,
	}
	if giveUp {
		updates["status"] = "failed"
	}

	return d.db.WithContext(ctx).Model(&OutboxMessage{ID: id}).Updates(updates).Error
}
