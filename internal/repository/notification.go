package repository

import (
	"context"
	"fmt"

	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/repository/dao"
)

var ErrNotificationNotFound = dao.ErrNotificationNotFound

type NotificationDAO interface {
	Insert(ctx context.Context, notifications ...dao.Notification) ([]dao.Notification, error)
	FindByUser(ctx context.Context, userID uint, limit int) ([]dao.Notification, error)
	MarkRead(ctx context.Context, id, userID uint) error
	MarkAllRead(ctx context.Context, userID uint) error
	Delete(ctx context.Context, id, userID uint) error
}

type NotificationRepository struct {
	dao NotificationDAO
}

func NewNotificationRepository(dao NotificationDAO) *NotificationRepository {
	return &NotificationRepository{
		dao: dao,
	}
}

func (r *NotificationRepository) Create(ctx context.Context, notifications ...domain.Notification) ([]domain.Notification, error) {
	rows := make([]dao.Notification, len(notifications))
	for i, n := range notifications {
		rows[i] = dao.Notification{
			UserID:  n.UserID,
			Message: n.Message,
			Type:    string(n.Type),
		}
	}

	created, err := r.dao.Insert(ctx, rows...)
	if err != nil {
		return nil, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	out := make([]domain.Notification, len(created))
	for i, n := range created {
		out[i] = notificationDaoToDomain(n)
	}

	return out, nil
}

func (r *NotificationRepository) FindByUser(ctx context.Context, userID uint, limit int) ([]domain.Notification, error) {
	found, err := r.dao.FindByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByUser -> %w", err)
	}

	out := make([]domain.Notification, len(found))
	for i, n := range found {
		out[i] = notificationDaoToDomain(n)
	}

	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uint) error {
	if err := r.dao.MarkRead(ctx, id, userID); err != nil {
		return fmt.Errorf("r.dao.MarkRead -> %w", err)
	}

	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint) error {
	if err := r.dao.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("r.dao.MarkAllRead -> %w", err)
	}

	return nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID uint) error {
	if err := r.dao.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func notificationDaoToDomain(n dao.Notification) domain.Notification {
	return domain.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Message:   n.Message,
		Type:      domain.NotificationType(n.Type),
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
