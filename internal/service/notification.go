package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/thenamerahulkr/cems/internal/domain"
)

const notificationListLimit = 50

type NotificationRepository interface {
	Create(ctx context.Context, notifications ...domain.Notification) ([]domain.Notification, error)
	FindByUser(ctx context.Context, userID uint, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID uint) error
	MarkAllRead(ctx context.Context, userID uint) error
	Delete(ctx context.Context, id, userID uint) error
}

// Notifier is the best effort side channel used by the other services.
type Notifier interface {
	Notify(ctx context.Context, message string, typ domain.NotificationType, userIDs ...uint)
}

// Publisher pushes a stored notification to live connections.
type Publisher interface {
	Publish(n domain.Notification)
}

type NotificationService struct {
	repo NotificationRepository
	pub  Publisher
}

func NewNotificationService(repo NotificationRepository, pub Publisher) *NotificationService {
	return &NotificationService{
		repo: repo,
		pub:  pub,
	}
}

// Notify stores one notification per user and pushes it live. It never fails
// the caller.
func (s *NotificationService) Notify(ctx context.Context, message string, typ domain.NotificationType, userIDs ...uint) {
	if len(userIDs) == 0 {
		return
	}

	batch := make([]domain.Notification, len(userIDs))
	for i, id := range userIDs {
		batch[i] = domain.Notification{UserID: id, Message: message, Type: typ}
	}

	created, err := s.repo.Create(ctx, batch...)
	if err != nil {
		zap.L().Warn("failed to store notification", zap.Uints("user_ids", userIDs), zap.Error(err))
		return
	}

	if s.pub == nil {
		return
	}
	for _, n := range created {
		s.pub.Publish(n)
	}
}

func (s *NotificationService) List(ctx context.Context, userID uint) ([]domain.Notification, error) {
	found, err := s.repo.FindByUser(ctx, userID, notificationListLimit)
	if err != nil {
		return nil, wrap("s.repo.FindByUser", err)
	}

	return found, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return wrap("s.repo.MarkRead", err)
	}

	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return wrap("s.repo.MarkAllRead", err)
	}

	return nil
}

func (s *NotificationService) Delete(ctx context.Context, id, userID uint) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return wrap("s.repo.Delete", err)
	}

	return nil
}
