package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

type Notification struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	Message   string `gorm:"not null"`
	Type      string `gorm:"not null;default:info"` // "info", "warning", "success" or "error"
	Read      bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type NotificationDAO struct {
	db *gorm.DB
}

func NewNotificationDAO(db *gorm.DB) *NotificationDAO {
	return &NotificationDAO{
		db: db,
	}
}

func (d *NotificationDAO) Insert(ctx context.Context, notifications ...Notification) ([]Notification, error) {
	if len(notifications) == 0 {
		return nil, nil
	}

	if err := d.db.WithContext(ctx).Create(&notifications).Error; err != nil {
		return nil, err
	}

	return notifications, nil
}

func (d *NotificationDAO) FindByUser(ctx context.Context, userID uint, limit int) ([]Notification, error) {
	var notifications []Notification

	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}

	return notifications, nil
}

func (d *NotificationDAO) MarkRead(ctx context.Context, id, userID uint) error {
	result := d.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

func (d *NotificationDAO) MarkAllRead(ctx context.Context, userID uint) error {
	return d.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
}

func (d *NotificationDAO) Delete(ctx context.Context, id, userID uint) error {
	result := d.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}
