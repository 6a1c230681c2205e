package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrEventNotFound           = errors.New("event not found")
	ErrCapacityBelowRegistered = errors.New("capacity cannot be lower than the number of participants")
)

type Event struct {
	ID          uint      `gorm:"primaryKey"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	Category    string    `gorm:"not null;index"` // "Technical", "Cultural" or "Sports"
	Date        time.Time `gorm:"not null;index"`
	Venue       string    `gorm:"not null"`
	Capacity    int       `gorm:"not null;default:100"`
	BannerURL   string
	OrganizerID uint   `gorm:"not null;index"`
	Organizer   User   `gorm:"foreignKey:OrganizerID"`
	Status      string `gorm:"not null;default:pending;index"`
	IsPaid      bool   `gorm:"not null;default:false"`
	Price       float64
	// Participants is the seat cache. It is written only in the same
	// transaction as the registration that owns the seat.
	Participants []EventParticipant `gorm:"foreignKey:EventID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type EventParticipant struct {
	EventID   uint `gorm:"primaryKey"`
	UserID    uint `gorm:"primaryKey;index"`
	CreatedAt time.Time
}

type EventFilter struct {
	Category string
	Status   string
	Search   string
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	if err := d.db.WithContext(ctx).Omit("Organizer", "Participants").Create(&event).Error; err != nil {
		return Event{}, err
	}

	return d.FindByID(ctx, event.ID)
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).
		Preload("Organizer").
		Preload("Participants").
		First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) Find(ctx context.Context, filter EventFilter) ([]Event, error) {
	var events []Event

	query := d.db.WithContext(ctx).
		Preload("Organizer").
		Preload("Participants").
		Order("date ASC")
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}

// FindBetween returns events with the given status dated in [from, to).
func (d *EventDAO) FindBetween(ctx context.Context, status string, from, to time.Time) ([]Event, error) {
	var events []Event

	err := d.db.WithContext(ctx).
		Preload("Participants").
		Where("status = ? AND date >= ? AND date < ?", status, from, to).
		Order("date ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	return events, nil
}

// Update applies the column updates. A capacity change is checked against the
// current seat count under the event row lock.
func (d *EventDAO) Update(ctx context.Context, id uint, updates map[string]interface{}) (Event, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockEvent(tx, id); err != nil {
			return err
		}

		if capacity, ok := updates["capacity"]; ok {
			seats, err := countSeats(tx, id)
			if err != nil {
				return err
			}
			if int64(capacity.(int)) < seats {
				return ErrCapacityBelowRegistered
			}
		}

		return tx.Model(&Event{ID: id}).Updates(updates).Error
	})
	if err != nil {
		return Event{}, err
	}

	return d.FindByID(ctx, id)
}

func (d *EventDAO) UpdateStatus(ctx context.Context, id uint, status string) (Event, error) {
	return d.updateColumn(ctx, id, "status", status)
}

func (d *EventDAO) UpdateBanner(ctx context.Context, id uint, url string) (Event, error) {
	return d.updateColumn(ctx, id, "banner_url", url)
}

func (d *EventDAO) updateColumn(ctx context.Context, id uint, column string, value interface{}) (Event, error) {
	result := d.db.WithContext(ctx).Model(&Event{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return Event{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Event{}, ErrEventNotFound
	}

	return d.FindByID(ctx, id)
}

// Delete removes the event and its seats. Registrations stay behind and are
// filtered out when read.
func (d *EventDAO) Delete(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&Event{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEventNotFound
		}

		return tx.Where("event_id = ?", id).Delete(&EventParticipant{}).Error
	})
}

func (d *EventDAO) Count(ctx context.Context, status string) (int64, error) {
	var count int64

	query := d.db.WithContext(ctx).Model(&Event{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func lockEvent(tx *gorm.DB, id uint) (Event, error) {
	var event Event

	result := tx.Clauses(forUpdate).First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

func countSeats(tx *gorm.DB, eventID uint) (int64, error) {
	var seats int64

	err := tx.Model(&EventParticipant{}).Where("event_id = ?", eventID).Count(&seats).Error

	return seats, err
}
