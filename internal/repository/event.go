package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/repository/dao"
)

var (
	ErrEventNotFound           = dao.ErrEventNotFound
	ErrCapacityBelowRegistered = dao.ErrCapacityBelowRegistered
)

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	Find(ctx context.Context, filter dao.EventFilter) ([]dao.Event, error)
	FindBetween(ctx context.Context, status string, from, to time.Time) ([]dao.Event, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (dao.Event, error)
	UpdateStatus(ctx context.Context, id uint, status string) (dao.Event, error)
	UpdateBanner(ctx context.Context, id uint, url string) (dao.Event, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context, status string) (int64, error)
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := r.dao.Insert(ctx, dao.Event{
		Title:       event.Title,
		Description: event.Description,
		Category:    string(event.Category),
		Date:        event.Date,
		Venue:       event.Venue,
		Capacity:    event.Capacity,
		BannerURL:   event.BannerURL,
		OrganizerID: event.OrganizerID,
		Status:      string(event.Status),
		IsPaid:      event.IsPaid,
		Price:       event.Price,
	})
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return eventDaoToDomain(created), nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return eventDaoToDomain(found), nil
}

func (r *EventRepository) Find(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	found, err := r.dao.Find(ctx, dao.EventFilter{
		Category: string(filter.Category),
		Status:   string(filter.Status),
		Search:   filter.Search,
	})
	if err != nil {
		return nil, fmt.Errorf("r.dao.Find -> %w", err)
	}

	return eventsDaoToDomain(found), nil
}

func (r *EventRepository) FindApprovedBetween(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	found, err := r.dao.FindBetween(ctx, string(domain.EventStatusApproved), from, to)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindBetween -> %w", err)
	}

	return eventsDaoToDomain(found), nil
}

func (r *EventRepository) Update(ctx context.Context, id uint, update domain.EventUpdate) (domain.Event, error) {
	updates := make(map[string]interface{})
	if update.Title != nil {
		updates["title"] = *update.Title
	}
	if update.Description != nil {
		updates["description"] = *update.Description
	}
	if update.Category != nil {
		updates["category"] = string(*update.Category)
	}
	if update.Date != nil {
		updates["date"] = *update.Date
	}
	if update.Venue != nil {
		updates["venue"] = *update.Venue
	}
	if update.Capacity != nil {
		updates["capacity"] = *update.Capacity
	}
	if update.IsPaid != nil {
		updates["is_paid"] = *update.IsPaid
	}
	if update.Price != nil {
		updates["price"] = *update.Price
	}

	if len(updates) == 0 {
		return r.FindByID(ctx, id)
	}

	updated, err := r.dao.Update(ctx, id, updates)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return eventDaoToDomain(updated), nil
}

func (r *EventRepository) UpdateStatus(ctx context.Context, id uint, status domain.EventStatus) (domain.Event, error) {
	updated, err := r.dao.UpdateStatus(ctx, id, string(status))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.UpdateStatus -> %w", err)
	}

	return eventDaoToDomain(updated), nil
}

func (r *EventRepository) UpdateBanner(ctx context.Context, id uint, url string) (domain.Event, error) {
	updated, err := r.dao.UpdateBanner(ctx, id, url)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.UpdateBanner -> %w", err)
	}

	return eventDaoToDomain(updated), nil
}

func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *EventRepository) Count(ctx context.Context, status domain.EventStatus) (int64, error) {
	count, err := r.dao.Count(ctx, string(status))
	if err != nil {
		return 0, fmt.Errorf("r.dao.Count -> %w", err)
	}

	return count, nil
}

func eventsDaoToDomain(found []dao.Event) []domain.Event {
	events := make([]domain.Event, len(found))
	for i, e := range found {
		events[i] = eventDaoToDomain(e)
	}

	return events
}

func eventDaoToDomain(e dao.Event) domain.Event {
	event := domain.Event{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		Category:     domain.EventCategory(e.Category),
		Date:         e.Date,
		Venue:        e.Venue,
		Capacity:     e.Capacity,
		BannerURL:    e.BannerURL,
		OrganizerID:  e.OrganizerID,
		Status:       domain.EventStatus(e.Status),
		IsPaid:       e.IsPaid,
		Price:        e.Price,
		Participants: make([]uint, len(e.Participants)),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}

	for i, p := range e.Participants {
		event.Participants[i] = p.UserID
	}

	if e.Organizer.ID != 0 {
		summary := userDaoToDomain(e.Organizer).Summary()
		event.Organizer = &summary
	}

	return event
}
