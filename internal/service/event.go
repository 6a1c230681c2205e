package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/thenamerahulkr/cems/internal/domain"
)

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	Find(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error)
	Update(ctx context.Context, id uint, update domain.EventUpdate) (domain.Event, error)
	UpdateStatus(ctx context.Context, id uint, status domain.EventStatus) (domain.Event, error)
	UpdateBanner(ctx context.Context, id uint, url string) (domain.Event, error)
	Delete(ctx context.Context, id uint) error
}

type AdminDirectory interface {
	FindByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

type BannerStorage interface {
	Enabled() bool
	UploadImage(ctx context.Context, publicID string, file io.Reader) (string, error)
}

type EventService struct {
	repo     EventRepository
	users    AdminDirectory
	storage  BannerStorage
	notifier Notifier
	now      func() time.Time
}

func NewEventService(repo EventRepository, users AdminDirectory, storage BannerStorage, notifier Notifier) *EventService {
	return &EventService{
		repo:     repo,
		users:    users,
		storage:  storage,
		notifier: notifier,
		now:      time.Now,
	}
}

// Create stores a new event as pending and lets the admins know.
func (s *EventService) Create(ctx context.Context, actor domain.User, event domain.Event) (domain.Event, error) {
	if event.Capacity <= 0 {
		event.Capacity = domain.DefaultCapacity
	}
	if !event.IsPaid {
		event.Price = 0
	}
	if event.IsPaid && event.Price <= 0 {
		return domain.Event{}, ErrInvalidPrice
	}

	event.OrganizerID = actor.ID
	event.Status = domain.EventStatusPending

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return domain.Event{}, wrap("s.repo.Create", err)
	}

	admins, err := s.users.FindByRole(ctx, domain.RoleAdmin)
	if err != nil {
		zap.L().Warn("failed to list admins", zap.Error(err))
	} else {
		ids := make([]uint, 0, len(admins))
		for _, a := range admins {
			if a.ID != actor.ID {
				ids = append(ids, a.ID)
			}
		}
		s.notifier.Notify(ctx, fmt.Sprintf("New event \"%s\" by %s is awaiting approval", created.Title, actor.Name), domain.NotificationInfo, ids...)
	}

	return created, nil
}

func (s *EventService) List(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	events, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, wrap("s.repo.Find", err)
	}

	return events, nil
}

func (s *EventService) Get(ctx context.Context, id uint) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, wrap("s.repo.FindByID", err)
	}

	return event, nil
}

// Update applies a partial update. Only the owner or an admin may edit.
func (s *EventService) Update(ctx context.Context, actor domain.User, id uint, update domain.EventUpdate) (domain.Event, error) {
	event, err := s.owned(ctx, actor, id)
	if err != nil {
		return domain.Event{}, err
	}

	isPaid, price := event.IsPaid, event.Price
	if update.IsPaid != nil {
		isPaid = *update.IsPaid
	}
	if update.Price != nil {
		price = *update.Price
	}
	if isPaid && price <= 0 {
		return domain.Event{}, ErrInvalidPrice
	}

	if update.Capacity != nil && *update.Capacity < len(event.Participants) {
		return domain.Event{}, ErrCapacityBelowRegistered
	}

	updated, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return domain.Event{}, wrap("s.repo.Update", err)
	}

	return updated, nil
}

func (s *EventService) Delete(ctx context.Context, actor domain.User, id uint) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return wrap("s.repo.Delete", err)
	}

	return nil
}

// UploadBanner stores the image and points the event at it.
func (s *EventService) UploadBanner(ctx context.Context, actor domain.User, id uint, file io.Reader) (domain.Event, error) {
	if !s.storage.Enabled() {
		return domain.Event{}, ErrStorageUnavailable
	}

	if _, err := s.owned(ctx, actor, id); err != nil {
		return domain.Event{}, err
	}

	url, err := s.storage.UploadImage(ctx, fmt.Sprintf("event_%d_%d", id, s.now().Unix()), file)
	if err != nil {
		return domain.Event{}, gatewayError("s.storage.UploadImage", err)
	}

	updated, err := s.repo.UpdateBanner(ctx, id, url)
	if err != nil {
		return domain.Event{}, wrap("s.repo.UpdateBanner", err)
	}

	return updated, nil
}

func (s *EventService) Approve(ctx context.Context, id uint) (domain.Event, error) {
	event, err := s.setStatus(ctx, id, domain.EventStatusApproved)
	if err != nil {
		return domain.Event{}, err
	}

	s.notifier.Notify(ctx, fmt.Sprintf("Your event \"%s\" has been approved!", event.Title), domain.NotificationSuccess, event.OrganizerID)

	return event, nil
}

func (s *EventService) Reject(ctx context.Context, id uint) (domain.Event, error) {
	event, err := s.setStatus(ctx, id, domain.EventStatusRejected)
	if err != nil {
		return domain.Event{}, err
	}

	s.notifier.Notify(ctx, fmt.Sprintf("Your event \"%s\" has been rejected.", event.Title), domain.NotificationError, event.OrganizerID)

	return event, nil
}

func (s *EventService) setStatus(ctx context.Context, id uint, status domain.EventStatus) (domain.Event, error) {
	event, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return domain.Event{}, wrap("s.repo.UpdateStatus", err)
	}

	return event, nil
}

func (s *EventService) owned(ctx context.Context, actor domain.User, id uint) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, wrap("s.repo.FindByID", err)
	}
	if !actor.CanManage(event.OrganizerID) {
		return domain.Event{}, ErrNotOwner
	}

	return event, nil
}
