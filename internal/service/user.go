package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/thenamerahulkr/cems/internal/domain"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, wrap("s.repo.FindByID", err)
	}

	return user, nil
}

type AdminUserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	FindByRoleAndStatus(ctx context.Context, role domain.Role, status domain.UserStatus) ([]domain.User, error)
	Count(ctx context.Context, role domain.Role, status domain.UserStatus) (int64, error)
	UpdateStatus(ctx context.Context, id uint, role domain.Role, status domain.UserStatus) (domain.User, error)
	Delete(ctx context.Context, id uint) error
}

type EventCounter interface {
	Count(ctx context.Context, status domain.EventStatus) (int64, error)
}

type RegistrationCounter interface {
	Count(ctx context.Context) (int64, error)
}

type AdminService struct {
	users         AdminUserRepository
	events        EventCounter
	registrations RegistrationCounter
	notifier      Notifier
	mail          MailEnqueuer
}

func NewAdminService(users AdminUserRepository, events EventCounter, registrations RegistrationCounter, notifier Notifier, mail MailEnqueuer) *AdminService {
	return &AdminService{
		users:         users,
		events:        events,
		registrations: registrations,
		notifier:      notifier,
		mail:          mail,
	}
}

func (s *AdminService) Stats(ctx context.Context) (domain.Stats, error) {
	var (
		stats domain.Stats
		err   error
	)

	counts := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&stats.TotalUsers, func() (int64, error) { return s.users.Count(ctx, "", "") }},
		{&stats.TotalStudents, func() (int64, error) { return s.users.Count(ctx, domain.RoleStudent, "") }},
		{&stats.TotalOrganizers, func() (int64, error) { return s.users.Count(ctx, domain.RoleOrganizer, "") }},
		{&stats.PendingOrganizers, func() (int64, error) {
			return s.users.Count(ctx, domain.RoleOrganizer, domain.UserStatusPending)
		}},
		{&stats.TotalEvents, func() (int64, error) { return s.events.Count(ctx, "") }},
		{&stats.PendingEvents, func() (int64, error) { return s.events.Count(ctx, domain.EventStatusPending) }},
		{&stats.ApprovedEvents, func() (int64, error) { return s.events.Count(ctx, domain.EventStatusApproved) }},
		{&stats.TotalRegistrations, func() (int64, error) { return s.registrations.Count(ctx) }},
	}

	for _, c := range counts {
		if *c.dst, err = c.fn(); err != nil {
			return domain.Stats{}, fmt.Errorf("s.Stats -> %w", err)
		}
	}

	return stats, nil
}

func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, wrap("s.users.FindAll", err)
	}

	return users, nil
}

func (s *AdminService) PendingOrganizers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.FindByRoleAndStatus(ctx, domain.RoleOrganizer, domain.UserStatusPending)
	if err != nil {
		return nil, wrap("s.users.FindByRoleAndStatus", err)
	}

	return users, nil
}

// DeleteUser removes an account together with its registrations and
// notifications. An admin cannot delete itself.
func (s *AdminService) DeleteUser(ctx context.Context, actor domain.User, id uint) error {
	if actor.ID == id {
		return ErrDeleteSelf
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return wrap("s.users.Delete", err)
	}

	return nil
}

func (s *AdminService) ApproveOrganizer(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.setOrganizerStatus(ctx, id, domain.UserStatusApproved)
	if err != nil {
		return domain.User{}, err
	}

	s.notifier.Notify(ctx, "Your organizer account has been approved. You can now create events.", domain.NotificationSuccess, user.ID)
	s.mail.Enqueue(ctx, domain.MailOrganizerApproved, user, "Your CEMS organizer account is approved", nil)

	return user, nil
}

func (s *AdminService) RejectOrganizer(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.setOrganizerStatus(ctx, id, domain.UserStatusRejected)
	if err != nil {
		return domain.User{}, err
	}

	s.notifier.Notify(ctx, "Your organizer account request has been rejected.", domain.NotificationError, user.ID)
	s.mail.Enqueue(ctx, domain.MailOrganizerRejected, user, "Your CEMS organizer account request", nil)

	return user, nil
}

func (s *AdminService) setOrganizerStatus(ctx context.Context, id uint, status domain.UserStatus) (domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, wrap("s.users.FindByID", err)
	}
	if user.Role != domain.RoleOrganizer {
		return domain.User{}, ErrNotOrganizer
	}

	updated, err := s.users.UpdateStatus(ctx, id, domain.RoleOrganizer, status)
	if err != nil {
		return domain.User{}, wrap("s.users.UpdateStatus", err)
	}

	zap.L().Info("organizer status changed", zap.Uint("user_id", id), zap.String("status", string(status)))

	return updated, nil
}
