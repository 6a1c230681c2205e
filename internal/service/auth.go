package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/repository"
)

type AuthUserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	Count(ctx context.Context, role domain.Role, status domain.UserStatus) (int64, error)
}

type AuthService struct {
	repo     AuthUserRepository
	notifier Notifier
	mail     MailEnqueuer
}

func NewAuthService(repo AuthUserRepository, notifier Notifier, mail MailEnqueuer) *AuthService {
	return &AuthService{
		repo:     repo,
		notifier: notifier,
		mail:     mail,
	}
}

// Signup registers a student or an organizer. Organizers start pending and
// every admin is told about them.
func (s *AuthService) Signup(ctx context.Context, user domain.User) (domain.User, error) {
	if user.Role == domain.RoleAdmin {
		return domain.User{}, ErrAdminSignup
	}
	if user.Role == "" {
		user.Role = domain.RoleStudent
	}

	user.Email = normalizeEmail(user.Email)
	if err := s.checkEmailExists(ctx, user.Email); err != nil {
		return domain.User{}, err
	}

	hashedPassword, err := hashPassword(user.Password)
	if err != nil {
		return domain.User{}, err
	}
	user.Password = hashedPassword
	user.Status = domain.InitialStatus(user.Role)

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return domain.User{}, wrap("s.repo.Create", err)
	}

	if created.Role == domain.RoleOrganizer {
		s.notifyAdmins(ctx, fmt.Sprintf("New organizer %s (%s) is awaiting approval", created.Name, created.Email))
	}

	s.mail.Enqueue(ctx, domain.MailWelcome, created, "Welcome to CEMS", map[string]interface{}{
		"role": string(created.Role),
	})

	return created, nil
}

// Login checks the credentials. Organizers are let in only once approved.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrWrongCredentials
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrWrongCredentials
	}

	if user.Role == domain.RoleOrganizer {
		switch user.Status {
		case domain.UserStatusPending:
			return user, ErrOrganizerPending
		case domain.UserStatusRejected:
			return user, ErrOrganizerRejected
		}
	}

	return user, nil
}

// EnsureAdmin creates the bootstrap admin when no admin exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	count, err := s.repo.Count(ctx, domain.RoleAdmin, "")
	if err != nil {
		return fmt.Errorf("s.repo.Count -> %w", err)
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return err
	}

	admin, err := s.repo.Create(ctx, domain.User{
		Name:     name,
		Email:    normalizeEmail(email),
		Password: hashedPassword,
		Role:     domain.RoleAdmin,
		Status:   domain.UserStatusApproved,
	})
	if err != nil {
		return wrap("s.repo.Create", err)
	}

	zap.L().Info("admin account created", zap.String("email", admin.Email))

	return nil
}

func (s *AuthService) notifyAdmins(ctx context.Context, message string) {
	admins, err := s.repo.FindByRole(ctx, domain.RoleAdmin)
	if err != nil {
		zap.L().Warn("failed to list admins", zap.Error(err))
		return
	}

	ids := make([]uint, len(admins))
	for i, a := range admins {
		ids[i] = a.ID
	}
	s.notifier.Notify(ctx, message, domain.NotificationInfo, ids...)
}

func (s *AuthService) checkEmailExists(ctx context.Context, email string) error {
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return ErrUserEmailExists
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt.GenerateFromPassword -> %w", err)
	}

	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
