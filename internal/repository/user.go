package repository

import (
	"context"
	"fmt"

	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/repository/dao"
)

var (
	ErrUserEmailExists = dao.ErrUserEmailExists
	ErrUserNotFound    = dao.ErrUserNotFound
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User) (dao.User, error)
	FindByID(ctx context.Context, id uint) (dao.User, error)
	FindByEmail(ctx context.Context, email string) (dao.User, error)
	Find(ctx context.Context, role, status string) ([]dao.User, error)
	Count(ctx context.Context, role, status string) (int64, error)
	UpdateStatus(ctx context.Context, id uint, role, status string) (dao.User, error)
	Delete(ctx context.Context, id uint) error
}

type UserRepository struct {
	dao UserDAO
}

func NewUserRepository(dao UserDAO) *UserRepository {
	return &UserRepository{
		dao: dao,
	}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	created, err := r.dao.Insert(ctx, dao.User{
		Name:       user.Name,
		Email:      user.Email,
		Password:   user.Password,
		Role:       string(user.Role),
		Status:     string(user.Status),
		Department: user.Department,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return userDaoToDomain(created), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return userDaoToDomain(found), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return userDaoToDomain(found), nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	return r.find(ctx, "", "")
}

func (r *UserRepository) FindByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return r.find(ctx, string(role), "")
}

func (r *UserRepository) FindByRoleAndStatus(ctx context.Context, role domain.Role, status domain.UserStatus) ([]domain.User, error) {
	return r.find(ctx, string(role), string(status))
}

func (r *UserRepository) find(ctx context.Context, role, status string) ([]domain.User, error) {
	found, err := r.dao.Find(ctx, role, status)
	if err != nil {
		return nil, fmt.Errorf("r.dao.Find -> %w", err)
	}

	users := make([]domain.User, len(found))
	for i, u := range found {
		users[i] = userDaoToDomain(u)
	}

	return users, nil
}

func (r *UserRepository) Count(ctx context.Context, role domain.Role, status domain.UserStatus) (int64, error) {
	count, err := r.dao.Count(ctx, string(role), string(status))
	if err != nil {
		return 0, fmt.Errorf("r.dao.Count -> %w", err)
	}

	return count, nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id uint, role domain.Role, status domain.UserStatus) (domain.User, error) {
	updated, err := r.dao.UpdateStatus(ctx, id, string(role), string(status))
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.UpdateStatus -> %w", err)
	}

	return userDaoToDomain(updated), nil
}

func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func userDaoToDomain(u dao.User) domain.User {
	return domain.User{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Password:   u.Password,
		Role:       domain.Role(u.Role),
		Status:     domain.UserStatus(u.Status),
		Department: u.Department,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
