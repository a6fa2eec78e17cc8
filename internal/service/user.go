package service

import (
	"context"

	"github.com/mini-drive/backend/internal/db"
	"github.com/mini-drive/backend/internal/model"
)

// UserAdminStore extends UserStore with the admin-only operations.
type UserAdminStore interface {
	UserStore
	ListUsers(ctx context.Context) ([]model.User, error)
	DisableUser(ctx context.Context, userID int64) (bool, error)
}

type UserService struct {
	users UserAdminStore
}

func NewUserService(users UserAdminStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Get(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

// Disable soft-disables an account. Disabling an already-disabled account
// reports not found rather than succeeding silently.
func (s *UserService) Disable(ctx context.Context, userID int64) error {
	disabled, err := s.users.DisableUser(ctx, userID)
	if err != nil {
		return err
	}
	if !disabled {
		return ErrNotFound
	}
	return nil
}
