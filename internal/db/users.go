package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mini-drive/backend/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string, roles []string) (*model.User, error) {
	query := `
		INSERT INTO users (username, password_hash, roles, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, username, password_hash, roles, created_at, updated_at, disabled_at
	`
	var user model.User
	err := s.Pool.QueryRow(ctx, query, username, passwordHash, roles).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Roles,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DisabledAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
		SELECT id, username, password_hash, roles, created_at, updated_at, disabled_at
		FROM users
		WHERE username = $1
	`
	var user model.User
	err := s.Pool.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Roles,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DisabledAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	query := `
		SELECT id, username, password_hash, roles, created_at, updated_at, disabled_at
		FROM users
		WHERE id = $1
	`
	var user model.User
	err := s.Pool.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Roles,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DisabledAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns every account in creation order. Ordering includes the
// id tiebreak so pagination stays reproducible.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	query := `
		SELECT id, username, password_hash, roles, created_at, updated_at, disabled_at
		FROM users
		ORDER BY created_at, id
	`
	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.Roles,
			&user.CreatedAt,
			&user.UpdatedAt,
			&user.DisabledAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, updated_at = NOW()
		WHERE id = $2
	`
	tag, err := s.Pool.Exec(ctx, query, passwordHash, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DisableUser soft-disables an account. Rows are never hard-deleted so file
// ownership references stay intact.
func (s *Store) DisableUser(ctx context.Context, userID int64) (bool, error) {
	query := `
		UPDATE users
		SET disabled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND disabled_at IS NULL
	`
	tag, err := s.Pool.Exec(ctx, query, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	return exists, err
}
