package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrDuplicateEmail is returned by CreateUser when the email is already
// registered. The users table carries a unique index on email; a concurrent
// create losing the race surfaces as this error and callers fall back to
// re-fetching the existing row.
var ErrDuplicateEmail = errors.New("email already registered")

// uniqueViolation is the PostgreSQL error code for unique constraint failures
const uniqueViolation = "23505"

// UserStore persists user accounts
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a user store
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// FindByEmail returns the user with the given email, or sql.ErrNoRows
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, display_name, role, sso_provider_id,
			is_active, created_at, updated_at, last_login_at
		FROM users
		WHERE email = $1
	`, email).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.DisplayName,
		&user.Role, &user.SSOProviderID, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID returns the user with the given ID, or sql.ErrNoRows
func (s *UserStore) GetByID(ctx context.Context, id int64) (*User, error) {
	user := &User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, display_name, role, sso_provider_id,
			is_active, created_at, updated_at, last_login_at
		FROM users
		WHERE id = $1
	`, id).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.DisplayName,
		&user.Role, &user.SSOProviderID, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new user and fills in its ID. Returns
// ErrDuplicateEmail when the email is already taken.
func (s *UserStore) CreateUser(ctx context.Context, user *User) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, first_name, last_name, display_name, role, sso_provider_id,
			is_active, created_at, updated_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, true, NOW(), NOW(), NOW())
		RETURNING id
	`, user.Email, user.FirstName, user.LastName, user.DisplayName,
		user.Role, user.SSOProviderID).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.IsActive = true
	return nil
}

// TouchLogin records a successful login
func (s *UserStore) TouchLogin(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1
	`, id)
	return err
}
