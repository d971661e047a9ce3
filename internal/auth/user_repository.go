package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusvoice/portal/internal/infrastructure/database"
)

// UserRepository defines the interface for user account persistence.
// There is deliberately no operation that changes a user's role.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	CountByRole(ctx context.Context, role Role) (int, error)
}

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db database.Querier
}

// NewUserRepository creates a user repository over db, which may be a
// connection or an open transaction.
func NewUserRepository(db database.Querier) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

const userColumns = "id, username, email, password_hash, role, created_at"

// Create inserts a new user account. The ID is generated if empty and the
// email is stored lower-cased.
//
// Duplicate username or email is rejected by the UNIQUE indexes; the
// returned error wraps the driver error so database.AsUniqueViolation
// can report which column fired.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	if !IsValidRole(user.Role) {
		return fmt.Errorf("creating user: invalid role %q", user.Role)
	}
	if user.ID == "" {
		user.ID = "usr-" + uuid.NewString()
	}
	user.Email = NormalizeEmail(user.Email)

	now := time.Now().UTC().Truncate(time.Second)
	user.CreatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash, string(user.Role),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their unique ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetByUsername retrieves a user by exact username.
func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", NormalizeEmail(email))
}

// CountByRole returns the number of accounts holding role.
func (r *SQLiteUserRepository) CountByRole(ctx context.Context, role Role) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role = ?", string(role)).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

func (r *SQLiteUserRepository) getUser(ctx context.Context, query string, args ...any) (*User, error) {
	return scanUserFrom(r.db.QueryRowContext(ctx, query, args...))
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUserFrom(s scanner) (*User, error) {
	var u User
	var role, createdAt string

	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.Role = Role(role)
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled

	return &u, nil
}

// NormalizeEmail trims and lower-cases an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
