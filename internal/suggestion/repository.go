package suggestion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusvoice/portal/internal/auth"
	"github.com/campusvoice/portal/internal/infrastructure/database"
)

// Repository defines the interface for suggestion persistence operations.
type Repository interface {
	Create(ctx context.Context, s *Suggestion) error
	Get(ctx context.Context, id string) (*Suggestion, error)
	ListByUser(ctx context.Context, userID string) ([]Suggestion, error)
	ListAll(ctx context.Context, status Status) ([]Suggestion, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db database.Querier
}

// NewSQLiteRepository creates a new SQLite-backed suggestion repository.
func NewSQLiteRepository(db database.Querier) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectQuery = `SELECT g.id, g.user_id, g.author_role, g.subject, g.description, g.status,
		g.submitted_at, g.updated_at, u.username
	FROM suggestions g
	JOIN users u ON u.id = g.user_id`

// Create validates and inserts s as pending.
func (r *SQLiteRepository) Create(ctx context.Context, s *Suggestion) error {
	if err := Validate(s); err != nil {
		return err
	}
	if !auth.IsValidRole(s.AuthorRole) {
		return fmt.Errorf("%w: unknown author role %q", ErrInvalidSuggestion, s.AuthorRole)
	}
	if s.ID == "" {
		s.ID = "sug-" + uuid.NewString()
	}
	now := time.Now().UTC()
	s.Status = StatusPending
	s.SubmittedAt = now
	s.UpdatedAt = now

	const query = `INSERT INTO suggestions (id, user_id, author_role, subject, description, status,
			submitted_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	ts := now.Format(database.TimestampFormat)
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, string(s.AuthorRole), s.Subject, s.Description, string(s.Status), ts, ts)
	if err != nil {
		return fmt.Errorf("inserting suggestion: %w", err)
	}
	return nil
}

// Get returns a suggestion by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Suggestion, error) {
	rows, err := r.query(ctx, selectQuery+" WHERE g.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrSuggestionNotFound
	}
	return &rows[0], nil
}

// ListByUser returns the suggestions submitted by userID, newest first.
func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]Suggestion, error) {
	return r.query(ctx, selectQuery+" WHERE g.user_id = ? ORDER BY g.submitted_at DESC", userID)
}

// ListAll returns every suggestion, newest first. A non-empty status filters
// to that review state.
func (r *SQLiteRepository) ListAll(ctx context.Context, status Status) ([]Suggestion, error) {
	if status == "" {
		return r.query(ctx, selectQuery+" ORDER BY g.submitted_at DESC")
	}
	if !IsValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	return r.query(ctx, selectQuery+" WHERE g.status = ? ORDER BY g.submitted_at DESC", string(status))
}

// UpdateStatus sets the review state of a suggestion.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !IsValidStatus(status) {
		return ErrInvalidStatus
	}
	result, err := r.db.ExecContext(ctx,
		"UPDATE suggestions SET status = ?, updated_at = ? WHERE id = ?",
		string(status), time.Now().UTC().Format(database.TimestampFormat), id)
	if err != nil {
		return fmt.Errorf("updating suggestion %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if n == 0 {
		return ErrSuggestionNotFound
	}
	return nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]Suggestion, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying suggestions: %w", err)
	}
	defer rows.Close()

	var out []Suggestion
	for rows.Next() {
		var s Suggestion
		var role, status, submittedAt, updatedAt string
		if err := rows.Scan(&s.ID, &s.UserID, &role, &s.Subject, &s.Description, &status,
			&submittedAt, &updatedAt, &s.AuthorName); err != nil {
			return nil, fmt.Errorf("scanning suggestion: %w", err)
		}
		s.AuthorRole = auth.Role(role)
		s.Status = Status(status)
		s.SubmittedAt, _ = time.Parse(database.TimestampFormat, submittedAt) //nolint:errcheck // format is controlled
		s.UpdatedAt, _ = time.Parse(database.TimestampFormat, updatedAt)     //nolint:errcheck // format is controlled
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating suggestions: %w", err)
	}
	return out, nil
}
