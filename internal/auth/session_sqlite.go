package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campusvoice/portal/internal/infrastructure/database"
)

const sessionTimeFormat = database.TimestampFormat

// sessionDB is the database surface the session store needs. InTx must
// take the write lock at BEGIN (database.Open sets _txlock=immediate), so
// flash read-modify-write cycles on one row are serialised.
type sessionDB interface {
	database.Querier
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// SQLiteSessionStore implements SessionStore on the sessions table.
type SQLiteSessionStore struct {
	db sessionDB
}

// NewSQLiteSessionStore creates a SQLite-backed session store.
func NewSQLiteSessionStore(db sessionDB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

// Create inserts a new session record.
func (st *SQLiteSessionStore) Create(ctx context.Context, s *Session) error {
	flash, err := encodeFlash(s.Flash)
	if err != nil {
		return err
	}

	_, err = st.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, return_to, flash, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, nullString(s.UserID), s.ReturnTo, flash,
		s.CreatedAt.UTC().Format(sessionTimeFormat),
		s.ExpiresAt.UTC().Format(sessionTimeFormat),
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID (the token hash).
func (st *SQLiteSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	var userID sql.NullString
	var flash, createdAt, expiresAt string

	err := st.db.QueryRowContext(ctx,
		`SELECT id, user_id, return_to, flash, created_at, expires_at FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &userID, &s.ReturnTo, &flash, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}

	s.UserID = userID.String
	if err := json.Unmarshal([]byte(flash), &s.Flash); err != nil {
		return nil, fmt.Errorf("decoding session flash: %w", err)
	}
	if s.CreatedAt, err = time.Parse(sessionTimeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing session created_at: %w", err)
	}
	if s.ExpiresAt, err = time.Parse(sessionTimeFormat, expiresAt); err != nil {
		return nil, fmt.Errorf("parsing session expires_at: %w", err)
	}
	return &s, nil
}

// SetReturnTo stores the post-login path.
func (st *SQLiteSessionStore) SetReturnTo(ctx context.Context, id, path string) error {
	result, err := st.db.ExecContext(ctx, "UPDATE sessions SET return_to = ? WHERE id = ?", path, id)
	if err != nil {
		return fmt.Errorf("updating session return path: %w", err)
	}
	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// AppendFlash adds a message to the stored queue inside one transaction.
func (st *SQLiteSessionStore) AppendFlash(ctx context.Context, id string, f Flash, limit int) ([]Flash, error) {
	var queue []Flash
	err := st.db.InTx(ctx, func(tx *sql.Tx) error {
		current, err := readFlash(ctx, tx, id)
		if err != nil {
			return err
		}
		queue = appendFlash(current, f, limit)
		return writeFlash(ctx, tx, id, queue)
	})
	if err != nil {
		return nil, err
	}
	return queue, nil
}

// TakeFlash reads and clears the stored queue inside one transaction.
func (st *SQLiteSessionStore) TakeFlash(ctx context.Context, id string) ([]Flash, error) {
	var queue []Flash
	err := st.db.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		if queue, err = readFlash(ctx, tx, id); err != nil {
			return err
		}
		if len(queue) == 0 {
			return nil
		}
		return writeFlash(ctx, tx, id, nil)
	})
	if err != nil {
		return nil, err
	}
	return queue, nil
}

func readFlash(ctx context.Context, q database.Querier, id string) ([]Flash, error) {
	var raw string
	err := q.QueryRowContext(ctx, "SELECT flash FROM sessions WHERE id = ?", id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("reading session flash: %w", err)
	}
	var queue []Flash
	if err := json.Unmarshal([]byte(raw), &queue); err != nil {
		return nil, fmt.Errorf("decoding session flash: %w", err)
	}
	return queue, nil
}

func writeFlash(ctx context.Context, q database.Querier, id string, queue []Flash) error {
	encoded, err := encodeFlash(queue)
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, "UPDATE sessions SET flash = ? WHERE id = ?", encoded, id); err != nil {
		return fmt.Errorf("updating session flash: %w", err)
	}
	return nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (st *SQLiteSessionStore) Delete(ctx context.Context, id string) error {
	if _, err := st.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions whose expiry is at or before now.
func (st *SQLiteSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := st.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at <= ?", now.UTC().Format(sessionTimeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return n, nil
}

func encodeFlash(flash []Flash) (string, error) {
	if len(flash) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(flash)
	if err != nil {
		return "", fmt.Errorf("encoding session flash: %w", err)
	}
	return string(b), nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
