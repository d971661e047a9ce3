package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusvoice/portal/internal/infrastructure/logging"
)

// Session lifetime and flash defaults.
const (
	DefaultSessionTTL = 24 * time.Hour
	DefaultMaxFlash   = 10
)

// SessionManagerConfig holds session lifecycle settings.
type SessionManagerConfig struct {
	// TTL is the absolute session lifetime. Sessions are never renewed.
	TTL time.Duration

	// MaxFlash caps the flash queue; the oldest message is dropped first.
	MaxFlash int
}

// userLookup is the part of UserRepository the session manager needs.
type userLookup interface {
	GetByID(ctx context.Context, id string) (*User, error)
}

// SessionManager drives the session lifecycle:
// Anonymous → Authenticated → (Expired | LoggedOut).
//
// It holds no per-session state in memory; every call goes to the store,
// so any number of requests may share it.
type SessionManager struct {
	store    SessionStore
	users    userLookup
	ttl      time.Duration
	maxFlash int
	logger   *logging.Logger
	now      func() time.Time
}

// NewSessionManager creates a session manager. Zero config values fall back
// to DefaultSessionTTL and DefaultMaxFlash.
func NewSessionManager(store SessionStore, users userLookup, cfg SessionManagerConfig, logger *logging.Logger) *SessionManager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if cfg.MaxFlash <= 0 {
		cfg.MaxFlash = DefaultMaxFlash
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &SessionManager{
		store:    store,
		users:    users,
		ttl:      cfg.TTL,
		maxFlash: cfg.MaxFlash,
		logger:   logger.With("component", "sessions"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// TTL returns the configured session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Load returns the live session behind token and the identity it carries.
//
// It never fails. A missing, malformed, unknown or expired token, a store
// error, or a session whose user no longer exists all yield Anonymous.
// The returned session is nil unless a live record was found; an anonymous
// record (or one whose user is gone) is still returned so its flash queue
// and return path remain usable.
func (m *SessionManager) Load(ctx context.Context, token string) (*Session, Identity) {
	if !isWellFormedToken(token) {
		return nil, Anonymous
	}

	s, err := m.store.Get(ctx, HashToken(token))
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			m.logger.Warn("session lookup failed", "error", err)
		}
		return nil, Anonymous
	}

	if s.Expired(m.now()) {
		if err := m.store.Delete(ctx, s.ID); err != nil {
			m.logger.Warn("deleting expired session", "error", err)
		}
		return nil, Anonymous
	}

	if s.UserID == "" {
		return s, Anonymous
	}

	user, err := m.users.GetByID(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return s, Anonymous
		}
		m.logger.Warn("resolving session user failed", "error", err)
		return nil, Anonymous
	}

	return s, Identity{UserID: user.ID, Role: user.Role}
}

// Resolve maps a cookie token to an identity. Any failure is Anonymous.
func (m *SessionManager) Resolve(ctx context.Context, token string) Identity {
	_, id := m.Load(ctx, token)
	return id
}

// Start creates an anonymous session, used to carry a flash message or
// return path before the visitor has logged in.
func (m *SessionManager) Start(ctx context.Context) (*Session, string, error) {
	return m.create(ctx, Anonymous, nil)
}

// Login issues a fresh session for id. The prior session, if any, is
// deleted so its token cannot be replayed, and its return path is handed
// back exactly once. Pending flash messages carry over.
func (m *SessionManager) Login(ctx context.Context, prior *Session, id Identity) (*Session, string, string, error) {
	if !id.IsAuthenticated() {
		return nil, "", "", fmt.Errorf("login: %w", ErrNotAuthenticated)
	}

	var returnTo string
	var flash []Flash
	if prior != nil {
		returnTo = prior.ReturnTo
		flash = prior.Flash
	}

	s, token, err := m.create(ctx, id, flash)
	if err != nil {
		return nil, "", "", err
	}

	if prior != nil {
		if err := m.store.Delete(ctx, prior.ID); err != nil {
			m.logger.Warn("deleting pre-login session", "error", err)
		}
	}
	return s, token, returnTo, nil
}

// Logout deletes the session record; its token stops resolving immediately.
// Logging out a nil session is a no-op.
func (m *SessionManager) Logout(ctx context.Context, s *Session) error {
	if s == nil {
		return nil
	}
	if err := m.store.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// SetReturnTo remembers the path to send the visitor to after login.
// Only local absolute paths are accepted; anything else is ignored.
func (m *SessionManager) SetReturnTo(ctx context.Context, s *Session, path string) error {
	if !IsLocalPath(path) {
		return nil
	}
	if err := m.store.SetReturnTo(ctx, s.ID, path); err != nil {
		return err
	}
	s.ReturnTo = path
	return nil
}

// AddFlash queues a one-shot message on s. s.Flash is refreshed from the
// store, so it includes messages queued by concurrent requests.
func (m *SessionManager) AddFlash(ctx context.Context, s *Session, kind FlashKind, text string) error {
	queue, err := m.store.AppendFlash(ctx, s.ID, Flash{Kind: kind, Text: text}, m.maxFlash)
	if err != nil {
		return err
	}
	s.Flash = queue
	return nil
}

// TakeFlash returns and clears the queued messages. A session loaded with
// an empty queue skips the store.
func (m *SessionManager) TakeFlash(ctx context.Context, s *Session) ([]Flash, error) {
	if s == nil || len(s.Flash) == 0 {
		return nil, nil
	}
	flash, err := m.store.TakeFlash(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.Flash = nil
	return flash, nil
}

// Prune deletes expired session records and returns how many were removed.
func (m *SessionManager) Prune(ctx context.Context) (int64, error) {
	n, err := m.store.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	return n, nil
}

func (m *SessionManager) create(ctx context.Context, id Identity, flash []Flash) (*Session, string, error) {
	token, err := NewSessionToken()
	if err != nil {
		return nil, "", err
	}

	now := m.now()
	s := &Session{
		ID:        HashToken(token),
		UserID:    id.UserID,
		Flash:     flash,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, s); err != nil {
		return nil, "", err
	}
	return s, token, nil
}

// IsLocalPath reports whether p is a same-site absolute path, rejecting
// scheme-relative ("//host") and backslash forms browsers treat as hosts.
func IsLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") {
		return false
	}
	if strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	return !strings.ContainsAny(p, "\r\n")
}
