package auth

import (
	"context"
	"time"
)

// FlashKind classifies a one-shot message for rendering.
type FlashKind string

// Flash kinds.
const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
	FlashInfo    FlashKind = "info"
)

// Flash is a one-shot message delivered on the next render and then cleared.
type Flash struct {
	Kind FlashKind `json:"kind"`
	Text string    `json:"text"`
}

// Session is the server-side record behind a session cookie.
//
// The record is fixed: it carries only the identity reference, an optional
// return path, the flash queue and its lifetime. ID is the SHA-256 of the
// cookie token; the token itself is never stored.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	ReturnTo  string    `json:"return_to,omitempty"`
	Flash     []Flash   `json:"flash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session has reached its expiry at now.
// It depends only on the stored ExpiresAt, so concurrent requests sharing
// a token all reach the same answer.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionStore persists session records.
//
// Get returns ErrSessionNotFound for an unknown ID. UserID and ExpiresAt
// are fixed at Create. SetReturnTo, AppendFlash and TakeFlash each change
// the stored record atomically, so concurrent requests sharing one token
// never overwrite each other's messages; they return ErrSessionNotFound
// for a session that is gone.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	SetReturnTo(ctx context.Context, id, path string) error
	// AppendFlash adds f to the queue, keeps at most limit messages
	// (oldest dropped) and returns the stored queue.
	AppendFlash(ctx context.Context, id string, f Flash, limit int) ([]Flash, error)
	// TakeFlash returns the stored queue and clears it.
	TakeFlash(ctx context.Context, id string) ([]Flash, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// appendFlash adds f to queue, keeping the newest limit entries.
func appendFlash(queue []Flash, f Flash, limit int) []Flash {
	queue = append(queue, f)
	if over := len(queue) - limit; limit > 0 && over > 0 {
		queue = append([]Flash(nil), queue[over:]...)
	}
	return queue
}
