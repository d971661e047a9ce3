package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisSessionPrefix namespaces session keys.
const DefaultRedisSessionPrefix = "portal:session:"

// maxSessionTxRetries bounds optimistic-lock retries when another request
// changes the same session between WATCH and EXEC.
const maxSessionTxRetries = 10

// ErrSessionContention is returned when a session update kept losing the
// optimistic lock to concurrent writers.
var ErrSessionContention = errors.New("session update contention")

// RedisSessionStore implements SessionStore in Redis. Each session is one
// JSON value under prefix+ID whose Redis expiry equals ExpiresAt, so
// expired sessions disappear without a sweep.
type RedisSessionStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(rdb *redis.Client, prefix string) *RedisSessionStore {
	if prefix == "" {
		prefix = DefaultRedisSessionPrefix
	}
	return &RedisSessionStore{rdb: rdb, prefix: prefix}
}

func (st *RedisSessionStore) key(id string) string {
	return st.prefix + id
}

// Create stores a new session; an existing key with the same ID is an error.
func (st *RedisSessionStore) Create(ctx context.Context, s *Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	err = st.rdb.SetArgs(ctx, st.key(s.ID), payload, redis.SetArgs{
		Mode:     "NX",
		ExpireAt: s.ExpiresAt,
	}).Err()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("creating session: id already exists")
	}
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (st *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := st.rdb.Get(ctx, st.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &s, nil
}

// SetReturnTo stores the post-login path, keeping the key's expiry.
func (st *RedisSessionStore) SetReturnTo(ctx context.Context, id, path string) error {
	return st.modify(ctx, id, func(s *Session) {
		s.ReturnTo = path
	})
}

// AppendFlash adds a message to the stored queue.
func (st *RedisSessionStore) AppendFlash(ctx context.Context, id string, f Flash, limit int) ([]Flash, error) {
	var queue []Flash
	err := st.modify(ctx, id, func(s *Session) {
		s.Flash = appendFlash(s.Flash, f, limit)
		queue = s.Flash
	})
	if err != nil {
		return nil, err
	}
	return queue, nil
}

// TakeFlash returns and clears the stored queue.
func (st *RedisSessionStore) TakeFlash(ctx context.Context, id string) ([]Flash, error) {
	var queue []Flash
	err := st.modify(ctx, id, func(s *Session) {
		queue = s.Flash
		s.Flash = nil
	})
	if err != nil {
		return nil, err
	}
	return queue, nil
}

// modify applies fn to the stored session under WATCH, retrying when a
// concurrent writer touches the key first. A session that has been deleted
// or has expired is not recreated.
func (st *RedisSessionStore) modify(ctx context.Context, id string, fn func(s *Session)) error {
	key := st.key(id)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("getting session: %w", err)
		}

		var s Session
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding session: %w", err)
		}
		fn(&s)
		payload, err := json.Marshal(&s)
		if err != nil {
			return fmt.Errorf("encoding session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, payload, redis.SetArgs{Mode: "XX", KeepTTL: true})
			return nil
		})
		return err
	}

	for range maxSessionTxRetries {
		err := st.rdb.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, redis.Nil):
			return ErrSessionNotFound
		case errors.Is(err, ErrSessionNotFound):
			return err
		default:
			return fmt.Errorf("updating session: %w", err)
		}
	}
	return fmt.Errorf("updating session: %w", ErrSessionContention)
}

// Delete removes a session.
func (st *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := st.rdb.Del(ctx, st.key(id)).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts keys at ExpiresAt.
func (st *RedisSessionStore) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}
