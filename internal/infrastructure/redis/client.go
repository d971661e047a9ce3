// Package redis connects the portal to Redis, used as the optional
// session store backend (session.backend: redis).
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/campusvoice/portal/internal/infrastructure/config"
)

const defaultPingTimeout = 5 * time.Second

// Connect parses cfg.URL (redis://[user:pass@]host:port/db), opens a client
// and verifies it with PING.
func Connect(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}
