package influxdb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/campusvoice/portal/internal/infrastructure/config"
)

// Default timeouts for InfluxDB operations.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultPingTimeout    = 5 * time.Second

	// millisecondsPerSecond converts seconds to milliseconds for the InfluxDB API.
	millisecondsPerSecond = 1000

	defaultBatchSize    = 100
	defaultFlushSeconds = 10
)

// ServiceTag is added to every point so portal counters can share a bucket
// with other services.
const ServiceTag = "campus-portal"

// Client records portal activity counters in InfluxDB.
//
// Each login, registration and submission becomes one point in a batch.
// Points are sent in the background; a login never waits for InfluxDB,
// and a disconnected or closed client drops points. Failed batches are
// counted and reported through the OnError callback.
//
// Thread Safety:
//   - All methods are safe for concurrent use by request handlers.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	cfg      config.InfluxDBConfig

	// connected tracks current connection state.
	connected bool
	mu        sync.RWMutex

	// onError is called when async write errors occur.
	onError func(err error)

	// failures counts batches the server rejected or never received.
	failures atomic.Int64
}

// Connect prepares the counter sink for the portal.
//
// It performs the following setup:
//  1. Creates the client with token authentication and the service tag
//  2. Verifies the server answers a ping
//  3. Opens the batched write API for cfg.Org / cfg.Bucket
//  4. Starts the goroutine that reports async write failures
//
// Parameters:
//   - cfg: the influxdb section of the portal config
//
// Returns:
//   - *Client: ready to receive counters
//   - error: ErrDisabled when influxdb.enabled is false, or
//     ErrConnectionFailed when the server cannot be reached
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = defaultFlushSeconds
	}

	// #nosec G115 -- values validated above to be positive
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*millisecondsPerSecond). // Convert to milliseconds
			AddDefaultTag("service", ServiceTag),
	)

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)

	c := &Client{
		client:    client,
		writeAPI:  writeAPI,
		cfg:       cfg,
		connected: true,
	}

	go c.handleWriteErrors(writeAPI.Errors())

	return c, nil
}

// handleWriteErrors counts async write failures and forwards them to the
// OnError callback, if one is set.
func (c *Client) handleWriteErrors(errorsCh <-chan error) {
	for err := range errorsCh {
		c.failures.Add(1)

		c.mu.RLock()
		callback := c.onError
		c.mu.RUnlock()

		if callback != nil {
			callback(err)
		}
	}
}

// Close sends buffered counters and releases the client.
//
// Returns:
//   - error: always nil; the InfluxDB client cannot fail to close
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.writeAPI.Flush()
	c.client.Close()

	return nil
}

// HealthCheck pings the server. The portal runs it once at startup.
//
// Parameters:
//   - ctx: bounds the ping together with defaultPingTimeout
//
// Returns:
//   - error: ErrNotConnected after Close, otherwise the ping failure
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	checkCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	healthy, err := c.client.Ping(checkCtx)
	if err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	if !healthy {
		return fmt.Errorf("influxdb health check failed: server not healthy")
	}

	return nil
}

// IsConnected returns the last known connection state. Use HealthCheck
// for an active ping.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// SetOnError sets a callback for batches that failed to write.
// cmd/portal logs them; a failed batch never surfaces to a user.
func (c *Client) SetOnError(callback func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = callback
}

// WriteFailures returns how many batches have failed since Connect.
func (c *Client) WriteFailures() int64 {
	return c.failures.Load()
}

// Flush blocks until buffered counters are sent. No-op after Close.
func (c *Client) Flush() {
	if c.writeAPI == nil {
		return
	}

	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()

	if !connected {
		return
	}

	c.writeAPI.Flush()
}
