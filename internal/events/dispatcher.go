package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/campusvoice/portal/internal/infrastructure/logging"
)

const (
	// dispatchBufferSize is the buffer of the async publish channel.
	// Events beyond this are dropped to avoid back-pressure on requests.
	dispatchBufferSize = 256

	// deliveryTimeout bounds a single delivery attempt by the worker.
	deliveryTimeout = 10 * time.Second
)

// ErrQueueFull is returned by Dispatcher.Publish when the queue is full
// and the event was dropped.
var ErrQueueFull = errors.New("event queue full")

// Dispatcher queues events and delivers them to the wrapped Publisher from
// a single background goroutine, so callers never wait on the broker.
//
// Dispatcher implements Publisher.
type Dispatcher struct {
	next   Publisher
	logger *logging.Logger
	ch     chan Event

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewDispatcher creates a dispatcher delivering to next. Call Start before
// events are expected to flow.
func NewDispatcher(next Publisher, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Dispatcher{
		next:   next,
		logger: logger.With("component", "events"),
		ch:     make(chan Event, dispatchBufferSize),
		done:   make(chan struct{}),
	}
}

// Start launches the delivery goroutine. It runs until ctx is cancelled or
// Stop is called, then delivers what is still queued.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	go func() {
		defer close(d.done)
		d.run(ctx)
	}()
}

// Stop signals the worker and waits for queued events to be delivered.
func (d *Dispatcher) Stop() {
	if d.cancel == nil {
		return
	}
	d.once.Do(func() {
		d.cancel()
		<-d.done
	})
}

// Publish enqueues e without blocking. The caller's context is not used
// for delivery; it usually belongs to a request that has already finished
// by the time the broker is reached.
func (d *Dispatcher) Publish(_ context.Context, e Event) error {
	select {
	case d.ch <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	for {
		select {
		case e := <-d.ch:
			d.deliver(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-d.ch:
					d.deliver(e)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	if err := d.next.Publish(ctx, e); err != nil {
		d.logger.Warn("event delivery failed", "type", e.Type, "error", err)
	}
}
