package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// gatedPublisher blocks every delivery until release is closed.
type gatedPublisher struct {
	release chan struct{}

	mu   sync.Mutex
	got  []Event
	fail bool
}

func newGatedPublisher() *gatedPublisher {
	return &gatedPublisher{release: make(chan struct{})}
}

func (p *gatedPublisher) Publish(ctx context.Context, e Event) error {
	select {
	case <-p.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, e)
	if p.fail {
		return errors.New("broker unavailable")
	}
	return nil
}

func (p *gatedPublisher) delivered() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.got...)
}

func TestDispatcher_PublishDoesNotWaitForDelivery(t *testing.T) {
	next := newGatedPublisher()
	d := NewDispatcher(next, nil)
	d.Start(context.Background())

	start := time.Now()
	if err := d.Publish(context.Background(), New(TypeUserRegistered, nil)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Publish() took %v while delivery was blocked", elapsed)
	}
	if n := len(next.delivered()); n != 0 {
		t.Fatalf("delivered %d events before release, want 0", n)
	}

	close(next.release)
	d.Stop()

	if got := next.delivered(); len(got) != 1 || got[0].Type != TypeUserRegistered {
		t.Errorf("delivered = %+v, want one %s event", got, TypeUserRegistered)
	}
}

func TestDispatcher_StopDrainsInOrder(t *testing.T) {
	next := newGatedPublisher()
	close(next.release)
	d := NewDispatcher(next, nil)

	types := []string{TypeUserRegistered, TypeFeedbackSubmitted, TypeSuggestionSubmitted, TypeSuggestionStatusChanged}
	for _, typ := range types {
		if err := d.Publish(context.Background(), New(typ, nil)); err != nil {
			t.Fatalf("Publish(%s) error = %v", typ, err)
		}
	}

	d.Start(context.Background())
	d.Stop()

	got := next.delivered()
	if len(got) != len(types) {
		t.Fatalf("delivered %d events, want %d", len(got), len(types))
	}
	for i, typ := range types {
		if got[i].Type != typ {
			t.Errorf("event %d = %s, want %s", i, got[i].Type, typ)
		}
	}
}

func TestDispatcher_QueueFull(t *testing.T) {
	d := NewDispatcher(Noop{}, nil)

	for i := 0; i < dispatchBufferSize; i++ {
		if err := d.Publish(context.Background(), New(TypeFeedbackSubmitted, nil)); err != nil {
			t.Fatalf("Publish() #%d error = %v", i, err)
		}
	}
	if err := d.Publish(context.Background(), New(TypeFeedbackSubmitted, nil)); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Publish() on full queue error = %v, want ErrQueueFull", err)
	}
}

func TestDispatcher_DeliveryErrorKeepsWorkerRunning(t *testing.T) {
	next := newGatedPublisher()
	next.fail = true
	close(next.release)
	d := NewDispatcher(next, nil)
	d.Start(context.Background())

	for i := 0; i < 3; i++ {
		if err := d.Publish(context.Background(), New(TypeSuggestionSubmitted, nil)); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}
	d.Stop()

	if n := len(next.delivered()); n != 3 {
		t.Errorf("delivery attempts = %d, want 3", n)
	}
}

func TestDispatcher_CancelledRequestContextStillDelivers(t *testing.T) {
	next := newGatedPublisher()
	close(next.release)
	d := NewDispatcher(next, nil)
	d.Start(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Publish(ctx, New(TypeFeedbackSubmitted, nil)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	d.Stop()

	if n := len(next.delivered()); n != 1 {
		t.Errorf("delivered %d events, want 1", n)
	}
}

func TestDispatcher_StopWithoutStart(t *testing.T) {
	d := NewDispatcher(Noop{}, nil)
	d.Stop()
}
