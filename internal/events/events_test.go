package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/campusvoice/portal/internal/infrastructure/mqtt"
)

type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakeBroker struct {
	sent []published
	err  error
}

func (f *fakeBroker) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic, payload, qos, retained})
	return nil
}

func (f *fakeBroker) Topics() mqtt.Topics { return mqtt.NewTopics("campus") }
func (f *fakeBroker) QoS() byte           { return 1 }

func TestMQTTPublisher_Publish(t *testing.T) {
	b := &fakeBroker{}
	p := NewMQTTPublisher(b)

	e := New(TypeFeedbackSubmitted, map[string]any{"feedback_id": "fbk-1", "rating": 4})
	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(b.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(b.sent))
	}
	msg := b.sent[0]
	if msg.topic != "campus/events/feedback.submitted" {
		t.Errorf("topic = %q", msg.topic)
	}
	if msg.retained || msg.qos != 1 {
		t.Errorf("retained = %v, qos = %d, want false/1", msg.retained, msg.qos)
	}

	var got Event
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got.Type != TypeFeedbackSubmitted || got.Data["feedback_id"] != "fbk-1" || got.OccurredAt.IsZero() {
		t.Errorf("decoded event = %+v", got)
	}
}

func TestMQTTPublisher_BrokerError(t *testing.T) {
	p := NewMQTTPublisher(&fakeBroker{err: mqtt.ErrNotConnected})

	err := p.Publish(context.Background(), New(TypeUserRegistered, nil))
	if !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestMQTTPublisher_CancelledContext(t *testing.T) {
	b := &fakeBroker{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewMQTTPublisher(b).Publish(ctx, New(TypeUserRegistered, nil)); !errors.Is(err, context.Canceled) {
		t.Errorf("Publish() error = %v, want context.Canceled", err)
	}
	if len(b.sent) != 0 {
		t.Error("nothing should be sent after cancellation")
	}
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	if err := p.Publish(context.Background(), New(TypeSuggestionSubmitted, nil)); err != nil {
		t.Errorf("Noop.Publish() error = %v", err)
	}
}
