// Package events publishes portal domain events.
//
// Events are fire-and-forget notifications for downstream consumers
// (dashboards, notification workers). A failed publish never fails the
// request that caused it. Handlers publish through a Dispatcher, which
// queues events and delivers them to the MQTTPublisher in the background.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/campusvoice/portal/internal/infrastructure/mqtt"
)

// Event types.
const (
	TypeUserRegistered          = "user.registered"
	TypeFeedbackSubmitted       = "feedback.submitted"
	TypeSuggestionSubmitted     = "suggestion.submitted"
	TypeSuggestionStatusChanged = "suggestion.status_changed"
)

// Event is one domain event. Data must not carry credentials.
type Event struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// New returns an event of type t stamped with the current time.
func New(t string, data map[string]any) Event {
	return Event{Type: t, OccurredAt: time.Now().UTC(), Data: data}
}

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Noop discards every event. Used when MQTT is disabled.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Event) error { return nil }

// broker is the subset of *mqtt.Client used for publishing.
type broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Topics() mqtt.Topics
	QoS() byte
}

// MQTTPublisher sends events as JSON to {prefix}/events/{type}.
type MQTTPublisher struct {
	client broker
}

// NewMQTTPublisher wraps a connected MQTT client.
func NewMQTTPublisher(client broker) *MQTTPublisher {
	return &MQTTPublisher{client: client}
}

// Publish implements Publisher. Events are never retained.
func (p *MQTTPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", e.Type, err)
	}
	if err := p.client.Publish(p.client.Topics().Event(e.Type), payload, p.client.QoS(), false); err != nil {
		return fmt.Errorf("publishing event %s: %w", e.Type, err)
	}
	return nil
}
