// Package notify publishes domain events to RabbitMQ for out-of-band delivery.
//
// Publishing is fire-and-forget: events are queued in memory and sent by a
// background worker, and a broker failure never fails the request that
// produced the event.
package notify

import (
	"context"
	"time"
)

// Event types.
const (
	EventMessageBroadcast          = "message.broadcast"
	EventContributionStatusChanged = "contribution.status_changed"
	EventDonationStatusChanged     = "donation.status_changed"
	EventRegisteredForEvent        = "event.registered"
)

// Event is the payload written to the queue.
type Event struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	ActorID    uint                   `json:"actor_id,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// New stamps an event of type typ.
func New(typ string, actorID uint, payload map[string]interface{}) Event {
	return Event{Type: typ, OccurredAt: time.Now().UTC(), ActorID: actorID, Payload: payload}
}

// Publisher accepts events for asynchronous delivery.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) {}
