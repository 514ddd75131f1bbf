// Package events publishes domain events (orders, low stock) to a message broker.
package events

import (
	"context"
	"sync"
	"time"
)

// Event routing keys
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	InventoryLowStock  = "inventory.low_stock"
)

// Event is one message on the bus
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// New stamps an event with the current time
func New(eventType string, payload interface{}) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload}
}

// Publisher sends events. Publishing happens after the database commit, so a
// failed publish never undoes a write.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event. Used when no broker is configured.
type Nop struct{}

// Publish drops e
func (Nop) Publish(context.Context, Event) error { return nil }

// Close does nothing
func (Nop) Close() error { return nil }

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish appends e to the recorded events
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Close does nothing; recorded events stay readable
func (r *Recorder) Close() error { return nil }

// Events returns a copy of what was published so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
