// Package events defines domain events written to the transactional outbox.
package events

import (
	"context"
	"time"

	"freightdesk/internal/core/id"
)

// Event is a fact about an aggregate, published after its transaction commits.
type Event struct {
	ID            id.ID     `json:"id"`
	AggregateType string    `json:"aggregateType"`
	AggregateID   id.ID     `json:"aggregateId"`
	Type          string    `json:"type"`
	Payload       any       `json:"payload"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// New creates an event with a fresh ID.
func New(aggregateType string, aggregateID id.ID, eventType string, payload any, at time.Time) Event {
	return Event{
		ID:            id.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Type:          eventType,
		Payload:       payload,
		OccurredAt:    at.UTC(),
	}
}

// Publisher stores events in the caller's transaction.
type Publisher interface {
	Publish(ctx context.Context, evs ...Event) error
}

// Nop discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, ...Event) error { return nil }

// Recorder keeps published events in memory. Used by tests.
type Recorder struct {
	Events []Event
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, evs ...Event) error {
	r.Events = append(r.Events, evs...)
	return nil
}

// Types returns the type of each recorded event in order.
func (r *Recorder) Types() []string {
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type
	}
	return out
}

var (
	_ Publisher = Nop{}
	_ Publisher = (*Recorder)(nil)
)
