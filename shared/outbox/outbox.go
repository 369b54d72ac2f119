// Package outbox implements the transactional-outbox contract: a repository
// persists an aggregate mutation and the records of the events it emitted in
// one database transaction, and a relay later publishes the records to the
// bus. Either both the state change and the event commit, or neither does.
package outbox

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// Record is an event envelope flattened for storage.
type Record struct {
	EventID       models.ID
	CorrelationID models.ID
	CausationID   models.ID
	AggregateID   models.ID
	AggregateType string
	EventType     string
	Version       int
	Source        string
	Payload       []byte
	Timestamp     time.Time
	PublishedAt   *time.Time
}

// NewRecord flattens an event envelope into an outbox record.
func NewRecord(event *events.Event) (*Record, error) {
	payload, err := event.MarshalPayload()
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal outbox payload")
	}
	return &Record{
		EventID:       event.ID,
		CorrelationID: event.CorrelationID,
		CausationID:   event.CausationID,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		EventType:     event.EventType,
		Version:       event.Version,
		Source:        string(event.Source),
		Payload:       payload,
		Timestamp:     event.Timestamp,
	}, nil
}

// Event rebuilds the wire envelope from a stored record.
func (r *Record) Event() *events.Event {
	return &events.Event{
		ID:            r.EventID,
		CorrelationID: r.CorrelationID,
		CausationID:   r.CausationID,
		AggregateID:   r.AggregateID,
		AggregateType: r.AggregateType,
		EventType:     r.EventType,
		Version:       r.Version,
		Source:        events.Source(r.Source),
		Timestamp:     r.Timestamp,
		Payload:       r.Payload,
	}
}

// Store persists outbox records. AppendTx-style atomicity lives in the
// postgres implementation; the interface exposes what the relay needs.
type Store interface {
	FetchUnpublished(ctx context.Context, limit int) ([]*Record, error)
	MarkPublished(ctx context.Context, eventID models.ID) error
}
