// Package saga carries the conventions the choreography relies on. There is
// no central orchestrator: each service subscribes to the events it
// understands, reacts by mutating its own aggregate, and emits the next event
// in the chain. Compensation is a first-class transition (CANCELLING) driven
// by failure events, not a retry.
package saga

import (
	"context"
	"sync"

	"github.com/gaetanBloch/meal-order/shared/events"
)

// Inbox records processed event ids per handler so redelivered events are
// dropped. An event id is recorded only once its handler has succeeded; a
// failed attempt leaves no trace, so redelivery retries it.
type Inbox interface {
	WasProcessed(ctx context.Context, handlerID string, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, handlerID string, eventID string) error
}

// MemoryInbox is an in-process Inbox for tests and single-node setups.
type MemoryInbox struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryInbox() *MemoryInbox {
	return &MemoryInbox{seen: make(map[string]struct{})}
}

func (i *MemoryInbox) WasProcessed(_ context.Context, handlerID, eventID string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.seen[handlerID+"/"+eventID]
	return ok, nil
}

func (i *MemoryInbox) MarkProcessed(_ context.Context, handlerID, eventID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.seen[handlerID+"/"+eventID] = struct{}{}
	return nil
}

// idempotentHandler drops events whose id the inbox has already seen.
type idempotentHandler struct {
	inner events.EventHandler
	inbox Inbox
}

// Idempotent wraps a handler so that redelivery of an already-applied event
// id is a no-op, which is the core's only contract under at-least-once
// delivery. The event is marked only after the inner handler returns nil, so
// a delivery that failed transiently is handled again on redelivery instead
// of being lost.
func Idempotent(inner events.EventHandler, inbox Inbox) events.EventHandler {
	return &idempotentHandler{inner: inner, inbox: inbox}
}

func (h *idempotentHandler) HandlerID() string {
	return h.inner.HandlerID()
}

func (h *idempotentHandler) Handle(ctx context.Context, event *events.Event) error {
	seen, err := h.inbox.WasProcessed(ctx, h.inner.HandlerID(), event.ID.String())
	if err != nil {
		return err
	}
	if seen {
		return nil
	}
	if err := h.inner.Handle(ctx, event); err != nil {
		// Not marked: the transport redelivers and the handler retries.
		return err
	}
	return h.inbox.MarkProcessed(ctx, h.inner.HandlerID(), event.ID.String())
}

// KeyFunc extracts the serialization key from an event. Events sharing a key
// are handled one at a time; distinct keys proceed in parallel.
type KeyFunc func(event *events.Event) string

// ByAggregateID serializes per aggregate instance.
func ByAggregateID(event *events.Event) string {
	return event.AggregateID.String()
}

// ByCorrelationID serializes per saga instance.
func ByCorrelationID(event *events.Event) string {
	return event.CorrelationID.String()
}

// KeyedDispatcher enforces the single-writer rule for aggregates that are
// shared across concurrent saga instances, such as the credit ledger of one
// customer. Handlers for the same key never run concurrently.
type KeyedDispatcher struct {
	inner events.EventHandler
	key   KeyFunc

	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedDispatcher wraps a handler with per-key locking.
func NewKeyedDispatcher(inner events.EventHandler, key KeyFunc) *KeyedDispatcher {
	return &KeyedDispatcher{
		inner: inner,
		key:   key,
		locks: make(map[string]*entry),
	}
}

func (d *KeyedDispatcher) HandlerID() string {
	return d.inner.HandlerID()
}

func (d *KeyedDispatcher) Handle(ctx context.Context, event *events.Event) error {
	key := d.key(event)

	d.mu.Lock()
	e, ok := d.locks[key]
	if !ok {
		e = &entry{}
		d.locks[key] = e
	}
	e.refs++
	d.mu.Unlock()

	e.mu.Lock()
	err := d.inner.Handle(ctx, event)
	e.mu.Unlock()

	d.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(d.locks, key)
	}
	d.mu.Unlock()

	return err
}
