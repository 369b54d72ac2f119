package events

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Publisher that dispatches synchronously to every
// registered handler. Used for local wiring and for exercising the
// choreography end to end in tests; production wiring publishes through SNS.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers []EventHandler
}

// NewMemoryBus creates an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Register adds a handler. Every published event is offered to every handler;
// handlers ignore event types they do not understand.
func (b *MemoryBus) Register(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish implements Publisher. Handler errors propagate to the publisher so
// tests observe fatal handler failures immediately.
func (b *MemoryBus) Publish(ctx context.Context, evts ...*Event) error {
	b.mu.RLock()
	handlers := make([]EventHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, event := range evts {
		for _, handler := range handlers {
			if err := handler.Handle(ctx, event); err != nil {
				return err
			}
		}
	}
	return nil
}
