package infrastructure

import (
	"context"
	"log"
	"time"

	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/outbox"
)

// OutboxRelay polls the outbox table and publishes pending records to the
// bus. A record is marked published only after a successful publish, so a
// crash between the two re-publishes on the next tick; consumers dedupe by
// event id.
type OutboxRelay struct {
	store     outbox.Store
	publisher events.Publisher
	tick      time.Duration
	batchSize int
}

// NewOutboxRelay creates a relay with the default tick and batch size.
func NewOutboxRelay(store outbox.Store, publisher events.Publisher) *OutboxRelay {
	return &OutboxRelay{
		store:     store,
		publisher: publisher,
		tick:      time.Second,
		batchSize: 100,
	}
}

// Run polls until the context is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RelayPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RelayPending publishes one batch of unpublished records. Failures are
// logged and retried on the next invocation.
func (r *OutboxRelay) RelayPending(ctx context.Context) {
	records, err := r.store.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		log.Printf("outbox relay: failed to fetch records: %v", err)
		return
	}

	for _, record := range records {
		if err := r.publisher.Publish(ctx, record.Event()); err != nil {
			log.Printf("outbox relay: failed to publish event %s: %v", record.EventID, err)
			continue
		}
		if err := r.store.MarkPublished(ctx, record.EventID); err != nil {
			log.Printf("outbox relay: failed to mark event %s published: %v", record.EventID, err)
		}
	}
}
