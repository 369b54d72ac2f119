package infrastructure

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// PostgresInbox implements saga.Inbox: an event id is recorded per handler
// once its handler has succeeded, so a redelivered event is dropped while a
// previously failed one is retried.
type PostgresInbox struct {
	db *sqlx.DB
}

// NewPostgresInbox creates a new PostgresInbox
func NewPostgresInbox(db *sqlx.DB) *PostgresInbox {
	return &PostgresInbox{db: db}
}

// WasProcessed reports whether the (handler, event) pair is already recorded.
func (i *PostgresInbox) WasProcessed(ctx context.Context, handlerID, eventID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM processed_events
			WHERE handler_id = $1 AND event_id = $2
		)`

	var seen bool
	if err := i.db.GetContext(ctx, &seen, query, handlerID, eventID); err != nil {
		return false, errors.Wrap(err, "failed to check processed event")
	}
	return seen, nil
}

// MarkProcessed records the pair after the handler succeeded. The conflict
// clause keeps a concurrent duplicate delivery from failing the handler.
func (i *PostgresInbox) MarkProcessed(ctx context.Context, handlerID, eventID string) error {
	query := `
		INSERT INTO processed_events (handler_id, event_id, processed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (handler_id, event_id) DO NOTHING`

	if _, err := i.db.ExecContext(ctx, query, handlerID, eventID); err != nil {
		return errors.Wrap(err, "failed to record processed event")
	}
	return nil
}
