package infrastructure

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
	"github.com/gaetanBloch/meal-order/shared/outbox"
)

// PostgresOutboxStore implements outbox.Store using PostgreSQL. Repositories
// call AppendTx inside the transaction that persists the aggregate so the
// mutation and the event records commit atomically.
type PostgresOutboxStore struct {
	db *sqlx.DB
}

// NewPostgresOutboxStore creates a new PostgresOutboxStore
func NewPostgresOutboxStore(db *sqlx.DB) *PostgresOutboxStore {
	return &PostgresOutboxStore{db: db}
}

// postgresOutboxRecord represents an outbox row in the database
type postgresOutboxRecord struct {
	EventID       string     `db:"event_id"`
	CorrelationID string     `db:"correlation_id"`
	CausationID   string     `db:"causation_id"`
	AggregateID   string     `db:"aggregate_id"`
	AggregateType string     `db:"aggregate_type"`
	EventType     string     `db:"event_type"`
	Version       int        `db:"version"`
	Source        string     `db:"source"`
	Payload       []byte     `db:"payload"`
	Timestamp     time.Time  `db:"timestamp"`
	PublishedAt   *time.Time `db:"published_at"`
}

// AppendTx inserts outbox rows for the given events within tx.
func (s *PostgresOutboxStore) AppendTx(ctx context.Context, tx *sqlx.Tx, evts ...*events.Event) error {
	query := `
		INSERT INTO outbox (
			event_id, correlation_id, causation_id, aggregate_id,
			aggregate_type, event_type, version, source, payload, timestamp
		) VALUES (
			:event_id, :correlation_id, :causation_id, :aggregate_id,
			:aggregate_type, :event_type, :version, :source, :payload, :timestamp
		)`

	for _, event := range evts {
		record, err := outbox.NewRecord(event)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, query, s.toPostgres(record)); err != nil {
			return errors.Wrap(err, "failed to insert outbox record")
		}
	}
	return nil
}

// FetchUnpublished returns the oldest unpublished records, up to limit.
func (s *PostgresOutboxStore) FetchUnpublished(ctx context.Context, limit int) ([]*outbox.Record, error) {
	query := `
		SELECT event_id, correlation_id, causation_id, aggregate_id,
			   aggregate_type, event_type, version, source, payload,
			   timestamp, published_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY timestamp ASC
		LIMIT $1`

	var rows []postgresOutboxRecord
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, errors.Wrap(err, "failed to fetch unpublished outbox records")
	}

	records := make([]*outbox.Record, len(rows))
	for i, row := range rows {
		records[i] = s.toDomain(&row)
	}
	return records, nil
}

// MarkPublished stamps a record as relayed to the bus.
func (s *PostgresOutboxStore) MarkPublished(ctx context.Context, eventID models.ID) error {
	query := `UPDATE outbox SET published_at = NOW() WHERE event_id = $1 AND published_at IS NULL`
	if _, err := s.db.ExecContext(ctx, query, eventID.String()); err != nil {
		return errors.Wrap(err, "failed to mark outbox record published")
	}
	return nil
}

func (s *PostgresOutboxStore) toPostgres(record *outbox.Record) *postgresOutboxRecord {
	return &postgresOutboxRecord{
		EventID:       record.EventID.String(),
		CorrelationID: record.CorrelationID.String(),
		CausationID:   record.CausationID.String(),
		AggregateID:   record.AggregateID.String(),
		AggregateType: record.AggregateType,
		EventType:     record.EventType,
		Version:       record.Version,
		Source:        record.Source,
		Payload:       record.Payload,
		Timestamp:     record.Timestamp,
	}
}

func (s *PostgresOutboxStore) toDomain(row *postgresOutboxRecord) *outbox.Record {
	return &outbox.Record{
		EventID:       models.ID(row.EventID),
		CorrelationID: models.ID(row.CorrelationID),
		CausationID:   models.ID(row.CausationID),
		AggregateID:   models.ID(row.AggregateID),
		AggregateType: row.AggregateType,
		EventType:     row.EventType,
		Version:       row.Version,
		Source:        row.Source,
		Payload:       row.Payload,
		Timestamp:     row.Timestamp,
		PublishedAt:   row.PublishedAt,
	}
}
