package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gaetanBloch/meal-order/restaurant-service/domain"
	sharedinfra "github.com/gaetanBloch/meal-order/shared/infrastructure"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// PostgresOrderApprovalRepository implements OrderApprovalRepository using
// PostgreSQL. Save commits the approval row and the recorded events' outbox
// rows in one transaction.
type PostgresOrderApprovalRepository struct {
	db     *sqlx.DB
	outbox *sharedinfra.PostgresOutboxStore
}

// NewPostgresOrderApprovalRepository creates a new PostgresOrderApprovalRepository
func NewPostgresOrderApprovalRepository(db *sqlx.DB, outbox *sharedinfra.PostgresOutboxStore) *PostgresOrderApprovalRepository {
	return &PostgresOrderApprovalRepository{db: db, outbox: outbox}
}

type postgresOrderApproval struct {
	ID           string    `db:"id"`
	RestaurantID string    `db:"restaurant_id"`
	OrderID      string    `db:"order_id"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
}

// Save persists the approval decision and its events
func (r *PostgresOrderApprovalRepository) Save(ctx context.Context, restaurant *domain.Restaurant) error {
	if restaurant.OrderApproval == nil {
		return errors.New("no order approval to save")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	approval := restaurant.OrderApproval
	query := `
		INSERT INTO order_approvals (id, restaurant_id, order_id, status, created_at)
		VALUES (:id, :restaurant_id, :order_id, :status, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, &postgresOrderApproval{
		ID:           approval.ID.String(),
		RestaurantID: approval.RestaurantID.String(),
		OrderID:      approval.OrderID.String(),
		Status:       string(approval.Status),
		CreatedAt:    approval.CreatedAt.CreatedAt,
	}); err != nil {
		return errors.Wrap(err, "failed to insert order approval")
	}

	if err := r.outbox.AppendTx(ctx, tx, restaurant.Events()...); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit order approval save")
}

// FindByOrderID finds the latest approval decision for an order
func (r *PostgresOrderApprovalRepository) FindByOrderID(ctx context.Context, orderID models.ID) (*domain.OrderApproval, error) {
	query := `
		SELECT id, restaurant_id, order_id, status, created_at
		FROM order_approvals
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var row postgresOrderApproval
	if err := r.db.GetContext(ctx, &row, query, orderID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find order approval")
	}

	return &domain.OrderApproval{
		ID:           models.ID(row.ID),
		RestaurantID: models.ID(row.RestaurantID),
		OrderID:      models.ID(row.OrderID),
		Status:       domain.ApprovalStatus(row.Status),
		CreatedAt:    models.Timestamps{CreatedAt: row.CreatedAt, UpdatedAt: row.CreatedAt},
	}, nil
}
