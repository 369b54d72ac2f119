package infrastructure

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gaetanBloch/meal-order/order-service/domain"
	"github.com/gaetanBloch/meal-order/shared/events"
	sharedinfra "github.com/gaetanBloch/meal-order/shared/infrastructure"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL. Save
// commits the order mutation and the aggregate's recorded events as outbox
// rows in one transaction.
type PostgresOrderRepository struct {
	db     *sqlx.DB
	outbox *sharedinfra.PostgresOutboxStore
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(db *sqlx.DB, outbox *sharedinfra.PostgresOutboxStore) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db, outbox: outbox}
}

// postgresOrder represents an order in the database
type postgresOrder struct {
	ID              string    `db:"id"`
	CustomerID      string    `db:"customer_id"`
	RestaurantID    string    `db:"restaurant_id"`
	Street          string    `db:"street"`
	PostalCode      string    `db:"postal_code"`
	City            string    `db:"city"`
	Price           string    `db:"price"`
	TrackingID      string    `db:"tracking_id"`
	Status          string    `db:"status"`
	FailureMessages string    `db:"failure_messages"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
	Version         int       `db:"version"`
}

// postgresOrderItem represents an order item in the database
type postgresOrderItem struct {
	ID        int64  `db:"id"`
	OrderID   string `db:"order_id"`
	ProductID string `db:"product_id"`
	Label     string `db:"label"`
	Price     string `db:"price"`
	Quantity  int    `db:"quantity"`
	SubTotal  string `db:"sub_total"`
}

// Save persists the order and its recorded events atomically.
func (r *PostgresOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	created := false
	for _, event := range order.Events() {
		if event.EventType == events.OrderCreatedEvent {
			created = true
			break
		}
	}

	if created {
		if err := r.insertOrder(ctx, tx, order); err != nil {
			return err
		}
	} else {
		if err := r.updateOrder(ctx, tx, order); err != nil {
			return err
		}
	}

	if err := r.outbox.AppendTx(ctx, tx, order.Events()...); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit order save")
}

func (r *PostgresOrderRepository) insertOrder(ctx context.Context, tx *sqlx.Tx, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, customer_id, restaurant_id, street, postal_code, city,
			price, tracking_id, status, failure_messages,
			created_at, updated_at, version
		) VALUES (
			:id, :customer_id, :restaurant_id, :street, :postal_code, :city,
			:price, :tracking_id, :status, :failure_messages,
			:created_at, :updated_at, :version
		)`

	if _, err := tx.NamedExecContext(ctx, query, r.toPostgres(order)); err != nil {
		return errors.Wrap(err, "failed to insert order")
	}

	itemQuery := `
		INSERT INTO order_items (
			id, order_id, product_id, label, price, quantity, sub_total
		) VALUES (
			:id, :order_id, :product_id, :label, :price, :quantity, :sub_total
		)`
	for _, item := range order.Items {
		pgItem := &postgresOrderItem{
			ID:        item.ID,
			OrderID:   item.OrderID.String(),
			ProductID: item.Product.ID.String(),
			Label:     item.Product.Label,
			Price:     item.Price.String(),
			Quantity:  int(item.Quantity),
			SubTotal:  item.SubTotal.String(),
		}
		if _, err := tx.NamedExecContext(ctx, itemQuery, pgItem); err != nil {
			return errors.Wrap(err, "failed to insert order item")
		}
	}
	return nil
}

func (r *PostgresOrderRepository) updateOrder(ctx context.Context, tx *sqlx.Tx, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = :status, failure_messages = :failure_messages,
			updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	res, err := tx.NamedExecContext(ctx, query, map[string]interface{}{
		"id":               order.ID.String(),
		"status":           string(order.Status),
		"failure_messages": strings.Join(order.FailureMessages, domain.FailureMessageDelimiter),
		"updated_at":       order.Timestamps.UpdatedAt,
		"version":          order.Version.Value,
		"old_version":      order.Version.Value - 1, // Optimistic locking
	})
	if err != nil {
		return errors.Wrap(err, "failed to update order")
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return errors.New("order was modified concurrently")
	}
	return nil
}

// FindByID finds an order by ID
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	return r.findOne(ctx, `
		SELECT id, customer_id, restaurant_id, street, postal_code, city,
			   price, tracking_id, status, failure_messages,
			   created_at, updated_at, version
		FROM orders
		WHERE id = $1`, id.String())
}

// FindByTrackingID finds an order by tracking ID
func (r *PostgresOrderRepository) FindByTrackingID(ctx context.Context, trackingID models.ID) (*domain.Order, error) {
	return r.findOne(ctx, `
		SELECT id, customer_id, restaurant_id, street, postal_code, city,
			   price, tracking_id, status, failure_messages,
			   created_at, updated_at, version
		FROM orders
		WHERE tracking_id = $1`, trackingID.String())
}

func (r *PostgresOrderRepository) findOne(ctx context.Context, query, arg string) (*domain.Order, error) {
	var pgOrder postgresOrder
	err := r.db.GetContext(ctx, &pgOrder, query, arg)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Order not found
		}
		return nil, errors.Wrap(err, "failed to find order")
	}

	var pgItems []postgresOrderItem
	itemQuery := `
		SELECT id, order_id, product_id, label, price, quantity, sub_total
		FROM order_items
		WHERE order_id = $1
		ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &pgItems, itemQuery, pgOrder.ID); err != nil {
		return nil, errors.Wrap(err, "failed to find order items")
	}

	return r.toDomain(&pgOrder, pgItems)
}

func (r *PostgresOrderRepository) toPostgres(order *domain.Order) *postgresOrder {
	return &postgresOrder{
		ID:              order.ID.String(),
		CustomerID:      order.CustomerID.String(),
		RestaurantID:    order.RestaurantID.String(),
		Street:          order.DeliveryAddress.Street,
		PostalCode:      order.DeliveryAddress.PostalCode,
		City:            order.DeliveryAddress.City,
		Price:           order.Price.String(),
		TrackingID:      order.TrackingID.String(),
		Status:          string(order.Status),
		FailureMessages: strings.Join(order.FailureMessages, domain.FailureMessageDelimiter),
		CreatedAt:       order.Timestamps.CreatedAt,
		UpdatedAt:       order.Timestamps.UpdatedAt,
		Version:         order.Version.Value,
	}
}

func (r *PostgresOrderRepository) toDomain(pgOrder *postgresOrder, pgItems []postgresOrderItem) (*domain.Order, error) {
	price, err := models.NewMoneyFromString(pgOrder.Price)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order price")
	}

	items := make([]*domain.OrderItem, len(pgItems))
	for i, pgItem := range pgItems {
		itemPrice, err := models.NewMoneyFromString(pgItem.Price)
		if err != nil {
			return nil, errors.Wrap(err, "invalid item price")
		}
		subTotal, err := models.NewMoneyFromString(pgItem.SubTotal)
		if err != nil {
			return nil, errors.Wrap(err, "invalid item sub total")
		}
		items[i] = &domain.OrderItem{
			ID:      pgItem.ID,
			OrderID: models.ID(pgItem.OrderID),
			Product: &domain.Product{
				ID:    models.ID(pgItem.ProductID),
				Label: pgItem.Label,
				Price: itemPrice,
			},
			Quantity: models.Quantity(pgItem.Quantity),
			Price:    itemPrice,
			SubTotal: subTotal,
		}
	}

	var failureMessages []string
	if pgOrder.FailureMessages != "" {
		failureMessages = strings.Split(pgOrder.FailureMessages, domain.FailureMessageDelimiter)
	}

	return &domain.Order{
		ID:           models.ID(pgOrder.ID),
		CustomerID:   models.ID(pgOrder.CustomerID),
		RestaurantID: models.ID(pgOrder.RestaurantID),
		DeliveryAddress: domain.Address{
			Street:     pgOrder.Street,
			PostalCode: pgOrder.PostalCode,
			City:       pgOrder.City,
		},
		Price:           price,
		Items:           items,
		TrackingID:      models.ID(pgOrder.TrackingID),
		Status:          domain.OrderStatus(pgOrder.Status),
		FailureMessages: failureMessages,
		Timestamps: models.Timestamps{
			CreatedAt: pgOrder.CreatedAt,
			UpdatedAt: pgOrder.UpdatedAt,
		},
		Version: models.Version{Value: pgOrder.Version},
	}, nil
}
