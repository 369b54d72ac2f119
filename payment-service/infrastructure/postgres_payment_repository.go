package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gaetanBloch/meal-order/payment-service/domain"
	sharedinfra "github.com/gaetanBloch/meal-order/shared/infrastructure"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// PostgresPaymentRepository implements PaymentRepository using PostgreSQL.
// Both save variants commit the payment row and the recorded events' outbox
// rows in one transaction; SaveWithLedger adds the credit entry and the
// appended history entry to the same transaction.
type PostgresPaymentRepository struct {
	db     *sqlx.DB
	outbox *sharedinfra.PostgresOutboxStore
}

// NewPostgresPaymentRepository creates a new PostgresPaymentRepository
func NewPostgresPaymentRepository(db *sqlx.DB, outbox *sharedinfra.PostgresOutboxStore) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db, outbox: outbox}
}

type postgresPayment struct {
	ID         string    `db:"id"`
	OrderID    string    `db:"order_id"`
	CustomerID string    `db:"customer_id"`
	Price      string    `db:"price"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
}

// Save persists the payment row and its events only.
func (r *PostgresPaymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := r.insertPayment(ctx, tx, payment); err != nil {
		return err
	}
	if err := r.outbox.AppendTx(ctx, tx, payment.Events()...); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit payment save")
}

// SaveWithLedger persists the payment, the updated credit entry and the new
// history entry atomically.
func (r *PostgresPaymentRepository) SaveWithLedger(
	ctx context.Context,
	payment *domain.Payment,
	creditEntry *domain.CreditEntry,
	history *domain.CreditHistory,
) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := r.insertPayment(ctx, tx, payment); err != nil {
		return err
	}

	entryQuery := `
		UPDATE credit_entries
		SET total_credit_amount = $1
		WHERE id = $2`
	if _, err := tx.ExecContext(ctx, entryQuery, creditEntry.TotalCreditAmount.String(), creditEntry.ID.String()); err != nil {
		return errors.Wrap(err, "failed to update credit entry")
	}

	historyQuery := `
		INSERT INTO credit_histories (id, customer_id, amount, transaction_type)
		VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, historyQuery,
		history.ID.String(), history.CustomerID.String(),
		history.Amount.String(), string(history.TransactionType)); err != nil {
		return errors.Wrap(err, "failed to insert credit history")
	}

	if err := r.outbox.AppendTx(ctx, tx, payment.Events()...); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit payment save")
}

func (r *PostgresPaymentRepository) insertPayment(ctx context.Context, tx *sqlx.Tx, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, customer_id, price, status, created_at)
		VALUES (:id, :order_id, :customer_id, :price, :status, :created_at)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`

	_, err := tx.NamedExecContext(ctx, query, &postgresPayment{
		ID:         payment.ID.String(),
		OrderID:    payment.OrderID.String(),
		CustomerID: payment.CustomerID.String(),
		Price:      payment.Price.String(),
		Status:     string(payment.Status),
		CreatedAt:  payment.CreatedAt,
	})
	return errors.Wrap(err, "failed to insert payment")
}

// FindByOrderID finds a payment by order ID
func (r *PostgresPaymentRepository) FindByOrderID(ctx context.Context, orderID models.ID) (*domain.Payment, error) {
	query := `
		SELECT id, order_id, customer_id, price, status, created_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var pgPayment postgresPayment
	err := r.db.GetContext(ctx, &pgPayment, query, orderID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Payment not found
		}
		return nil, errors.Wrap(err, "failed to find payment")
	}

	price, err := models.NewMoneyFromString(pgPayment.Price)
	if err != nil {
		return nil, errors.Wrap(err, "invalid payment price")
	}

	return &domain.Payment{
		ID:         models.ID(pgPayment.ID),
		OrderID:    models.ID(pgPayment.OrderID),
		CustomerID: models.ID(pgPayment.CustomerID),
		Price:      price,
		Status:     domain.PaymentStatus(pgPayment.Status),
		CreatedAt:  pgPayment.CreatedAt,
	}, nil
}

// PostgresCreditEntryRepository reads the customer ledger balance.
type PostgresCreditEntryRepository struct {
	db *sqlx.DB
}

// NewPostgresCreditEntryRepository creates a new PostgresCreditEntryRepository
func NewPostgresCreditEntryRepository(db *sqlx.DB) *PostgresCreditEntryRepository {
	return &PostgresCreditEntryRepository{db: db}
}

type postgresCreditEntry struct {
	ID                string `db:"id"`
	CustomerID        string `db:"customer_id"`
	TotalCreditAmount string `db:"total_credit_amount"`
}

// FindByCustomerID finds the credit entry of a customer
func (r *PostgresCreditEntryRepository) FindByCustomerID(ctx context.Context, customerID models.ID) (*domain.CreditEntry, error) {
	query := `
		SELECT id, customer_id, total_credit_amount
		FROM credit_entries
		WHERE customer_id = $1`

	var pgEntry postgresCreditEntry
	err := r.db.GetContext(ctx, &pgEntry, query, customerID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Credit entry not found
		}
		return nil, errors.Wrap(err, "failed to find credit entry")
	}

	amount, err := models.NewMoneyFromString(pgEntry.TotalCreditAmount)
	if err != nil {
		return nil, errors.Wrap(err, "invalid credit amount")
	}

	return &domain.CreditEntry{
		ID:                models.ID(pgEntry.ID),
		CustomerID:        models.ID(pgEntry.CustomerID),
		TotalCreditAmount: amount,
	}, nil
}

// PostgresCreditHistoryRepository reads the append-only customer ledger log.
type PostgresCreditHistoryRepository struct {
	db *sqlx.DB
}

// NewPostgresCreditHistoryRepository creates a new PostgresCreditHistoryRepository
func NewPostgresCreditHistoryRepository(db *sqlx.DB) *PostgresCreditHistoryRepository {
	return &PostgresCreditHistoryRepository{db: db}
}

type postgresCreditHistory struct {
	ID              string `db:"id"`
	CustomerID      string `db:"customer_id"`
	Amount          string `db:"amount"`
	TransactionType string `db:"transaction_type"`
}

// FindByCustomerID finds all history entries of a customer
func (r *PostgresCreditHistoryRepository) FindByCustomerID(ctx context.Context, customerID models.ID) ([]*domain.CreditHistory, error) {
	query := `
		SELECT id, customer_id, amount, transaction_type
		FROM credit_histories
		WHERE customer_id = $1`

	var pgHistories []postgresCreditHistory
	if err := r.db.SelectContext(ctx, &pgHistories, query, customerID.String()); err != nil {
		return nil, errors.Wrap(err, "failed to find credit histories")
	}

	histories := make([]*domain.CreditHistory, len(pgHistories))
	for i, pgHistory := range pgHistories {
		amount, err := models.NewMoneyFromString(pgHistory.Amount)
		if err != nil {
			return nil, errors.Wrap(err, "invalid history amount")
		}
		histories[i] = &domain.CreditHistory{
			ID:              models.ID(pgHistory.ID),
			CustomerID:      models.ID(pgHistory.CustomerID),
			Amount:          amount,
			TransactionType: domain.TransactionType(pgHistory.TransactionType),
		}
	}
	return histories, nil
}
