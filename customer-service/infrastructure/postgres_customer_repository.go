package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gaetanBloch/meal-order/customer-service/domain"
	sharedinfra "github.com/gaetanBloch/meal-order/shared/infrastructure"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// PostgresCustomerRepository implements CustomerRepository using PostgreSQL.
// Save commits the customer row and the recorded events' outbox rows in one
// transaction.
type PostgresCustomerRepository struct {
	db     *sqlx.DB
	outbox *sharedinfra.PostgresOutboxStore
}

// NewPostgresCustomerRepository creates a new PostgresCustomerRepository
func NewPostgresCustomerRepository(db *sqlx.DB, outbox *sharedinfra.PostgresOutboxStore) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{db: db, outbox: outbox}
}

type postgresCustomer struct {
	ID        string    `db:"id"`
	Username  string    `db:"username"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Save persists the customer and its events
func (r *PostgresCustomerRepository) Save(ctx context.Context, customer *domain.Customer) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	query := `
		INSERT INTO customers (id, username, first_name, last_name, created_at, updated_at)
		VALUES (:id, :username, :first_name, :last_name, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, &postgresCustomer{
		ID:        customer.ID.String(),
		Username:  customer.Username,
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		CreatedAt: customer.CreatedAt,
		UpdatedAt: customer.UpdatedAt,
	}); err != nil {
		return errors.Wrap(err, "failed to insert customer")
	}

	if err := r.outbox.AppendTx(ctx, tx, customer.Events()...); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit customer save")
}

// FindByID finds a customer by ID
func (r *PostgresCustomerRepository) FindByID(ctx context.Context, id models.ID) (*domain.Customer, error) {
	query := `
		SELECT id, username, first_name, last_name, created_at, updated_at
		FROM customers
		WHERE id = $1`

	var row postgresCustomer
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find customer")
	}

	return &domain.Customer{
		ID:        models.ID(row.ID),
		Username:  row.Username,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Timestamps: models.Timestamps{
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
	}, nil
}
