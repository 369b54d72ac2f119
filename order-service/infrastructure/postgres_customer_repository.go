package infrastructure

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gaetanBloch/meal-order/order-service/domain"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// PostgresCustomerRepository stores the order service's customer projection,
// filled from customer.created events. Save is an upsert so redelivery of
// the same event is harmless.
type PostgresCustomerRepository struct {
	db *sqlx.DB
}

// NewPostgresCustomerRepository creates a new PostgresCustomerRepository
func NewPostgresCustomerRepository(db *sqlx.DB) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{db: db}
}

type postgresCustomer struct {
	ID        string `db:"id"`
	Username  string `db:"username"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
}

// Save upserts a customer projection row
func (r *PostgresCustomerRepository) Save(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (id, username, first_name, last_name)
		VALUES (:id, :username, :first_name, :last_name)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name`

	_, err := r.db.NamedExecContext(ctx, query, &postgresCustomer{
		ID:        customer.ID.String(),
		Username:  customer.Username,
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
	})
	return errors.Wrap(err, "failed to save customer projection")
}

// FindByID finds a customer by ID
func (r *PostgresCustomerRepository) FindByID(ctx context.Context, id models.ID) (*domain.Customer, error) {
	query := `SELECT id, username, first_name, last_name FROM customers WHERE id = $1`

	var pgCustomer postgresCustomer
	err := r.db.GetContext(ctx, &pgCustomer, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Customer not found
		}
		return nil, errors.Wrap(err, "failed to find customer")
	}

	return &domain.Customer{
		ID:        models.ID(pgCustomer.ID),
		Username:  pgCustomer.Username,
		FirstName: pgCustomer.FirstName,
		LastName:  pgCustomer.LastName,
	}, nil
}
