package infrastructure

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gaetanBloch/meal-order/order-service/domain"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// PostgresRestaurantRepository reads the order service's restaurant view:
// the catalogue used to price and validate new orders.
type PostgresRestaurantRepository struct {
	db *sqlx.DB
}

// NewPostgresRestaurantRepository creates a new PostgresRestaurantRepository
func NewPostgresRestaurantRepository(db *sqlx.DB) *PostgresRestaurantRepository {
	return &PostgresRestaurantRepository{db: db}
}

type postgresRestaurant struct {
	ID     string `db:"id"`
	Active bool   `db:"active"`
}

type postgresProduct struct {
	ID           string `db:"id"`
	RestaurantID string `db:"restaurant_id"`
	Label        string `db:"label"`
	Price        string `db:"price"`
}

// FindByID finds a restaurant and its catalogue by ID
func (r *PostgresRestaurantRepository) FindByID(ctx context.Context, id models.ID) (*domain.Restaurant, error) {
	query := `SELECT id, active FROM restaurants WHERE id = $1`

	var pgRestaurant postgresRestaurant
	err := r.db.GetContext(ctx, &pgRestaurant, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Restaurant not found
		}
		return nil, errors.Wrap(err, "failed to find restaurant")
	}

	productQuery := `
		SELECT id, restaurant_id, label, price
		FROM products
		WHERE restaurant_id = $1`

	var pgProducts []postgresProduct
	if err := r.db.SelectContext(ctx, &pgProducts, productQuery, id.String()); err != nil {
		return nil, errors.Wrap(err, "failed to find restaurant products")
	}

	products := make([]*domain.Product, len(pgProducts))
	for i, pgProduct := range pgProducts {
		price, err := models.NewMoneyFromString(pgProduct.Price)
		if err != nil {
			return nil, errors.Wrap(err, "invalid product price")
		}
		products[i] = &domain.Product{
			ID:    models.ID(pgProduct.ID),
			Label: pgProduct.Label,
			Price: price,
		}
	}

	return &domain.Restaurant{
		ID:       models.ID(pgRestaurant.ID),
		Products: products,
		Active:   pgRestaurant.Active,
	}, nil
}
