package infrastructure

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gaetanBloch/meal-order/restaurant-service/domain"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// PostgresCatalogueRepository reads the restaurant's own menu: canonical
// prices and current availability per product.
type PostgresCatalogueRepository struct {
	db *sqlx.DB
}

// NewPostgresCatalogueRepository creates a new PostgresCatalogueRepository
func NewPostgresCatalogueRepository(db *sqlx.DB) *PostgresCatalogueRepository {
	return &PostgresCatalogueRepository{db: db}
}

type postgresRestaurant struct {
	ID     string `db:"id"`
	Active bool   `db:"active"`
}

type postgresCatalogueEntry struct {
	ID           string `db:"id"`
	RestaurantID string `db:"restaurant_id"`
	Label        string `db:"label"`
	Price        string `db:"price"`
	Availability string `db:"availability"`
}

// FindByRestaurantID finds a restaurant's catalogue by restaurant ID
func (r *PostgresCatalogueRepository) FindByRestaurantID(ctx context.Context, restaurantID models.ID) (*domain.Catalogue, error) {
	query := `SELECT id, active FROM restaurants WHERE id = $1`

	var pgRestaurant postgresRestaurant
	err := r.db.GetContext(ctx, &pgRestaurant, query, restaurantID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Restaurant not found
		}
		return nil, errors.Wrap(err, "failed to find restaurant")
	}

	entryQuery := `
		SELECT id, restaurant_id, label, price, availability
		FROM products
		WHERE restaurant_id = $1`

	var pgEntries []postgresCatalogueEntry
	if err := r.db.SelectContext(ctx, &pgEntries, entryQuery, restaurantID.String()); err != nil {
		return nil, errors.Wrap(err, "failed to find catalogue products")
	}

	entries := make([]*domain.CatalogueEntry, len(pgEntries))
	for i, pgEntry := range pgEntries {
		price, err := models.NewMoneyFromString(pgEntry.Price)
		if err != nil {
			return nil, errors.Wrap(err, "invalid product price")
		}
		entries[i] = &domain.CatalogueEntry{
			ProductID:    models.ID(pgEntry.ID),
			Label:        pgEntry.Label,
			Price:        price,
			Availability: domain.Availability(pgEntry.Availability),
		}
	}

	return &domain.Catalogue{
		RestaurantID: models.ID(pgRestaurant.ID),
		Active:       pgRestaurant.Active,
		Entries:      entries,
	}, nil
}
