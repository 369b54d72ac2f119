package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaetanBloch/meal-order/shared/models"
)

func newTestRestaurant(products ...*Product) *Restaurant {
	return &Restaurant{
		ID:       models.GenerateID(),
		Products: products,
		Active:   true,
	}
}

func TestOrderDomainService_CreateOrder(t *testing.T) {
	service := NewOrderDomainService()

	t.Run("copies catalogue prices and initializes", func(t *testing.T) {
		order := newTestOrder()
		restaurant := newTestRestaurant(
			&Product{ID: order.Items[0].Product.ID, Label: "Margherita", Price: models.MustMoney("10.00")},
			&Product{ID: order.Items[1].Product.ID, Label: "Calzone", Price: models.MustMoney("20.00")},
		)

		require.NoError(t, service.CreateOrder(order, restaurant))
		assert.Equal(t, OrderStatusPending, order.Status)
		assert.Equal(t, "Margherita", order.Items[0].Product.Label)
	})

	t.Run("inactive restaurant is fatal", func(t *testing.T) {
		order := newTestOrder()
		restaurant := newTestRestaurant()
		restaurant.Active = false

		err := service.CreateOrder(order, restaurant)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is not active")
	})

	t.Run("unknown product is fatal by default", func(t *testing.T) {
		order := newTestOrder()
		restaurant := newTestRestaurant(
			&Product{ID: order.Items[0].Product.ID, Label: "Margherita", Price: models.MustMoney("10.00")},
		)

		err := service.CreateOrder(order, restaurant)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is not in the catalogue")
	})

	t.Run("catalogue price overrides a stale order price", func(t *testing.T) {
		order := newTestOrder()
		restaurant := newTestRestaurant(
			&Product{ID: order.Items[0].Product.ID, Label: "Margherita", Price: models.MustMoney("12.00")},
			&Product{ID: order.Items[1].Product.ID, Label: "Calzone", Price: models.MustMoney("20.00")},
		)

		// Item still quotes 10.00 against the new canonical 12.00
		err := service.CreateOrder(order, restaurant)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is not valid for product")
	})
}

func TestOrderDomainService_LenientCatalogue(t *testing.T) {
	service := NewOrderDomainService(WithLenientCatalogue())

	order := newTestOrder()
	// Only the second product is on the menu; the order total covers it alone.
	order.Price = models.MustMoney("20.00")
	restaurant := newTestRestaurant(
		&Product{ID: order.Items[1].Product.ID, Label: "Calzone", Price: models.MustMoney("20.00")},
	)

	require.NoError(t, service.CreateOrder(order, restaurant))
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Calzone", order.Items[0].Product.Label)
}
