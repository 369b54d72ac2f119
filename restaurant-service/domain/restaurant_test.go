package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
)

func paidOrderRestaurant(products ...*Product) *Restaurant {
	total := models.ZeroMoney
	for _, product := range products {
		total = total.Add(product.Price.Multiply(int(product.Quantity)))
	}
	return &Restaurant{
		ID:     models.GenerateID(),
		Active: true,
		OrderDetail: &OrderDetail{
			OrderID:     models.GenerateID(),
			Products:    products,
			OrderStatus: OrderStatusPaid,
			TotalAmount: total,
		},
	}
}

func TestRestaurant_ValidateOrder(t *testing.T) {
	t.Run("valid paid order has no failures", func(t *testing.T) {
		restaurant := paidOrderRestaurant(
			&Product{ID: models.GenerateID(), Price: models.MustMoney("10.00"), Quantity: 1, Availability: Available},
			&Product{ID: models.GenerateID(), Price: models.MustMoney("20.00"), Quantity: 1, Availability: Available},
		)

		assert.Empty(t, restaurant.ValidateOrder(nil))
	})

	t.Run("unpaid order is rejected", func(t *testing.T) {
		restaurant := paidOrderRestaurant(
			&Product{ID: models.GenerateID(), Price: models.MustMoney("10.00"), Quantity: 1, Availability: Available},
		)
		restaurant.OrderDetail.OrderStatus = "PENDING"

		failures := restaurant.ValidateOrder(nil)
		require.Len(t, failures, 1)
		assert.Contains(t, failures[0], "Payment is not completed for order")
	})

	t.Run("unavailable product names the product id", func(t *testing.T) {
		unavailable := &Product{ID: models.GenerateID(), Price: models.MustMoney("10.00"), Quantity: 1, Availability: Unavailable}
		restaurant := paidOrderRestaurant(
			unavailable,
			&Product{ID: models.GenerateID(), Price: models.MustMoney("20.00"), Quantity: 1, Availability: Available},
		)

		failures := restaurant.ValidateOrder(nil)
		require.Len(t, failures, 1)
		assert.Equal(t, fmt.Sprintf("Product with id: %s is not available", unavailable.ID), failures[0])
	})

	t.Run("price mismatch is reported", func(t *testing.T) {
		restaurant := paidOrderRestaurant(
			&Product{ID: models.GenerateID(), Price: models.MustMoney("10.00"), Quantity: 2, Availability: Available},
		)
		restaurant.OrderDetail.TotalAmount = models.MustMoney("15.00")

		failures := restaurant.ValidateOrder(nil)
		require.Len(t, failures, 1)
		assert.Contains(t, failures[0], "Price total is not correct for order")
	})

	t.Run("validation accumulates every violation", func(t *testing.T) {
		restaurant := paidOrderRestaurant(
			&Product{ID: models.GenerateID(), Price: models.MustMoney("10.00"), Quantity: 1, Availability: Unavailable},
			&Product{ID: models.GenerateID(), Price: models.MustMoney("20.00"), Quantity: 1, Availability: Unavailable},
		)
		restaurant.OrderDetail.OrderStatus = "PENDING"
		restaurant.OrderDetail.TotalAmount = models.MustMoney("99.00")

		failures := restaurant.ValidateOrder(nil)
		// Status, two products and the total: no short-circuit
		assert.Len(t, failures, 4)
	})
}

func TestRestaurantDomainService_ValidateOrder(t *testing.T) {
	service := NewRestaurantDomainService()

	t.Run("approval", func(t *testing.T) {
		restaurant := paidOrderRestaurant(
			&Product{ID: models.GenerateID(), Price: models.MustMoney("30.00"), Quantity: 1, Availability: Available},
		)

		failures := service.ValidateOrder(restaurant, nil)

		assert.Empty(t, failures)
		require.NotNil(t, restaurant.OrderApproval)
		assert.Equal(t, ApprovalApproved, restaurant.OrderApproval.Status)
		assert.Equal(t, restaurant.OrderDetail.OrderID, restaurant.OrderApproval.OrderID)

		require.Len(t, restaurant.Events(), 1)
		assert.Equal(t, events.OrderApprovedEvent, restaurant.Events()[0].EventType)
	})

	t.Run("rejection carries the failure messages", func(t *testing.T) {
		unavailable := &Product{ID: models.GenerateID(), Price: models.MustMoney("30.00"), Quantity: 1, Availability: Unavailable}
		restaurant := paidOrderRestaurant(unavailable)

		failures := service.ValidateOrder(restaurant, nil)

		require.NotEmpty(t, failures)
		require.NotNil(t, restaurant.OrderApproval)
		assert.Equal(t, ApprovalRejected, restaurant.OrderApproval.Status)

		require.Len(t, restaurant.Events(), 1)
		evt := restaurant.Events()[0]
		assert.Equal(t, events.OrderRejectedEvent, evt.EventType)

		data, ok := evt.Payload.(OrderRejectedData)
		require.True(t, ok)
		assert.Contains(t, data.FailureMessages[0], unavailable.ID.String())
	})

	t.Run("a new decision replaces the prior approval", func(t *testing.T) {
		restaurant := paidOrderRestaurant(
			&Product{ID: models.GenerateID(), Price: models.MustMoney("30.00"), Quantity: 1, Availability: Available},
		)

		service.ValidateOrder(restaurant, nil)
		first := restaurant.OrderApproval

		service.ValidateOrder(restaurant, nil)
		assert.NotEqual(t, first.ID, restaurant.OrderApproval.ID)
	})
}
