package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
)

func newTestOrder() *Order {
	productA := &Product{ID: models.GenerateID(), Label: "Margherita", Price: models.MustMoney("10.00")}
	productB := &Product{ID: models.GenerateID(), Label: "Calzone", Price: models.MustMoney("20.00")}
	return &Order{
		CustomerID:   models.GenerateID(),
		RestaurantID: models.GenerateID(),
		Price:        models.MustMoney("30.00"),
		Items: []*OrderItem{
			{Product: productA, Quantity: 1, Price: models.MustMoney("10.00"), SubTotal: models.MustMoney("10.00")},
			{Product: productB, Quantity: 1, Price: models.MustMoney("20.00"), SubTotal: models.MustMoney("20.00")},
		},
	}
}

func TestOrder_ValidateAndInitialize(t *testing.T) {
	order := newTestOrder()

	require.NoError(t, order.Validate())
	require.NoError(t, order.Initialize())

	assert.False(t, order.ID.IsZero())
	assert.False(t, order.TrackingID.IsZero())
	assert.Equal(t, OrderStatusPending, order.Status)

	// Item ids are sequential per order
	assert.Equal(t, int64(1), order.Items[0].ID)
	assert.Equal(t, int64(2), order.Items[1].ID)
	assert.Equal(t, order.ID, order.Items[0].OrderID)

	require.Len(t, order.Events(), 1)
	assert.Equal(t, events.OrderCreatedEvent, order.Events()[0].EventType)
}

func TestOrder_InitializeOnlyOnce(t *testing.T) {
	order := newTestOrder()
	require.NoError(t, order.Initialize())

	err := order.Initialize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")

	// Validate on an initialized order is fatal too
	err = order.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should not be initialized")
}

func TestOrder_Validate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Order)
		expectedError string
	}{
		{
			name:          "valid order",
			mutate:        func(o *Order) {},
			expectedError: "",
		},
		{
			name: "zero total price",
			mutate: func(o *Order) {
				o.Price = models.ZeroMoney
			},
			expectedError: "the total price should be greater than zero",
		},
		{
			name: "item price differs from product price",
			mutate: func(o *Order) {
				o.Items[0].Price = models.MustMoney("9.00")
				o.Items[0].SubTotal = models.MustMoney("9.00")
			},
			expectedError: "is not valid for product",
		},
		{
			name: "subtotal does not match price times quantity",
			mutate: func(o *Order) {
				o.Items[0].SubTotal = models.MustMoney("15.00")
			},
			expectedError: "is not valid for product",
		},
		{
			name: "total differs from items total",
			mutate: func(o *Order) {
				o.Price = models.MustMoney("35.00")
			},
			expectedError: "is not equal to order items total",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := newTestOrder()
			tt.mutate(order)

			err := order.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			}
		})
	}
}

func TestOrder_StateMachine(t *testing.T) {
	t.Run("pay requires PENDING", func(t *testing.T) {
		order := newTestOrder()
		require.NoError(t, order.Initialize())
		order.ClearEvents()

		require.NoError(t, order.Pay())
		assert.Equal(t, OrderStatusPaid, order.Status)
		require.Len(t, order.Events(), 1)
		assert.Equal(t, events.OrderPaidEvent, order.Events()[0].EventType)

		err := order.Pay()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PENDING")
	})

	t.Run("confirm requires PAID", func(t *testing.T) {
		order := newTestOrder()
		require.NoError(t, order.Initialize())

		require.Error(t, order.Confirm())

		require.NoError(t, order.Pay())
		require.NoError(t, order.Confirm())
		assert.Equal(t, OrderStatusConfirmed, order.Status)
	})

	t.Run("cancelling requires PAID or CONFIRMED", func(t *testing.T) {
		order := newTestOrder()
		require.NoError(t, order.Initialize())

		require.Error(t, order.Cancelling(nil))

		require.NoError(t, order.Pay())
		order.ClearEvents()
		require.NoError(t, order.Cancelling([]string{"restaurant rejected"}))
		assert.Equal(t, OrderStatusCancelling, order.Status)
		assert.Equal(t, []string{"restaurant rejected"}, order.FailureMessages)
		require.Len(t, order.Events(), 1)
		assert.Equal(t, events.OrderCancellingEvent, order.Events()[0].EventType)
	})

	t.Run("cancel from PENDING", func(t *testing.T) {
		order := newTestOrder()
		require.NoError(t, order.Initialize())
		order.ClearEvents()

		require.NoError(t, order.Cancel([]string{"payment failed"}))
		assert.Equal(t, OrderStatusCancelled, order.Status)
		require.Len(t, order.Events(), 1)
		assert.Equal(t, events.OrderCancelledEvent, order.Events()[0].EventType)
	})

	t.Run("cancel from CANCELLING", func(t *testing.T) {
		order := newTestOrder()
		require.NoError(t, order.Initialize())
		require.NoError(t, order.Pay())
		require.NoError(t, order.Cancelling([]string{"rejected"}))

		require.NoError(t, order.Cancel([]string{"payment reversed"}))
		assert.Equal(t, OrderStatusCancelled, order.Status)
		assert.Equal(t, []string{"rejected", "payment reversed"}, order.FailureMessages)
	})

	t.Run("cancel rejected from PAID", func(t *testing.T) {
		order := newTestOrder()
		require.NoError(t, order.Initialize())
		require.NoError(t, order.Pay())

		err := order.Cancel(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CANCELLING or PENDING")
	})
}

func TestOrder_UpdateErrorsSkipsEmptyMessages(t *testing.T) {
	order := newTestOrder()
	require.NoError(t, order.Initialize())

	require.NoError(t, order.Cancel([]string{"", "real failure", ""}))
	assert.Equal(t, []string{"real failure"}, order.FailureMessages)
}
