package handlers

import (
	"context"
	"log"

	"github.com/pkg/errors"

	"github.com/gaetanBloch/meal-order/restaurant-service/application"
	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// RestaurantEventHandlers contains event handlers for the restaurant service
type RestaurantEventHandlers struct {
	approveOrder *application.ApproveOrder
}

// NewRestaurantEventHandlers creates new restaurant event handlers
func NewRestaurantEventHandlers(approveOrder *application.ApproveOrder) *RestaurantEventHandlers {
	return &RestaurantEventHandlers{approveOrder: approveOrder}
}

// HandlerID returns the unique identifier for this event handler
func (h *RestaurantEventHandlers) HandlerID() string {
	return "restaurant-service-event-handler"
}

// Handle implements the events.EventHandler interface
func (h *RestaurantEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.EventType {
	case events.OrderPaidEvent:
		return h.handleOrderPaid(ctx, event)
	default:
		// Not an event this service reacts to
		return nil
	}
}

// orderPaidPayload is the slice of order.paid this service reads.
type orderPaidPayload struct {
	OrderID      models.ID    `json:"order_id"`
	RestaurantID models.ID    `json:"restaurant_id"`
	Status       string       `json:"status"`
	Price        models.Money `json:"price"`
	Items        []struct {
		ProductID models.ID `json:"product_id"`
		Quantity  int       `json:"quantity"`
	} `json:"items"`
}

func (h *RestaurantEventHandlers) handleOrderPaid(ctx context.Context, event *events.Event) error {
	var payload orderPaidPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return errors.Wrap(err, "failed to decode order.paid payload")
	}

	items := make([]application.ApproveOrderItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, application.ApproveOrderItem{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
		})
	}

	cmd := &application.ApproveOrderCommand{
		OrderID:      payload.OrderID.String(),
		RestaurantID: payload.RestaurantID.String(),
		OrderStatus:  payload.Status,
		Price:        payload.Price.String(),
		Items:        items,
		Cause:        event,
	}
	if err := h.approveOrder.Execute(ctx, cmd); err != nil {
		log.Printf("Failed to approve order %s: %v", payload.OrderID.String(), err)
		return err
	}
	return nil
}
