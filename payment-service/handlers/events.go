package handlers

import (
	"context"
	"log"

	"github.com/pkg/errors"

	"github.com/gaetanBloch/meal-order/payment-service/application"
	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// PaymentEventHandlers contains event handlers for the payment service
type PaymentEventHandlers struct {
	processPaymentRequest *application.ProcessPaymentRequest
	cancelPayment         *application.CancelPayment
}

// NewPaymentEventHandlers creates new payment event handlers
func NewPaymentEventHandlers(
	processPaymentRequest *application.ProcessPaymentRequest,
	cancelPayment *application.CancelPayment,
) *PaymentEventHandlers {
	return &PaymentEventHandlers{
		processPaymentRequest: processPaymentRequest,
		cancelPayment:         cancelPayment,
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *PaymentEventHandlers) HandlerID() string {
	return "payment-service-event-handler"
}

// Handle implements the events.EventHandler interface
func (h *PaymentEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.EventType {
	case events.OrderCreatedEvent:
		return h.handleOrderCreated(ctx, event)
	case events.OrderCancellingEvent:
		return h.handleOrderCancelling(ctx, event)
	default:
		// Not an event this service reacts to
		return nil
	}
}

// orderCreatedPayload is the slice of order.created this service reads.
type orderCreatedPayload struct {
	OrderID    models.ID    `json:"order_id"`
	CustomerID models.ID    `json:"customer_id"`
	Price      models.Money `json:"price"`
}

func (h *PaymentEventHandlers) handleOrderCreated(ctx context.Context, event *events.Event) error {
	var payload orderCreatedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return errors.Wrap(err, "failed to decode order.created payload")
	}

	cmd := &application.ProcessPaymentRequestCommand{
		OrderID:    payload.OrderID.String(),
		CustomerID: payload.CustomerID.String(),
		Price:      payload.Price.String(),
		Cause:      event,
	}
	if err := h.processPaymentRequest.Execute(ctx, cmd); err != nil {
		log.Printf("Failed to process payment request for order %s: %v", payload.OrderID.String(), err)
		return err
	}
	return nil
}

type orderCancellingPayload struct {
	OrderID         models.ID `json:"order_id"`
	FailureMessages []string  `json:"failure_messages"`
}

func (h *PaymentEventHandlers) handleOrderCancelling(ctx context.Context, event *events.Event) error {
	var payload orderCancellingPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return errors.Wrap(err, "failed to decode order.cancelling payload")
	}

	cmd := &application.CancelPaymentCommand{
		OrderID:         payload.OrderID.String(),
		FailureMessages: payload.FailureMessages,
		Cause:           event,
	}
	if err := h.cancelPayment.Execute(ctx, cmd); err != nil {
		log.Printf("Failed to cancel payment for order %s: %v", payload.OrderID.String(), err)
		return err
	}
	return nil
}
