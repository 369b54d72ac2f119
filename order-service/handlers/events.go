package handlers

import (
	"context"
	"log"

	"github.com/pkg/errors"

	"github.com/gaetanBloch/meal-order/order-service/application"
	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// OrderEventHandlers contains event handlers for the order service
type OrderEventHandlers struct {
	processPaymentResponse  *application.ProcessPaymentResponse
	processApprovalResponse *application.ProcessApprovalResponse
	processCustomerCreated  *application.ProcessCustomerCreated
}

// NewOrderEventHandlers creates new order event handlers
func NewOrderEventHandlers(
	processPaymentResponse *application.ProcessPaymentResponse,
	processApprovalResponse *application.ProcessApprovalResponse,
	processCustomerCreated *application.ProcessCustomerCreated,
) *OrderEventHandlers {
	return &OrderEventHandlers{
		processPaymentResponse:  processPaymentResponse,
		processApprovalResponse: processApprovalResponse,
		processCustomerCreated:  processCustomerCreated,
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *OrderEventHandlers) HandlerID() string {
	return "order-service-event-handler"
}

// Handle implements the events.EventHandler interface
func (h *OrderEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.EventType {
	case events.PaymentCompletedEvent:
		return h.handlePaymentResponse(ctx, event, application.PaymentOutcomeCompleted)
	case events.PaymentFailedEvent:
		return h.handlePaymentResponse(ctx, event, application.PaymentOutcomeFailed)
	case events.PaymentCancelledEvent:
		return h.handlePaymentResponse(ctx, event, application.PaymentOutcomeCancelled)
	case events.OrderApprovedEvent:
		return h.handleApprovalResponse(ctx, event, true)
	case events.OrderRejectedEvent:
		return h.handleApprovalResponse(ctx, event, false)
	case events.CustomerCreatedEvent:
		return h.handleCustomerCreated(ctx, event)
	default:
		// Not an event this service reacts to
		return nil
	}
}

// paymentResponsePayload is the slice of the payment events this service reads.
type paymentResponsePayload struct {
	OrderID         models.ID `json:"order_id"`
	FailureMessages []string  `json:"failure_messages"`
}

func (h *OrderEventHandlers) handlePaymentResponse(ctx context.Context, event *events.Event, outcome application.PaymentOutcome) error {
	var payload paymentResponsePayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return errors.Wrap(err, "failed to decode payment event payload")
	}

	cmd := &application.ProcessPaymentResponseCommand{
		OrderID:         payload.OrderID.String(),
		Outcome:         outcome,
		FailureMessages: payload.FailureMessages,
		Cause:           event,
	}
	if err := h.processPaymentResponse.Execute(ctx, cmd); err != nil {
		log.Printf("Failed to process payment response for order %s: %v", payload.OrderID.String(), err)
		return err
	}
	return nil
}

// approvalResponsePayload is the slice of the approval events this service reads.
type approvalResponsePayload struct {
	OrderID         models.ID `json:"order_id"`
	FailureMessages []string  `json:"failure_messages"`
}

func (h *OrderEventHandlers) handleApprovalResponse(ctx context.Context, event *events.Event, approved bool) error {
	var payload approvalResponsePayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return errors.Wrap(err, "failed to decode approval event payload")
	}

	cmd := &application.ProcessApprovalResponseCommand{
		OrderID:         payload.OrderID.String(),
		Approved:        approved,
		FailureMessages: payload.FailureMessages,
		Cause:           event,
	}
	if err := h.processApprovalResponse.Execute(ctx, cmd); err != nil {
		log.Printf("Failed to process approval response for order %s: %v", payload.OrderID.String(), err)
		return err
	}
	return nil
}

type customerCreatedPayload struct {
	CustomerID models.ID `json:"customer_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
}

func (h *OrderEventHandlers) handleCustomerCreated(ctx context.Context, event *events.Event) error {
	var payload customerCreatedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return errors.Wrap(err, "failed to decode customer event payload")
	}

	cmd := &application.ProcessCustomerCreatedCommand{
		CustomerID: payload.CustomerID.String(),
		Username:   payload.Username,
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
	}
	if err := h.processCustomerCreated.Execute(ctx, cmd); err != nil {
		log.Printf("Failed to project customer %s: %v", payload.CustomerID.String(), err)
		return err
	}
	return nil
}
