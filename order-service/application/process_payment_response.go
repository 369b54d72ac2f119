package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaetanBloch/meal-order/order-service/domain"
	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
	"github.com/gaetanBloch/meal-order/shared/telemetry"
)

// PaymentOutcome is the payment service's verdict carried by its events.
type PaymentOutcome string

const (
	PaymentOutcomeCompleted PaymentOutcome = "completed"
	PaymentOutcomeFailed    PaymentOutcome = "failed"
	PaymentOutcomeCancelled PaymentOutcome = "cancelled"
)

// ProcessPaymentResponseCommand represents a payment service response to act on
type ProcessPaymentResponseCommand struct {
	OrderID         string         `json:"order_id"`
	Outcome         PaymentOutcome `json:"outcome"`
	FailureMessages []string       `json:"failure_messages"`

	// Cause is the payment event that triggered this reaction; the order's
	// follow-up events are chained to it.
	Cause *events.Event `json:"-"`
}

// ProcessPaymentResponse advances the order saga on payment events:
// a completed payment moves the order to PAID (emitting order.paid for the
// restaurant), a failed payment cancels a PENDING order, and a cancelled
// payment finishes the compensating path from CANCELLING to CANCELLED.
type ProcessPaymentResponse struct {
	orderRepository domain.OrderRepository
	domainService   *domain.OrderDomainService
}

// NewProcessPaymentResponse creates a new ProcessPaymentResponse use case
func NewProcessPaymentResponse(
	orderRepository domain.OrderRepository,
	domainService *domain.OrderDomainService,
) *ProcessPaymentResponse {
	return &ProcessPaymentResponse{
		orderRepository: orderRepository,
		domainService:   domainService,
	}
}

// Execute applies the payment outcome to the order
func (uc *ProcessPaymentResponse) Execute(ctx context.Context, cmd *ProcessPaymentResponseCommand) error {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "process_payment_response",
		trace.WithAttributes(
			attribute.String("order_id", cmd.OrderID),
			attribute.String("outcome", string(cmd.Outcome)),
		),
	)
	defer span.End()

	status := "error"
	defer func() {
		telemetry.RecordCounter(ctx, "order_operations_total", "Total order operations", 1,
			attribute.String("operation", "process_payment_response"),
			attribute.String("status", status),
		)
		telemetry.RecordHistogram(ctx, "order_operation_duration_seconds", "Order operation duration", time.Since(start).Seconds(),
			attribute.String("operation", "process_payment_response"),
			attribute.String("status", status),
		)
	}()

	if cmd.OrderID == "" {
		return errors.New("order ID is required")
	}
	orderID, err := models.ParseID(cmd.OrderID)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "invalid order ID")
	}

	order, err := uc.orderRepository.FindByID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to find order")
	}
	if order == nil {
		err := errors.New("order not found")
		span.RecordError(err)
		return err
	}

	switch cmd.Outcome {
	case PaymentOutcomeCompleted:
		err = uc.domainService.PayOrder(order)
	case PaymentOutcomeFailed, PaymentOutcomeCancelled:
		err = uc.domainService.CancelOrder(order, cmd.FailureMessages)
	default:
		err = errors.Errorf("unknown payment outcome: %s", cmd.Outcome)
	}
	if err != nil {
		span.RecordError(err)
		return err
	}

	if cmd.Cause != nil {
		for _, event := range order.Events() {
			event.CausedBy(cmd.Cause)
		}
	}

	if err := uc.orderRepository.Save(ctx, order); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to save order")
	}
	order.ClearEvents()

	status = "success"
	span.SetAttributes(attribute.String("order_status", string(order.Status)))
	return nil
}
