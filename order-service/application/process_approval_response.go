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

// ProcessApprovalResponseCommand represents a restaurant approval decision to act on
type ProcessApprovalResponseCommand struct {
	OrderID         string   `json:"order_id"`
	Approved        bool     `json:"approved"`
	FailureMessages []string `json:"failure_messages"`

	// Cause is the approval event that triggered this reaction.
	Cause *events.Event `json:"-"`
}

// ProcessApprovalResponse finishes or compensates the saga on the
// restaurant's decision: approval confirms the PAID order; rejection moves it
// to CANCELLING, emitting order.cancelling so the payment service credits the
// customer back.
type ProcessApprovalResponse struct {
	orderRepository domain.OrderRepository
	domainService   *domain.OrderDomainService
}

// NewProcessApprovalResponse creates a new ProcessApprovalResponse use case
func NewProcessApprovalResponse(
	orderRepository domain.OrderRepository,
	domainService *domain.OrderDomainService,
) *ProcessApprovalResponse {
	return &ProcessApprovalResponse{
		orderRepository: orderRepository,
		domainService:   domainService,
	}
}

// Execute applies the approval decision to the order
func (uc *ProcessApprovalResponse) Execute(ctx context.Context, cmd *ProcessApprovalResponseCommand) error {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "process_approval_response",
		trace.WithAttributes(
			attribute.String("order_id", cmd.OrderID),
			attribute.Bool("approved", cmd.Approved),
		),
	)
	defer span.End()

	status := "error"
	defer func() {
		telemetry.RecordCounter(ctx, "order_operations_total", "Total order operations", 1,
			attribute.String("operation", "process_approval_response"),
			attribute.String("status", status),
		)
		telemetry.RecordHistogram(ctx, "order_operation_duration_seconds", "Order operation duration", time.Since(start).Seconds(),
			attribute.String("operation", "process_approval_response"),
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

	if cmd.Approved {
		err = uc.domainService.ConfirmOrder(order)
	} else {
		err = uc.domainService.CancelPayment(order, cmd.FailureMessages)
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
