package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaetanBloch/meal-order/payment-service/domain"
	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
	"github.com/gaetanBloch/meal-order/shared/telemetry"
)

// CancelPaymentCommand represents a compensation request for an order
type CancelPaymentCommand struct {
	OrderID         string   `json:"order_id"`
	FailureMessages []string `json:"failure_messages"`

	// Cause is the order.cancelling event that triggered the compensation.
	Cause *events.Event `json:"-"`
}

// CancelPayment reacts to order.cancelling: it credits the debited amount
// back to the customer ledger and emits payment.cancelled, closing the
// compensating path of the saga.
type CancelPayment struct {
	paymentRepository       domain.PaymentRepository
	creditEntryRepository   domain.CreditEntryRepository
	creditHistoryRepository domain.CreditHistoryRepository
	domainService           *domain.PaymentDomainService
}

// NewCancelPayment creates a new CancelPayment use case
func NewCancelPayment(
	paymentRepository domain.PaymentRepository,
	creditEntryRepository domain.CreditEntryRepository,
	creditHistoryRepository domain.CreditHistoryRepository,
	domainService *domain.PaymentDomainService,
) *CancelPayment {
	return &CancelPayment{
		paymentRepository:       paymentRepository,
		creditEntryRepository:   creditEntryRepository,
		creditHistoryRepository: creditHistoryRepository,
		domainService:           domainService,
	}
}

// Execute reverses the payment for an order
func (uc *CancelPayment) Execute(ctx context.Context, cmd *CancelPaymentCommand) error {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "cancel_payment",
		trace.WithAttributes(attribute.String("order_id", cmd.OrderID)),
	)
	defer span.End()

	status := "error"
	defer func() {
		telemetry.RecordCounter(ctx, "payment_operations_total", "Total payment operations", 1,
			attribute.String("operation", "cancel_payment"),
			attribute.String("status", status),
		)
		telemetry.RecordHistogram(ctx, "payment_operation_duration_seconds", "Payment operation duration", time.Since(start).Seconds(),
			attribute.String("operation", "cancel_payment"),
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

	payment, err := uc.paymentRepository.FindByOrderID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to find payment")
	}
	if payment == nil {
		err := errors.New("payment not found")
		span.RecordError(err)
		return err
	}

	creditEntry, err := uc.creditEntryRepository.FindByCustomerID(ctx, payment.CustomerID)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to find credit entry")
	}
	if creditEntry == nil {
		err := errors.New("credit entry not found")
		span.RecordError(err)
		return err
	}

	creditHistories, err := uc.creditHistoryRepository.FindByCustomerID(ctx, payment.CustomerID)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to find credit histories")
	}

	history, failureMessages := uc.domainService.ValidateAndCancelPayment(payment, creditEntry, creditHistories, nil)

	if cmd.Cause != nil {
		for _, event := range payment.Events() {
			event.CausedBy(cmd.Cause)
		}
	}

	if payment.Status == domain.PaymentStatusCancelled {
		err = uc.paymentRepository.SaveWithLedger(ctx, payment, creditEntry, history)
	} else {
		err = uc.paymentRepository.Save(ctx, payment)
	}
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to save payment")
	}
	payment.ClearEvents()

	status = "success"
	span.SetAttributes(
		attribute.String("payment_status", string(payment.Status)),
		attribute.Int("failure_count", len(failureMessages)),
	)
	return nil
}
