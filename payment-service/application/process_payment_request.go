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

// ProcessPaymentRequestCommand represents a new order to charge
type ProcessPaymentRequestCommand struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	Price      string `json:"price"`

	// Cause is the order.created event that triggered this payment.
	Cause *events.Event `json:"-"`
}

// ProcessPaymentRequest reacts to order.created: it debits the customer's
// credit ledger through the domain service and persists the outcome under
// the selective rule, the payment row always, the ledger only when the
// payment completed.
type ProcessPaymentRequest struct {
	paymentRepository       domain.PaymentRepository
	creditEntryRepository   domain.CreditEntryRepository
	creditHistoryRepository domain.CreditHistoryRepository
	domainService           *domain.PaymentDomainService
}

// NewProcessPaymentRequest creates a new ProcessPaymentRequest use case
func NewProcessPaymentRequest(
	paymentRepository domain.PaymentRepository,
	creditEntryRepository domain.CreditEntryRepository,
	creditHistoryRepository domain.CreditHistoryRepository,
	domainService *domain.PaymentDomainService,
) *ProcessPaymentRequest {
	return &ProcessPaymentRequest{
		paymentRepository:       paymentRepository,
		creditEntryRepository:   creditEntryRepository,
		creditHistoryRepository: creditHistoryRepository,
		domainService:           domainService,
	}
}

// Execute initiates the payment for an order
func (uc *ProcessPaymentRequest) Execute(ctx context.Context, cmd *ProcessPaymentRequestCommand) error {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "process_payment_request",
		trace.WithAttributes(
			attribute.String("order_id", cmd.OrderID),
			attribute.String("customer_id", cmd.CustomerID),
		),
	)
	defer span.End()

	status := "error"
	defer func() {
		telemetry.RecordCounter(ctx, "payment_operations_total", "Total payment operations", 1,
			attribute.String("operation", "process_payment_request"),
			attribute.String("status", status),
		)
		telemetry.RecordHistogram(ctx, "payment_operation_duration_seconds", "Payment operation duration", time.Since(start).Seconds(),
			attribute.String("operation", "process_payment_request"),
			attribute.String("status", status),
		)
	}()

	if err := uc.validateCommand(cmd); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "invalid command")
	}

	orderID, err := models.ParseID(cmd.OrderID)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "invalid order ID")
	}
	customerID, err := models.ParseID(cmd.CustomerID)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "invalid customer ID")
	}
	price, err := models.NewMoneyFromString(cmd.Price)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "invalid price")
	}

	creditEntry, err := uc.creditEntryRepository.FindByCustomerID(ctx, customerID)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to find credit entry")
	}
	if creditEntry == nil {
		err := errors.New("credit entry not found")
		span.RecordError(err)
		return err
	}

	creditHistories, err := uc.creditHistoryRepository.FindByCustomerID(ctx, customerID)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to find credit histories")
	}

	payment := &domain.Payment{
		OrderID:    orderID,
		CustomerID: customerID,
		Price:      price,
	}

	history, failureMessages := uc.domainService.ValidateAndInitiatePayment(payment, creditEntry, creditHistories, nil)

	if cmd.Cause != nil {
		for _, event := range payment.Events() {
			event.CausedBy(cmd.Cause)
		}
	}

	if payment.Status == domain.PaymentStatusCompleted {
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
		attribute.String("payment_id", payment.ID.String()),
		attribute.String("payment_status", string(payment.Status)),
		attribute.Int("failure_count", len(failureMessages)),
	)
	return nil
}

// validateCommand validates the process payment request command
func (uc *ProcessPaymentRequest) validateCommand(cmd *ProcessPaymentRequestCommand) error {
	if cmd.OrderID == "" {
		return errors.New("order ID is required")
	}
	if cmd.CustomerID == "" {
		return errors.New("customer ID is required")
	}
	if cmd.Price == "" {
		return errors.New("price is required")
	}
	return nil
}
