package application

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaetanBloch/meal-order/payment-service/domain"
	"github.com/gaetanBloch/meal-order/shared/models"
	"github.com/gaetanBloch/meal-order/shared/telemetry"
)

// GetPaymentQuery represents the query to get a payment by order
type GetPaymentQuery struct {
	OrderID string `json:"order_id"`
}

// GetPaymentResponse represents the payment state of an order
type GetPaymentResponse struct {
	PaymentID  string `json:"payment_id"`
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	Price      string `json:"price"`
	Status     string `json:"status"`
}

// GetPayment use case returns the payment recorded for an order.
type GetPayment struct {
	paymentRepository domain.PaymentRepository
}

// NewGetPayment creates a new GetPayment use case
func NewGetPayment(paymentRepository domain.PaymentRepository) *GetPayment {
	return &GetPayment{paymentRepository: paymentRepository}
}

// Execute retrieves the payment for an order
func (uc *GetPayment) Execute(ctx context.Context, query *GetPaymentQuery) (*GetPaymentResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "get_payment",
		trace.WithAttributes(attribute.String("order_id", query.OrderID)),
	)
	defer span.End()

	if query.OrderID == "" {
		return nil, errors.New("order ID is required")
	}
	orderID, err := models.ParseID(query.OrderID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "invalid order ID")
	}

	payment, err := uc.paymentRepository.FindByOrderID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to find payment")
	}
	if payment == nil {
		err := errors.New("payment not found")
		span.RecordError(err)
		return nil, err
	}

	return &GetPaymentResponse{
		PaymentID:  payment.ID.String(),
		OrderID:    payment.OrderID.String(),
		CustomerID: payment.CustomerID.String(),
		Price:      payment.Price.String(),
		Status:     string(payment.Status),
	}, nil
}
