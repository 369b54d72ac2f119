package application

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaetanBloch/meal-order/order-service/domain"
	"github.com/gaetanBloch/meal-order/shared/models"
	"github.com/gaetanBloch/meal-order/shared/telemetry"
)

// TrackOrderQuery represents the query to track an order
type TrackOrderQuery struct {
	TrackingID string `json:"tracking_id"`
}

// TrackOrderResponse represents the tracking state of an order
type TrackOrderResponse struct {
	OrderID         string   `json:"order_id"`
	TrackingID      string   `json:"tracking_id"`
	Status          string   `json:"status"`
	FailureMessages []string `json:"failure_messages,omitempty"`
}

// TrackOrder use case returns the saga progress of an order by tracking ID.
type TrackOrder struct {
	orderRepository domain.OrderRepository
}

// NewTrackOrder creates a new TrackOrder use case
func NewTrackOrder(orderRepository domain.OrderRepository) *TrackOrder {
	return &TrackOrder{orderRepository: orderRepository}
}

// Execute tracks an order
func (uc *TrackOrder) Execute(ctx context.Context, query *TrackOrderQuery) (*TrackOrderResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "track_order",
		trace.WithAttributes(attribute.String("tracking_id", query.TrackingID)),
	)
	defer span.End()

	if query.TrackingID == "" {
		return nil, errors.New("tracking ID is required")
	}

	trackingID, err := models.ParseID(query.TrackingID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "invalid tracking ID")
	}

	order, err := uc.orderRepository.FindByTrackingID(ctx, trackingID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to find order")
	}
	if order == nil {
		err := errors.New("order not found")
		span.RecordError(err)
		return nil, err
	}

	return &TrackOrderResponse{
		OrderID:         order.ID.String(),
		TrackingID:      order.TrackingID.String(),
		Status:          string(order.Status),
		FailureMessages: order.FailureMessages,
	}, nil
}
