package application

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaetanBloch/meal-order/restaurant-service/domain"
	"github.com/gaetanBloch/meal-order/shared/models"
	"github.com/gaetanBloch/meal-order/shared/telemetry"
)

// GetOrderApprovalQuery represents the query to get the approval of an order
type GetOrderApprovalQuery struct {
	OrderID string `json:"order_id"`
}

// GetOrderApprovalResponse represents the recorded approval decision
type GetOrderApprovalResponse struct {
	OrderApprovalID string `json:"order_approval_id"`
	RestaurantID    string `json:"restaurant_id"`
	OrderID         string `json:"order_id"`
	Status          string `json:"status"`
}

// GetOrderApproval use case returns the approval recorded for an order.
type GetOrderApproval struct {
	orderApprovalRepository domain.OrderApprovalRepository
}

// NewGetOrderApproval creates a new GetOrderApproval use case
func NewGetOrderApproval(orderApprovalRepository domain.OrderApprovalRepository) *GetOrderApproval {
	return &GetOrderApproval{orderApprovalRepository: orderApprovalRepository}
}

// Execute retrieves the approval for an order
func (uc *GetOrderApproval) Execute(ctx context.Context, query *GetOrderApprovalQuery) (*GetOrderApprovalResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "get_order_approval",
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

	approval, err := uc.orderApprovalRepository.FindByOrderID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to find order approval")
	}
	if approval == nil {
		err := errors.New("order approval not found")
		span.RecordError(err)
		return nil, err
	}

	return &GetOrderApprovalResponse{
		OrderApprovalID: approval.ID.String(),
		RestaurantID:    approval.RestaurantID.String(),
		OrderID:         approval.OrderID.String(),
		Status:          string(approval.Status),
	}, nil
}
