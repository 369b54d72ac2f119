package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaetanBloch/meal-order/restaurant-service/domain"
	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
	"github.com/gaetanBloch/meal-order/shared/telemetry"
)

// ApproveOrderItem is one ordered product as reported by the order service.
type ApproveOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ApproveOrderCommand represents a paid order awaiting restaurant approval
type ApproveOrderCommand struct {
	OrderID      string             `json:"order_id"`
	RestaurantID string             `json:"restaurant_id"`
	OrderStatus  string             `json:"status"`
	Price        string             `json:"price"`
	Items        []ApproveOrderItem `json:"items"`

	// Cause is the order.paid event that triggered the approval.
	Cause *events.Event `json:"-"`
}

// ApproveOrder reacts to order.paid: it checks the ordered products against
// the restaurant's own catalogue (availability and canonical prices), records
// the approval decision, and emits order.approved or order.rejected.
type ApproveOrder struct {
	catalogueRepository     domain.CatalogueRepository
	orderApprovalRepository domain.OrderApprovalRepository
	domainService           *domain.RestaurantDomainService
}

// NewApproveOrder creates a new ApproveOrder use case
func NewApproveOrder(
	catalogueRepository domain.CatalogueRepository,
	orderApprovalRepository domain.OrderApprovalRepository,
	domainService *domain.RestaurantDomainService,
) *ApproveOrder {
	return &ApproveOrder{
		catalogueRepository:     catalogueRepository,
		orderApprovalRepository: orderApprovalRepository,
		domainService:           domainService,
	}
}

// Execute decides the approval for a paid order
func (uc *ApproveOrder) Execute(ctx context.Context, cmd *ApproveOrderCommand) error {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "approve_order",
		trace.WithAttributes(
			attribute.String("order_id", cmd.OrderID),
			attribute.String("restaurant_id", cmd.RestaurantID),
		),
	)
	defer span.End()

	status := "error"
	defer func() {
		telemetry.RecordCounter(ctx, "approval_operations_total", "Total approval operations", 1,
			attribute.String("operation", "approve_order"),
			attribute.String("status", status),
		)
		telemetry.RecordHistogram(ctx, "approval_operation_duration_seconds", "Approval operation duration", time.Since(start).Seconds(),
			attribute.String("operation", "approve_order"),
			attribute.String("status", status),
		)
	}()

	if err := uc.validateCommand(cmd); err != nil {
		span.RecordError(err)
		return err
	}

	orderID, err := models.ParseID(cmd.OrderID)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "invalid order ID")
	}
	restaurantID, err := models.ParseID(cmd.RestaurantID)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "invalid restaurant ID")
	}
	totalAmount, err := models.NewMoneyFromString(cmd.Price)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "invalid price")
	}

	catalogue, err := uc.catalogueRepository.FindByRestaurantID(ctx, restaurantID)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to find restaurant catalogue")
	}
	if catalogue == nil {
		err := errors.New("restaurant not found")
		span.RecordError(err)
		return err
	}

	restaurant, err := uc.toRestaurant(cmd, orderID, totalAmount, catalogue)
	if err != nil {
		span.RecordError(err)
		return err
	}

	failureMessages := uc.domainService.ValidateOrder(restaurant, nil)

	if cmd.Cause != nil {
		for _, event := range restaurant.Events() {
			event.CausedBy(cmd.Cause)
		}
	}

	if err := uc.orderApprovalRepository.Save(ctx, restaurant); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to save order approval")
	}
	restaurant.ClearEvents()

	status = "success"
	span.SetAttributes(
		attribute.String("approval_status", string(restaurant.OrderApproval.Status)),
		attribute.Int("failure_count", len(failureMessages)),
	)
	return nil
}

func (uc *ApproveOrder) validateCommand(cmd *ApproveOrderCommand) error {
	if cmd.OrderID == "" {
		return errors.New("order ID is required")
	}
	if cmd.RestaurantID == "" {
		return errors.New("restaurant ID is required")
	}
	if cmd.Price == "" {
		return errors.New("price is required")
	}
	if len(cmd.Items) == 0 {
		return errors.New("at least one item is required")
	}
	return nil
}

// toRestaurant projects the ordered items onto the catalogue. Products the
// catalogue does not know are carried as unavailable so the approval rejects
// them instead of dropping them silently.
func (uc *ApproveOrder) toRestaurant(
	cmd *ApproveOrderCommand,
	orderID models.ID,
	totalAmount models.Money,
	catalogue *domain.Catalogue,
) (*domain.Restaurant, error) {
	products := make([]*domain.Product, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		productID, err := models.ParseID(item.ProductID)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid product ID %s", item.ProductID)
		}
		product := &domain.Product{
			ID:           productID,
			Quantity:     models.Quantity(item.Quantity),
			Price:        models.ZeroMoney,
			Availability: domain.Unavailable,
		}
		if entry := catalogue.Find(productID); entry != nil {
			product.Label = entry.Label
			product.Price = entry.Price
			product.Availability = entry.Availability
		}
		products = append(products, product)
	}

	return &domain.Restaurant{
		ID:     catalogue.RestaurantID,
		Active: catalogue.Active,
		OrderDetail: &domain.OrderDetail{
			OrderID:     orderID,
			Products:    products,
			OrderStatus: domain.OrderStatus(cmd.OrderStatus),
			TotalAmount: totalAmount,
		},
	}, nil
}
