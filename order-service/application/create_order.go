package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaetanBloch/meal-order/order-service/domain"
	"github.com/gaetanBloch/meal-order/shared/models"
	"github.com/gaetanBloch/meal-order/shared/telemetry"
)

// CreateOrderCommand represents the command to create an order
type CreateOrderCommand struct {
	CustomerID   string                   `json:"customer_id"`
	RestaurantID string                   `json:"restaurant_id"`
	Address      CreateOrderAddress       `json:"address"`
	Price        string                   `json:"price"`
	Items        []CreateOrderItemCommand `json:"items"`
}

type CreateOrderAddress struct {
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
}

type CreateOrderItemCommand struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	SubTotal  string `json:"sub_total"`
}

// CreateOrderResponse represents the response after creating an order
type CreateOrderResponse struct {
	OrderID    string `json:"order_id"`
	TrackingID string `json:"tracking_id"`
	Status     string `json:"status"`
}

// CreateOrder use case validates an order against the restaurant catalogue
// and the customer projection, initializes it, and leaves its order.created
// event in the outbox through the repository save.
type CreateOrder struct {
	orderRepository      domain.OrderRepository
	restaurantRepository domain.RestaurantRepository
	customerRepository   domain.CustomerRepository
	domainService        *domain.OrderDomainService
}

// NewCreateOrder creates a new CreateOrder use case
func NewCreateOrder(
	orderRepository domain.OrderRepository,
	restaurantRepository domain.RestaurantRepository,
	customerRepository domain.CustomerRepository,
	domainService *domain.OrderDomainService,
) *CreateOrder {
	return &CreateOrder{
		orderRepository:      orderRepository,
		restaurantRepository: restaurantRepository,
		customerRepository:   customerRepository,
		domainService:        domainService,
	}
}

// Execute creates an order
func (uc *CreateOrder) Execute(ctx context.Context, cmd *CreateOrderCommand) (*CreateOrderResponse, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "create_order",
		trace.WithAttributes(
			attribute.String("customer_id", cmd.CustomerID),
			attribute.String("restaurant_id", cmd.RestaurantID),
		),
	)
	defer span.End()

	status := "error"
	defer func() {
		telemetry.RecordCounter(ctx, "order_operations_total", "Total order operations", 1,
			attribute.String("operation", "create_order"),
			attribute.String("status", status),
		)
		telemetry.RecordHistogram(ctx, "order_operation_duration_seconds", "Order operation duration", time.Since(start).Seconds(),
			attribute.String("operation", "create_order"),
			attribute.String("status", status),
		)
	}()

	if err := uc.validateCommand(cmd); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "invalid command")
	}

	customerID, err := models.ParseID(cmd.CustomerID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "invalid customer ID")
	}
	restaurantID, err := models.ParseID(cmd.RestaurantID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "invalid restaurant ID")
	}

	customer, err := uc.customerRepository.FindByID(ctx, customerID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to find customer")
	}
	if customer == nil {
		err := errors.New("customer not found")
		span.RecordError(err)
		return nil, err
	}

	restaurant, err := uc.restaurantRepository.FindByID(ctx, restaurantID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to find restaurant")
	}
	if restaurant == nil {
		err := errors.New("restaurant not found")
		span.RecordError(err)
		return nil, err
	}

	order, err := uc.toOrder(cmd, customerID, restaurantID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := uc.domainService.CreateOrder(order, restaurant); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to create order")
	}

	if err := uc.orderRepository.Save(ctx, order); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to save order")
	}
	order.ClearEvents()

	status = "success"
	span.SetAttributes(
		attribute.String("order_id", order.ID.String()),
		attribute.String("tracking_id", order.TrackingID.String()),
	)

	return &CreateOrderResponse{
		OrderID:    order.ID.String(),
		TrackingID: order.TrackingID.String(),
		Status:     string(order.Status),
	}, nil
}

// validateCommand validates the create order command
func (uc *CreateOrder) validateCommand(cmd *CreateOrderCommand) error {
	if cmd.CustomerID == "" {
		return errors.New("customer ID is required")
	}
	if cmd.RestaurantID == "" {
		return errors.New("restaurant ID is required")
	}
	if cmd.Price == "" {
		return errors.New("price is required")
	}
	if len(cmd.Items) == 0 {
		return errors.New("at least one order item is required")
	}
	for _, item := range cmd.Items {
		if item.ProductID == "" {
			return errors.New("product ID is required for every item")
		}
		if !models.Quantity(item.Quantity).Valid() {
			return errors.New("item quantity must be positive")
		}
	}
	return nil
}

// toOrder builds the unvalidated aggregate from the command.
func (uc *CreateOrder) toOrder(cmd *CreateOrderCommand, customerID, restaurantID models.ID) (*domain.Order, error) {
	price, err := models.NewMoneyFromString(cmd.Price)
	if err != nil {
		return nil, errors.Wrap(err, "invalid price")
	}

	items := make([]*domain.OrderItem, len(cmd.Items))
	for i, item := range cmd.Items {
		productID, err := models.ParseID(item.ProductID)
		if err != nil {
			return nil, errors.Wrap(err, "invalid product ID")
		}
		itemPrice, err := models.NewMoneyFromString(item.Price)
		if err != nil {
			return nil, errors.Wrap(err, "invalid item price")
		}
		subTotal, err := models.NewMoneyFromString(item.SubTotal)
		if err != nil {
			return nil, errors.Wrap(err, "invalid item sub total")
		}
		items[i] = &domain.OrderItem{
			Product:  &domain.Product{ID: productID},
			Quantity: models.Quantity(item.Quantity),
			Price:    itemPrice,
			SubTotal: subTotal,
		}
	}

	return &domain.Order{
		CustomerID:   customerID,
		RestaurantID: restaurantID,
		DeliveryAddress: domain.Address{
			Street:     cmd.Address.Street,
			PostalCode: cmd.Address.PostalCode,
			City:       cmd.Address.City,
		},
		Price: price,
		Items: items,
	}, nil
}
