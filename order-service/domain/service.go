package domain

import (
	"context"
	"log"

	"github.com/pkg/errors"

	"github.com/gaetanBloch/meal-order/shared/models"
)

// OrderDomainService sequences the Order aggregate's operations. It is
// stateless apart from the catalogue strictness option.
type OrderDomainService struct {
	lenientCatalogue bool
}

// OrderDomainServiceOption configures the domain service.
type OrderDomainServiceOption func(*OrderDomainService)

// WithLenientCatalogue makes CreateOrder skip order items whose product is
// not in the restaurant catalogue instead of rejecting the order. The strict
// default treats an unknown product as a fatal error.
func WithLenientCatalogue() OrderDomainServiceOption {
	return func(s *OrderDomainService) {
		s.lenientCatalogue = true
	}
}

// NewOrderDomainService creates a new OrderDomainService
func NewOrderDomainService(opts ...OrderDomainServiceOption) *OrderDomainService {
	s := &OrderDomainService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder validates the order against the restaurant catalogue and
// initializes it. Fatal on an inactive restaurant, an unknown product
// (unless lenient) or any construction invariant violation.
func (s *OrderDomainService) CreateOrder(order *Order, restaurant *Restaurant) error {
	if err := s.validateRestaurant(restaurant); err != nil {
		return err
	}
	if err := s.setProductInfo(order, restaurant); err != nil {
		return err
	}
	if err := order.Validate(); err != nil {
		return err
	}
	if err := order.Initialize(); err != nil {
		return err
	}
	log.Printf("Order %s created", order.ID.String())
	return nil
}

func (s *OrderDomainService) validateRestaurant(restaurant *Restaurant) error {
	if !restaurant.Active {
		return errors.Errorf("restaurant %s is not active", restaurant.ID.String())
	}
	return nil
}

// setProductInfo copies the catalogue's canonical label and price onto each
// item's product reference so validation compares against restaurant prices.
func (s *OrderDomainService) setProductInfo(order *Order, restaurant *Restaurant) error {
	items := order.Items[:0]
	for _, item := range order.Items {
		product := restaurant.FindProduct(item.Product.ID)
		if product == nil {
			if s.lenientCatalogue {
				continue
			}
			return errors.Errorf("product %s is not in the catalogue of restaurant %s",
				item.Product.ID.String(), restaurant.ID.String())
		}
		item.Product.UpdateInfo(product.Label, product.Price)
		items = append(items, item)
	}
	order.Items = items
	return nil
}

// PayOrder moves the order to PAID after a completed payment.
func (s *OrderDomainService) PayOrder(order *Order) error {
	if err := order.Pay(); err != nil {
		return err
	}
	log.Printf("Order %s paid", order.ID.String())
	return nil
}

// ConfirmOrder moves the order to CONFIRMED after restaurant approval.
func (s *OrderDomainService) ConfirmOrder(order *Order) error {
	if err := order.Confirm(); err != nil {
		return err
	}
	log.Printf("Order %s confirmed", order.ID.String())
	return nil
}

// CancelPayment starts the compensating path after a restaurant rejection.
func (s *OrderDomainService) CancelPayment(order *Order, failureMessages []string) error {
	if err := order.Cancelling(failureMessages); err != nil {
		return err
	}
	log.Printf("Order %s payment cancelled", order.ID.String())
	return nil
}

// CancelOrder moves the order to its terminal CANCELLED state.
func (s *OrderDomainService) CancelOrder(order *Order, failureMessages []string) error {
	if err := order.Cancel(failureMessages); err != nil {
		return err
	}
	log.Printf("Order %s cancelled", order.ID.String())
	return nil
}

// Repository interfaces
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id models.ID) (*Order, error)
	FindByTrackingID(ctx context.Context, trackingID models.ID) (*Order, error)
}

type RestaurantRepository interface {
	FindByID(ctx context.Context, id models.ID) (*Restaurant, error)
}

type CustomerRepository interface {
	Save(ctx context.Context, customer *Customer) error
	FindByID(ctx context.Context, id models.ID) (*Customer, error)
}
