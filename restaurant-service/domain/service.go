package domain

import (
	"context"
	"log"

	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// RestaurantDomainService decides order approvals.
type RestaurantDomainService struct{}

// NewRestaurantDomainService creates a new restaurant domain service
func NewRestaurantDomainService() *RestaurantDomainService {
	return &RestaurantDomainService{}
}

// ValidateOrder validates the projected order against the catalogue and
// constructs the approval. An empty failure list approves the order, anything
// else rejects it with every accumulated violation.
func (s *RestaurantDomainService) ValidateOrder(restaurant *Restaurant, failureMessages []string) []string {
	log.Printf("Validating order with id: %s", restaurant.OrderDetail.OrderID)
	failureMessages = restaurant.ValidateOrder(failureMessages)

	if len(failureMessages) == 0 {
		log.Printf("Order is approved for order id: %s", restaurant.OrderDetail.OrderID)
		restaurant.ConstructOrderApproval(ApprovalApproved)
		restaurant.recordEvent(events.NewEvent(restaurant.OrderApproval.ID, events.AggregateTypeOrderApproval,
			events.OrderApprovedEvent, events.SourceRestaurantService, OrderApprovedData{
				OrderApprovalID: restaurant.OrderApproval.ID,
				RestaurantID:    restaurant.ID,
				OrderID:         restaurant.OrderDetail.OrderID,
			}))
	} else {
		log.Printf("Order is rejected for order id: %s", restaurant.OrderDetail.OrderID)
		restaurant.ConstructOrderApproval(ApprovalRejected)
		restaurant.recordEvent(events.NewEvent(restaurant.OrderApproval.ID, events.AggregateTypeOrderApproval,
			events.OrderRejectedEvent, events.SourceRestaurantService, OrderRejectedData{
				OrderApprovalID: restaurant.OrderApproval.ID,
				RestaurantID:    restaurant.ID,
				OrderID:         restaurant.OrderDetail.OrderID,
				FailureMessages: failureMessages,
			}))
	}

	return failureMessages
}

// CatalogueRepository loads the restaurant's menu.
type CatalogueRepository interface {
	FindByRestaurantID(ctx context.Context, restaurantID models.ID) (*Catalogue, error)
}

// OrderApprovalRepository persists approval decisions together with their
// recorded events.
type OrderApprovalRepository interface {
	Save(ctx context.Context, restaurant *Restaurant) error
	FindByOrderID(ctx context.Context, orderID models.ID) (*OrderApproval, error)
}
