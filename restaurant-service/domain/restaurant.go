package domain

import (
	"fmt"

	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// Availability of a product in the restaurant's catalogue.
type Availability string

const (
	Available   Availability = "AVAILABLE"
	Unavailable Availability = "UNAVAILABLE"
)

// ApprovalStatus is the outcome of an order approval decision.
type ApprovalStatus string

const (
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// OrderStatus mirrors the order service status of the projected order. Only
// PAID orders reach the restaurant for approval.
type OrderStatus string

const OrderStatusPaid OrderStatus = "PAID"

// Product is the restaurant's view of one ordered product: catalogue price
// and availability combined with the quantity requested by the order.
type Product struct {
	ID           models.ID
	Label        string
	Price        models.Money
	Quantity     models.Quantity
	Availability Availability
}

// OrderDetail is the restaurant's local projection of the order under
// approval.
type OrderDetail struct {
	OrderID     models.ID
	Products    []*Product
	OrderStatus OrderStatus
	TotalAmount models.Money
}

// OrderApproval is the immutable record of one approval decision.
type OrderApproval struct {
	ID           models.ID
	RestaurantID models.ID
	OrderID      models.ID
	Status       ApprovalStatus
	CreatedAt    models.Timestamps
}

// Restaurant is the approval aggregate: the catalogue-backed view of one
// order plus the decision taken on it.
type Restaurant struct {
	ID            models.ID
	OrderDetail   *OrderDetail
	OrderApproval *OrderApproval
	Active        bool

	events []*events.Event
}

// ValidateOrder checks the projected order against the catalogue, appending a
// failure message for every violation. Validation never short-circuits so the
// rejection event carries all violations at once.
func (r *Restaurant) ValidateOrder(failureMessages []string) []string {
	if r.OrderDetail.OrderStatus != OrderStatusPaid {
		failureMessages = append(failureMessages,
			fmt.Sprintf("Payment is not completed for order: %s", r.OrderDetail.OrderID))
	}

	totalAmount := models.ZeroMoney
	for _, product := range r.OrderDetail.Products {
		if product.Availability != Available {
			failureMessages = append(failureMessages,
				fmt.Sprintf("Product with id: %s is not available", product.ID))
		}
		totalAmount = totalAmount.Add(product.Price.Multiply(int(product.Quantity)))
	}

	if !totalAmount.Equals(r.OrderDetail.TotalAmount) {
		failureMessages = append(failureMessages,
			fmt.Sprintf("Price total is not correct for order: %s", r.OrderDetail.OrderID))
	}

	return failureMessages
}

// ConstructOrderApproval records the decision. A new approval replaces any
// prior one on the aggregate.
func (r *Restaurant) ConstructOrderApproval(status ApprovalStatus) {
	r.OrderApproval = &OrderApproval{
		ID:           models.GenerateID(),
		RestaurantID: r.ID,
		OrderID:      r.OrderDetail.OrderID,
		Status:       status,
		CreatedAt:    models.NewTimestamps(),
	}
}

// Events returns the recorded domain events
func (r *Restaurant) Events() []*events.Event {
	return r.events
}

// ClearEvents clears the recorded domain events
func (r *Restaurant) ClearEvents() {
	r.events = nil
}

func (r *Restaurant) recordEvent(event *events.Event) {
	r.events = append(r.events, event)
}
