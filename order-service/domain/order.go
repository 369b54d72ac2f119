package domain

import (
	"github.com/pkg/errors"

	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusCancelling OrderStatus = "CANCELLING"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// FailureMessageDelimiter joins failure messages when they travel as one string.
const FailureMessageDelimiter = ","

// Address is the delivery address of an order.
type Address struct {
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
}

// Order aggregate root. A fresh order is built unvalidated (zero ID, empty
// status); Validate followed by Initialize is the only path to PENDING.
// Rehydration from storage fills the fields directly and must not call either.
type Order struct {
	ID              models.ID   `json:"id"`
	CustomerID      models.ID   `json:"customer_id"`
	RestaurantID    models.ID   `json:"restaurant_id"`
	DeliveryAddress Address     `json:"delivery_address"`
	Price           models.Money `json:"price"`
	Items           []*OrderItem `json:"items"`
	TrackingID      models.ID   `json:"tracking_id"`
	Status          OrderStatus `json:"status"`
	FailureMessages []string    `json:"failure_messages"`
	Timestamps      models.Timestamps
	Version         models.Version

	events []*events.Event
}

// OrderItem is owned exclusively by its Order. The item ID is sequential per
// order, assigned at initialization.
type OrderItem struct {
	ID       int64           `json:"id"`
	OrderID  models.ID       `json:"order_id"`
	Product  *Product        `json:"product"`
	Quantity models.Quantity `json:"quantity"`
	Price    models.Money    `json:"price"`
	SubTotal models.Money    `json:"sub_total"`
}

// PriceValid reports whether the item price matches the product's canonical
// price and the subtotal equals price times quantity.
func (i *OrderItem) PriceValid() bool {
	return i.Price.IsGreaterThanZero() &&
		i.Price.Equals(i.Product.Price) &&
		i.SubTotal.Equals(i.Price.Multiply(int(i.Quantity)))
}

func (i *OrderItem) initialize(orderID models.ID, itemID int64) {
	i.OrderID = orderID
	i.ID = itemID
}

// Validate checks the construction invariants of a fresh order. Any violation
// is a fatal domain error: the order must not be persisted or initialized.
func (o *Order) Validate() error {
	if err := o.validateInitialOrder(); err != nil {
		return err
	}
	if err := o.validateTotalPrice(); err != nil {
		return err
	}
	return o.validateItemsPrice()
}

func (o *Order) validateInitialOrder() error {
	if o.Status != "" || !o.ID.IsZero() {
		return errors.New("order should not be initialized")
	}
	return nil
}

func (o *Order) validateTotalPrice() error {
	if !o.Price.IsGreaterThanZero() {
		return errors.New("the total price should be greater than zero")
	}
	return nil
}

func (o *Order) validateItemsPrice() error {
	itemsTotal := models.ZeroMoney
	for _, item := range o.Items {
		if !item.PriceValid() {
			return errors.Errorf("order item price %s is not valid for product %s",
				item.Price.String(), item.Product.ID.String())
		}
		itemsTotal = itemsTotal.Add(item.SubTotal)
	}
	if !o.Price.Equals(itemsTotal) {
		return errors.Errorf("total price %s is not equal to order items total %s",
			o.Price.String(), itemsTotal.String())
	}
	return nil
}

// Initialize assigns identity, tracking ID and PENDING status exactly once
// and records the order.created event. Callers must have run Validate first.
func (o *Order) Initialize() error {
	if o.Status != "" || !o.ID.IsZero() {
		return errors.New("order is already initialized")
	}

	o.ID = models.GenerateID()
	o.TrackingID = models.GenerateID()
	o.Status = OrderStatusPending
	o.Timestamps = models.NewTimestamps()
	o.Version = models.NewVersion()

	itemID := int64(1)
	for _, item := range o.Items {
		item.initialize(o.ID, itemID)
		itemID++
	}

	o.recordEvent(events.NewEvent(o.ID, events.AggregateTypeOrder, events.OrderCreatedEvent,
		events.SourceOrderService, OrderCreatedData{
			OrderID:      o.ID,
			CustomerID:   o.CustomerID,
			RestaurantID: o.RestaurantID,
			TrackingID:   o.TrackingID,
			Price:        o.Price,
			Items:        o.itemsData(),
		}))
	return nil
}

// Pay moves the order from PENDING to PAID and records order.paid carrying
// the order snapshot the restaurant needs for approval.
func (o *Order) Pay() error {
	if o.Status != OrderStatusPending {
		return errors.New("order should be in PENDING status")
	}
	o.Status = OrderStatusPaid
	o.touch()

	o.recordEvent(events.NewEvent(o.ID, events.AggregateTypeOrder, events.OrderPaidEvent,
		events.SourceOrderService, OrderPaidData{
			OrderID:      o.ID,
			CustomerID:   o.CustomerID,
			RestaurantID: o.RestaurantID,
			Status:       o.Status,
			Price:        o.Price,
			Items:        o.itemsData(),
		}))
	return nil
}

// Confirm moves the order from PAID to CONFIRMED, the happy-path terminal state.
func (o *Order) Confirm() error {
	if o.Status != OrderStatusPaid {
		return errors.New("order should be in PAID status")
	}
	o.Status = OrderStatusConfirmed
	o.touch()
	return nil
}

// Cancelling starts the compensating path: the payment must be reversed
// before the order can reach CANCELLED. Records order.cancelling so the
// payment service compensates.
func (o *Order) Cancelling(failureMessages []string) error {
	if o.Status != OrderStatusPaid && o.Status != OrderStatusConfirmed {
		return errors.New("order should be in PAID or CONFIRMED status")
	}
	o.Status = OrderStatusCancelling
	o.updateErrors(failureMessages)
	o.touch()

	o.recordEvent(events.NewEvent(o.ID, events.AggregateTypeOrder, events.OrderCancellingEvent,
		events.SourceOrderService, OrderCancellingData{
			OrderID:         o.ID,
			CustomerID:      o.CustomerID,
			Price:           o.Price,
			FailureMessages: o.FailureMessages,
		}))
	return nil
}

// Cancel moves the order to CANCELLED, either straight from PENDING (payment
// never succeeded) or from CANCELLING once the payment was reversed.
func (o *Order) Cancel(failureMessages []string) error {
	if o.Status != OrderStatusCancelling && o.Status != OrderStatusPending {
		return errors.New("order should be in CANCELLING or PENDING status")
	}
	o.Status = OrderStatusCancelled
	o.updateErrors(failureMessages)
	o.touch()

	o.recordEvent(events.NewEvent(o.ID, events.AggregateTypeOrder, events.OrderCancelledEvent,
		events.SourceOrderService, OrderCancelledData{
			OrderID:         o.ID,
			CustomerID:      o.CustomerID,
			FailureMessages: o.FailureMessages,
		}))
	return nil
}

// updateErrors merges the non-empty incoming failure messages into the order.
func (o *Order) updateErrors(failureMessages []string) {
	for _, message := range failureMessages {
		if message != "" {
			o.FailureMessages = append(o.FailureMessages, message)
		}
	}
}

func (o *Order) touch() {
	o.Timestamps = o.Timestamps.Update()
	o.Version = o.Version.Update()
}

func (o *Order) itemsData() []OrderItemData {
	data := make([]OrderItemData, len(o.Items))
	for i, item := range o.Items {
		data[i] = OrderItemData{
			ProductID: item.Product.ID,
			Label:     item.Product.Label,
			Price:     item.Price,
			Quantity:  int(item.Quantity),
			SubTotal:  item.SubTotal,
		}
	}
	return data
}

// Events returns domain events
func (o *Order) Events() []*events.Event {
	return o.events
}

// ClearEvents clears domain events
func (o *Order) ClearEvents() {
	o.events = make([]*events.Event, 0)
}

// recordEvent records a domain event
func (o *Order) recordEvent(event *events.Event) {
	o.events = append(o.events, event)
}
