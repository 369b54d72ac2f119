package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/gaetanBloch/meal-order/shared/models"
)

var (
	ErrInvalidPayload  = errors.New("invalid payload")
	ErrInvalidReceiver = errors.New("receiver should be a pointer")
)

// Source identifies the service that emitted an event.
type Source string

const (
	SourceOrderService      Source = "order-service"
	SourcePaymentService    Source = "payment-service"
	SourceRestaurantService Source = "restaurant-service"
	SourceCustomerService   Source = "customer-service"
)

// Event is the canonical envelope every service exchanges. ID doubles as the
// consumer-side idempotency key: reprocessing an already-applied event ID
// must be a no-op.
type Event struct {
	ID            models.ID       `json:"id"`
	CorrelationID models.ID       `json:"correlation_id"`
	CausationID   models.ID       `json:"causation_id"`
	AggregateID   models.ID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Version       int             `json:"version"`
	Source        Source          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       interface{}     `json:"payload"`
}

// Publisher publishes events
type Publisher interface {
	Publish(ctx context.Context, events ...*Event) error
}

// Subscriber subscribes a handler to the service's event feed
type Subscriber interface {
	Subscribe(ctx context.Context, handler EventHandler) error
}

// EventHandler handles domain events
type EventHandler interface {
	HandlerID() string
	Handle(ctx context.Context, event *Event) error
}

// EventHandlerFunc adapts a function to the EventHandler interface
type EventHandlerFunc struct {
	id string
	fn func(ctx context.Context, event *Event) error
}

func NewEventHandlerFunc(id string, fn func(ctx context.Context, event *Event) error) *EventHandlerFunc {
	return &EventHandlerFunc{id: id, fn: fn}
}

func (h *EventHandlerFunc) HandlerID() string {
	return h.id
}

func (h *EventHandlerFunc) Handle(ctx context.Context, event *Event) error {
	return h.fn(ctx, event)
}

// NewEvent creates a new domain event. The correlation ID defaults to the
// aggregate ID so the first event of a saga starts its own chain.
func NewEvent(aggregateID models.ID, aggregateType, eventType string, source Source, payload interface{}) *Event {
	id := models.GenerateID()
	return &Event{
		ID:            id,
		CorrelationID: aggregateID,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Version:       1,
		Source:        source,
		Timestamp:     time.Now(),
		Payload:       payload,
	}
}

// CausedBy chains this event to the one that triggered it, propagating the
// correlation ID and recording the causation ID.
func (e *Event) CausedBy(cause *Event) *Event {
	e.CorrelationID = cause.CorrelationID
	e.CausationID = cause.ID
	return e
}

// MarshalPayload marshals the event payload
func (e *Event) MarshalPayload() (json.RawMessage, error) {
	if b, ok := e.Payload.([]byte); ok {
		return b, nil
	}
	if b, ok := e.Payload.(json.RawMessage); ok {
		return b, nil
	}
	return json.Marshal(e.Payload)
}

// UnmarshalPayload unmarshals the event payload into the given pointer. The
// payload may be a typed struct (in-process delivery), raw JSON (wire
// delivery) or a decoded map (storage round trip).
func (e *Event) UnmarshalPayload(v interface{}) error {
	if b, ok := e.Payload.([]byte); ok {
		return json.Unmarshal(b, v)
	}
	if b, ok := e.Payload.(json.RawMessage); ok {
		return json.Unmarshal(b, v)
	}
	raw, err := e.MarshalPayload()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// ToJSON converts event to JSON
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON creates event from JSON
func FromJSON(data []byte) (*Event, error) {
	var event Event
	err := json.Unmarshal(data, &event)
	return &event, err
}

// Aggregate types
const (
	AggregateTypeOrder         = "order"
	AggregateTypePayment       = "payment"
	AggregateTypeOrderApproval = "order_approval"
	AggregateTypeCustomer      = "customer"
)

// Event types. One per aggregate transition of interest; the saga is driven
// entirely by services reacting to these.
const (
	// Order events
	OrderCreatedEvent    = "order.created"
	OrderPaidEvent       = "order.paid"
	OrderCancellingEvent = "order.cancelling"
	OrderCancelledEvent  = "order.cancelled"

	// Payment events
	PaymentCompletedEvent = "payment.completed"
	PaymentFailedEvent    = "payment.failed"
	PaymentCancelledEvent = "payment.cancelled"

	// Restaurant approval events
	OrderApprovedEvent = "order.approved"
	OrderRejectedEvent = "order.rejected"

	// Customer events
	CustomerCreatedEvent = "customer.created"
)
