package domain

import (
	"context"
	"log"

	"github.com/pkg/errors"

	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// Customer is the customer aggregate. Other services keep their own
// projection of it, maintained from customer.created events.
type Customer struct {
	ID        models.ID
	Username  string
	FirstName string
	LastName  string
	models.Timestamps

	events []*events.Event
}

// Validate checks the customer invariants before initialization
func (c *Customer) Validate() error {
	if !c.ID.IsZero() {
		return errors.New("customer should not be initialized")
	}
	if c.Username == "" {
		return errors.New("username is required")
	}
	if c.FirstName == "" || c.LastName == "" {
		return errors.New("first name and last name are required")
	}
	return nil
}

// Initialize assigns the identity and records customer.created
func (c *Customer) Initialize() {
	c.ID = models.GenerateID()
	c.Timestamps = models.NewTimestamps()

	c.recordEvent(events.NewEvent(c.ID, events.AggregateTypeCustomer,
		events.CustomerCreatedEvent, events.SourceCustomerService, CustomerCreatedData{
			CustomerID: c.ID,
			Username:   c.Username,
			FirstName:  c.FirstName,
			LastName:   c.LastName,
		}))
}

// Events returns the recorded domain events
func (c *Customer) Events() []*events.Event {
	return c.events
}

// ClearEvents clears the recorded domain events
func (c *Customer) ClearEvents() {
	c.events = nil
}

func (c *Customer) recordEvent(event *events.Event) {
	c.events = append(c.events, event)
}

// CustomerCreatedData is the payload of customer.created.
type CustomerCreatedData struct {
	CustomerID models.ID `json:"customer_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
}

// CustomerDomainService validates and initializes new customers.
type CustomerDomainService struct{}

// NewCustomerDomainService creates a new customer domain service
func NewCustomerDomainService() *CustomerDomainService {
	return &CustomerDomainService{}
}

// CreateCustomer validates and initializes a new customer
func (s *CustomerDomainService) CreateCustomer(customer *Customer) error {
	if err := customer.Validate(); err != nil {
		return err
	}
	customer.Initialize()
	log.Printf("Customer with id: %s is initiated", customer.ID)
	return nil
}

// CustomerRepository persists customers together with their recorded events.
type CustomerRepository interface {
	Save(ctx context.Context, customer *Customer) error
	FindByID(ctx context.Context, id models.ID) (*Customer, error)
}
