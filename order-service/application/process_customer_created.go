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

// ProcessCustomerCreatedCommand carries a new customer into the projection
type ProcessCustomerCreatedCommand struct {
	CustomerID string `json:"customer_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

// ProcessCustomerCreated maintains the order service's customer projection
// from customer.created events. Order creation checks the projection instead
// of calling the customer service.
type ProcessCustomerCreated struct {
	customerRepository domain.CustomerRepository
}

// NewProcessCustomerCreated creates a new ProcessCustomerCreated use case
func NewProcessCustomerCreated(customerRepository domain.CustomerRepository) *ProcessCustomerCreated {
	return &ProcessCustomerCreated{customerRepository: customerRepository}
}

// Execute records the customer in the projection
func (uc *ProcessCustomerCreated) Execute(ctx context.Context, cmd *ProcessCustomerCreatedCommand) error {
	ctx, span := telemetry.StartSpan(ctx, "process_customer_created",
		trace.WithAttributes(attribute.String("customer_id", cmd.CustomerID)),
	)
	defer span.End()

	if cmd.CustomerID == "" {
		return errors.New("customer ID is required")
	}
	customerID, err := models.ParseID(cmd.CustomerID)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "invalid customer ID")
	}

	customer := &domain.Customer{
		ID:        customerID,
		Username:  cmd.Username,
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
	}

	if err := uc.customerRepository.Save(ctx, customer); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to save customer projection")
	}
	return nil
}
