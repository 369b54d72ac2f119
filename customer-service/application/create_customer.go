package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaetanBloch/meal-order/customer-service/domain"
	"github.com/gaetanBloch/meal-order/shared/telemetry"
)

// CreateCustomerCommand represents the command to create a customer
type CreateCustomerCommand struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CreateCustomerResponse represents the created customer
type CreateCustomerResponse struct {
	CustomerID string `json:"customer_id"`
	Username   string `json:"username"`
}

// CreateCustomer use case registers a customer and emits customer.created so
// the other services can maintain their projections.
type CreateCustomer struct {
	customerRepository domain.CustomerRepository
	domainService      *domain.CustomerDomainService
}

// NewCreateCustomer creates a new CreateCustomer use case
func NewCreateCustomer(
	customerRepository domain.CustomerRepository,
	domainService *domain.CustomerDomainService,
) *CreateCustomer {
	return &CreateCustomer{
		customerRepository: customerRepository,
		domainService:      domainService,
	}
}

// Execute creates a new customer
func (uc *CreateCustomer) Execute(ctx context.Context, cmd *CreateCustomerCommand) (*CreateCustomerResponse, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "create_customer",
		trace.WithAttributes(attribute.String("username", cmd.Username)),
	)
	defer span.End()

	status := "error"
	defer func() {
		telemetry.RecordCounter(ctx, "customer_operations_total", "Total customer operations", 1,
			attribute.String("operation", "create_customer"),
			attribute.String("status", status),
		)
		telemetry.RecordHistogram(ctx, "customer_operation_duration_seconds", "Customer operation duration", time.Since(start).Seconds(),
			attribute.String("operation", "create_customer"),
			attribute.String("status", status),
		)
	}()

	customer := &domain.Customer{
		Username:  cmd.Username,
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
	}

	if err := uc.domainService.CreateCustomer(customer); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := uc.customerRepository.Save(ctx, customer); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to save customer")
	}
	customer.ClearEvents()

	status = "success"
	span.SetAttributes(attribute.String("customer_id", customer.ID.String()))
	return &CreateCustomerResponse{
		CustomerID: customer.ID.String(),
		Username:   customer.Username,
	}, nil
}
