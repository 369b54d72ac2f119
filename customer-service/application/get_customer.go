package application

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaetanBloch/meal-order/customer-service/domain"
	"github.com/gaetanBloch/meal-order/shared/models"
	"github.com/gaetanBloch/meal-order/shared/telemetry"
)

// GetCustomerQuery represents the query to get a customer by ID
type GetCustomerQuery struct {
	CustomerID string `json:"customer_id"`
}

// GetCustomerResponse represents the customer
type GetCustomerResponse struct {
	CustomerID string `json:"customer_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

// GetCustomer use case returns a customer by id.
type GetCustomer struct {
	customerRepository domain.CustomerRepository
}

// NewGetCustomer creates a new GetCustomer use case
func NewGetCustomer(customerRepository domain.CustomerRepository) *GetCustomer {
	return &GetCustomer{customerRepository: customerRepository}
}

// Execute retrieves a customer
func (uc *GetCustomer) Execute(ctx context.Context, query *GetCustomerQuery) (*GetCustomerResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "get_customer",
		trace.WithAttributes(attribute.String("customer_id", query.CustomerID)),
	)
	defer span.End()

	if query.CustomerID == "" {
		return nil, errors.New("customer ID is required")
	}
	customerID, err := models.ParseID(query.CustomerID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "invalid customer ID")
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

	return &GetCustomerResponse{
		CustomerID: customer.ID.String(),
		Username:   customer.Username,
		FirstName:  customer.FirstName,
		LastName:   customer.LastName,
	}, nil
}
