// Package mocks provides testify mocks for the customer service repositories.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/gaetanBloch/meal-order/customer-service/domain"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// MockCustomerRepository is a mock of domain.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

// NewMockCustomerRepository creates a new MockCustomerRepository bound to t
func NewMockCustomerRepository(t *testing.T) *MockCustomerRepository {
	m := &MockCustomerRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *domain.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id models.ID) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}
