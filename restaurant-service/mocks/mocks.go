// Package mocks provides testify mocks for the restaurant service repositories.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/gaetanBloch/meal-order/restaurant-service/domain"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// MockCatalogueRepository is a mock of domain.CatalogueRepository
type MockCatalogueRepository struct {
	mock.Mock
}

// NewMockCatalogueRepository creates a new MockCatalogueRepository bound to t
func NewMockCatalogueRepository(t *testing.T) *MockCatalogueRepository {
	m := &MockCatalogueRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCatalogueRepository) FindByRestaurantID(ctx context.Context, restaurantID models.ID) (*domain.Catalogue, error) {
	args := m.Called(ctx, restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Catalogue), args.Error(1)
}

// MockOrderApprovalRepository is a mock of domain.OrderApprovalRepository
type MockOrderApprovalRepository struct {
	mock.Mock
}

// NewMockOrderApprovalRepository creates a new MockOrderApprovalRepository bound to t
func NewMockOrderApprovalRepository(t *testing.T) *MockOrderApprovalRepository {
	m := &MockOrderApprovalRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockOrderApprovalRepository) Save(ctx context.Context, restaurant *domain.Restaurant) error {
	args := m.Called(ctx, restaurant)
	return args.Error(0)
}

func (m *MockOrderApprovalRepository) FindByOrderID(ctx context.Context, orderID models.ID) (*domain.OrderApproval, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderApproval), args.Error(1)
}
