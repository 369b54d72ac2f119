// Package mocks provides testify mocks for the payment service repositories.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/gaetanBloch/meal-order/payment-service/domain"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// MockPaymentRepository is a mock of domain.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

// NewMockPaymentRepository creates a new MockPaymentRepository bound to t
func NewMockPaymentRepository(t *testing.T) *MockPaymentRepository {
	m := &MockPaymentRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) SaveWithLedger(ctx context.Context, payment *domain.Payment, creditEntry *domain.CreditEntry, history *domain.CreditHistory) error {
	args := m.Called(ctx, payment, creditEntry, history)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByOrderID(ctx context.Context, orderID models.ID) (*domain.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

// MockCreditEntryRepository is a mock of domain.CreditEntryRepository
type MockCreditEntryRepository struct {
	mock.Mock
}

// NewMockCreditEntryRepository creates a new MockCreditEntryRepository bound to t
func NewMockCreditEntryRepository(t *testing.T) *MockCreditEntryRepository {
	m := &MockCreditEntryRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCreditEntryRepository) FindByCustomerID(ctx context.Context, customerID models.ID) (*domain.CreditEntry, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreditEntry), args.Error(1)
}

// MockCreditHistoryRepository is a mock of domain.CreditHistoryRepository
type MockCreditHistoryRepository struct {
	mock.Mock
}

// NewMockCreditHistoryRepository creates a new MockCreditHistoryRepository bound to t
func NewMockCreditHistoryRepository(t *testing.T) *MockCreditHistoryRepository {
	m := &MockCreditHistoryRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCreditHistoryRepository) FindByCustomerID(ctx context.Context, customerID models.ID) ([]*domain.CreditHistory, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CreditHistory), args.Error(1)
}
