package application

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gaetanBloch/meal-order/order-service/domain"
	"github.com/gaetanBloch/meal-order/order-service/mocks"
	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
)

const (
	testCustomerID   = "550e8400-e29b-41d4-a716-446655440010"
	testRestaurantID = "550e8400-e29b-41d4-a716-446655440020"
	testProductAID   = "550e8400-e29b-41d4-a716-446655440030"
	testProductBID   = "550e8400-e29b-41d4-a716-446655440031"
)

func validCommand() *CreateOrderCommand {
	return &CreateOrderCommand{
		CustomerID:   testCustomerID,
		RestaurantID: testRestaurantID,
		Address:      CreateOrderAddress{Street: "1 rue de la Paix", PostalCode: "75002", City: "Paris"},
		Price:        "30.00",
		Items: []CreateOrderItemCommand{
			{ProductID: testProductAID, Quantity: 1, Price: "10.00", SubTotal: "10.00"},
			{ProductID: testProductBID, Quantity: 1, Price: "20.00", SubTotal: "20.00"},
		},
	}
}

func testCustomer() *domain.Customer {
	return &domain.Customer{ID: models.ID(testCustomerID), Username: "gbloch"}
}

func testRestaurant() *domain.Restaurant {
	return &domain.Restaurant{
		ID:     models.ID(testRestaurantID),
		Active: true,
		Products: []*domain.Product{
			{ID: models.ID(testProductAID), Label: "Margherita", Price: models.MustMoney("10.00")},
			{ID: models.ID(testProductBID), Label: "Calzone", Price: models.MustMoney("20.00")},
		},
	}
}

func TestCreateOrder_Execute(t *testing.T) {
	tests := []struct {
		name          string
		command       *CreateOrderCommand
		setupMocks    func(*mocks.MockOrderRepository, *mocks.MockRestaurantRepository, *mocks.MockCustomerRepository)
		expectedError string
	}{
		{
			name:    "successful order creation",
			command: validCommand(),
			setupMocks: func(orderRepo *mocks.MockOrderRepository, restaurantRepo *mocks.MockRestaurantRepository, customerRepo *mocks.MockCustomerRepository) {
				customerRepo.On("FindByID", mock.Anything, models.ID(testCustomerID)).Return(testCustomer(), nil).Once()
				restaurantRepo.On("FindByID", mock.Anything, models.ID(testRestaurantID)).Return(testRestaurant(), nil).Once()
				orderRepo.On("Save", mock.Anything, mock.MatchedBy(func(order *domain.Order) bool {
					return order.Status == domain.OrderStatusPending &&
						len(order.Events()) == 1 &&
						order.Events()[0].EventType == events.OrderCreatedEvent
				})).Return(nil).Once()
			},
		},
		{
			name: "missing customer ID",
			command: func() *CreateOrderCommand {
				cmd := validCommand()
				cmd.CustomerID = ""
				return cmd
			}(),
			setupMocks:    func(*mocks.MockOrderRepository, *mocks.MockRestaurantRepository, *mocks.MockCustomerRepository) {},
			expectedError: "customer ID is required",
		},
		{
			name: "zero quantity",
			command: func() *CreateOrderCommand {
				cmd := validCommand()
				cmd.Items[0].Quantity = 0
				return cmd
			}(),
			setupMocks:    func(*mocks.MockOrderRepository, *mocks.MockRestaurantRepository, *mocks.MockCustomerRepository) {},
			expectedError: "item quantity must be positive",
		},
		{
			name:    "unknown customer",
			command: validCommand(),
			setupMocks: func(orderRepo *mocks.MockOrderRepository, restaurantRepo *mocks.MockRestaurantRepository, customerRepo *mocks.MockCustomerRepository) {
				customerRepo.On("FindByID", mock.Anything, models.ID(testCustomerID)).Return(nil, nil).Once()
			},
			expectedError: "customer not found",
		},
		{
			name:    "unknown restaurant",
			command: validCommand(),
			setupMocks: func(orderRepo *mocks.MockOrderRepository, restaurantRepo *mocks.MockRestaurantRepository, customerRepo *mocks.MockCustomerRepository) {
				customerRepo.On("FindByID", mock.Anything, models.ID(testCustomerID)).Return(testCustomer(), nil).Once()
				restaurantRepo.On("FindByID", mock.Anything, models.ID(testRestaurantID)).Return(nil, nil).Once()
			},
			expectedError: "restaurant not found",
		},
		{
			name: "order total does not match items",
			command: func() *CreateOrderCommand {
				cmd := validCommand()
				cmd.Price = "35.00"
				return cmd
			}(),
			setupMocks: func(orderRepo *mocks.MockOrderRepository, restaurantRepo *mocks.MockRestaurantRepository, customerRepo *mocks.MockCustomerRepository) {
				customerRepo.On("FindByID", mock.Anything, models.ID(testCustomerID)).Return(testCustomer(), nil).Once()
				restaurantRepo.On("FindByID", mock.Anything, models.ID(testRestaurantID)).Return(testRestaurant(), nil).Once()
			},
			expectedError: "is not equal to order items total",
		},
		{
			name:    "repository save error",
			command: validCommand(),
			setupMocks: func(orderRepo *mocks.MockOrderRepository, restaurantRepo *mocks.MockRestaurantRepository, customerRepo *mocks.MockCustomerRepository) {
				customerRepo.On("FindByID", mock.Anything, models.ID(testCustomerID)).Return(testCustomer(), nil).Once()
				restaurantRepo.On("FindByID", mock.Anything, models.ID(testRestaurantID)).Return(testRestaurant(), nil).Once()
				orderRepo.On("Save", mock.Anything, mock.Anything).Return(errors.New("database error")).Once()
			},
			expectedError: "failed to save order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orderRepo := mocks.NewMockOrderRepository(t)
			restaurantRepo := mocks.NewMockRestaurantRepository(t)
			customerRepo := mocks.NewMockCustomerRepository(t)
			tt.setupMocks(orderRepo, restaurantRepo, customerRepo)

			useCase := NewCreateOrder(orderRepo, restaurantRepo, customerRepo, domain.NewOrderDomainService())

			result, err := useCase.Execute(context.Background(), tt.command)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, result)
				assert.NotEmpty(t, result.OrderID)
				assert.NotEmpty(t, result.TrackingID)
				assert.Equal(t, string(domain.OrderStatusPending), result.Status)
			}
		})
	}
}
