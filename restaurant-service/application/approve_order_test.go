package application

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gaetanBloch/meal-order/restaurant-service/domain"
	"github.com/gaetanBloch/meal-order/restaurant-service/mocks"
	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
)

const (
	testOrderID      = "550e8400-e29b-41d4-a716-446655440001"
	testRestaurantID = "550e8400-e29b-41d4-a716-446655440020"
	testProductAID   = "550e8400-e29b-41d4-a716-446655440030"
	testProductBID   = "550e8400-e29b-41d4-a716-446655440031"
)

func testCatalogue() *domain.Catalogue {
	return &domain.Catalogue{
		RestaurantID: models.ID(testRestaurantID),
		Active:       true,
		Entries: []*domain.CatalogueEntry{
			{ProductID: models.ID(testProductAID), Label: "Margherita", Price: models.MustMoney("10.00"), Availability: domain.Available},
			{ProductID: models.ID(testProductBID), Label: "Calzone", Price: models.MustMoney("20.00"), Availability: domain.Available},
		},
	}
}

func approvalCommand() *ApproveOrderCommand {
	return &ApproveOrderCommand{
		OrderID:      testOrderID,
		RestaurantID: testRestaurantID,
		OrderStatus:  string(domain.OrderStatusPaid),
		Price:        "30.00",
		Items: []ApproveOrderItem{
			{ProductID: testProductAID, Quantity: 1},
			{ProductID: testProductBID, Quantity: 1},
		},
		Cause: events.NewEvent(models.ID(testOrderID), events.AggregateTypeOrder,
			events.OrderPaidEvent, events.SourceOrderService, nil),
	}
}

func TestApproveOrder_Execute(t *testing.T) {
	t.Run("matching order is approved", func(t *testing.T) {
		cmd := approvalCommand()

		catalogueRepo := mocks.NewMockCatalogueRepository(t)
		approvalRepo := mocks.NewMockOrderApprovalRepository(t)

		catalogueRepo.On("FindByRestaurantID", mock.Anything, models.ID(testRestaurantID)).Return(testCatalogue(), nil).Once()
		approvalRepo.On("Save", mock.Anything, mock.MatchedBy(func(restaurant *domain.Restaurant) bool {
			if restaurant.OrderApproval == nil || restaurant.OrderApproval.Status != domain.ApprovalApproved {
				return false
			}
			if len(restaurant.Events()) != 1 {
				return false
			}
			evt := restaurant.Events()[0]
			return evt.EventType == events.OrderApprovedEvent &&
				evt.CausationID == cmd.Cause.ID &&
				evt.CorrelationID == cmd.Cause.CorrelationID
		})).Return(nil).Once()

		useCase := NewApproveOrder(catalogueRepo, approvalRepo, domain.NewRestaurantDomainService())
		require.NoError(t, useCase.Execute(context.Background(), cmd))
	})

	t.Run("unavailable product rejects the order", func(t *testing.T) {
		catalogue := testCatalogue()
		catalogue.Entries[0].Availability = domain.Unavailable

		catalogueRepo := mocks.NewMockCatalogueRepository(t)
		approvalRepo := mocks.NewMockOrderApprovalRepository(t)

		catalogueRepo.On("FindByRestaurantID", mock.Anything, models.ID(testRestaurantID)).Return(catalogue, nil).Once()
		approvalRepo.On("Save", mock.Anything, mock.MatchedBy(func(restaurant *domain.Restaurant) bool {
			if restaurant.OrderApproval == nil || restaurant.OrderApproval.Status != domain.ApprovalRejected {
				return false
			}
			if len(restaurant.Events()) != 1 || restaurant.Events()[0].EventType != events.OrderRejectedEvent {
				return false
			}
			data, ok := restaurant.Events()[0].Payload.(domain.OrderRejectedData)
			return ok && len(data.FailureMessages) == 1 &&
				strings.Contains(data.FailureMessages[0], testProductAID)
		})).Return(nil).Once()

		useCase := NewApproveOrder(catalogueRepo, approvalRepo, domain.NewRestaurantDomainService())
		require.NoError(t, useCase.Execute(context.Background(), approvalCommand()))
	})

	t.Run("price mismatch with the catalogue rejects the order", func(t *testing.T) {
		cmd := approvalCommand()
		cmd.Price = "25.00"

		catalogueRepo := mocks.NewMockCatalogueRepository(t)
		approvalRepo := mocks.NewMockOrderApprovalRepository(t)

		catalogueRepo.On("FindByRestaurantID", mock.Anything, models.ID(testRestaurantID)).Return(testCatalogue(), nil).Once()
		approvalRepo.On("Save", mock.Anything, mock.MatchedBy(func(restaurant *domain.Restaurant) bool {
			return restaurant.OrderApproval != nil && restaurant.OrderApproval.Status == domain.ApprovalRejected
		})).Return(nil).Once()

		useCase := NewApproveOrder(catalogueRepo, approvalRepo, domain.NewRestaurantDomainService())
		require.NoError(t, useCase.Execute(context.Background(), cmd))
	})

	t.Run("product missing from the catalogue rejects the order", func(t *testing.T) {
		catalogue := testCatalogue()
		catalogue.Entries = catalogue.Entries[1:]

		catalogueRepo := mocks.NewMockCatalogueRepository(t)
		approvalRepo := mocks.NewMockOrderApprovalRepository(t)

		catalogueRepo.On("FindByRestaurantID", mock.Anything, models.ID(testRestaurantID)).Return(catalogue, nil).Once()
		approvalRepo.On("Save", mock.Anything, mock.MatchedBy(func(restaurant *domain.Restaurant) bool {
			return restaurant.OrderApproval != nil && restaurant.OrderApproval.Status == domain.ApprovalRejected
		})).Return(nil).Once()

		useCase := NewApproveOrder(catalogueRepo, approvalRepo, domain.NewRestaurantDomainService())
		require.NoError(t, useCase.Execute(context.Background(), approvalCommand()))
	})

	t.Run("order not reported as paid is rejected", func(t *testing.T) {
		cmd := approvalCommand()
		cmd.OrderStatus = "PENDING"

		catalogueRepo := mocks.NewMockCatalogueRepository(t)
		approvalRepo := mocks.NewMockOrderApprovalRepository(t)

		catalogueRepo.On("FindByRestaurantID", mock.Anything, models.ID(testRestaurantID)).Return(testCatalogue(), nil).Once()
		approvalRepo.On("Save", mock.Anything, mock.MatchedBy(func(restaurant *domain.Restaurant) bool {
			if restaurant.OrderApproval == nil || restaurant.OrderApproval.Status != domain.ApprovalRejected {
				return false
			}
			data, ok := restaurant.Events()[0].Payload.(domain.OrderRejectedData)
			return ok && len(data.FailureMessages) == 1 &&
				strings.Contains(data.FailureMessages[0], "Payment is not completed for order")
		})).Return(nil).Once()

		useCase := NewApproveOrder(catalogueRepo, approvalRepo, domain.NewRestaurantDomainService())
		require.NoError(t, useCase.Execute(context.Background(), cmd))
	})

	t.Run("unknown restaurant is fatal", func(t *testing.T) {
		catalogueRepo := mocks.NewMockCatalogueRepository(t)
		approvalRepo := mocks.NewMockOrderApprovalRepository(t)

		catalogueRepo.On("FindByRestaurantID", mock.Anything, models.ID(testRestaurantID)).Return(nil, nil).Once()

		useCase := NewApproveOrder(catalogueRepo, approvalRepo, domain.NewRestaurantDomainService())
		err := useCase.Execute(context.Background(), approvalCommand())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "restaurant not found")
	})
}
