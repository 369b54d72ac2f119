package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gaetanBloch/meal-order/order-service/domain"
	"github.com/gaetanBloch/meal-order/order-service/mocks"
	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
)

const testOrderID = "550e8400-e29b-41d4-a716-446655440001"

func storedOrder(status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:           models.ID(testOrderID),
		CustomerID:   models.ID(testCustomerID),
		RestaurantID: models.ID(testRestaurantID),
		TrackingID:   models.GenerateID(),
		Price:        models.MustMoney("30.00"),
		Status:       status,
		Items: []*domain.OrderItem{
			{
				ID:       1,
				OrderID:  models.ID(testOrderID),
				Product:  &domain.Product{ID: models.ID(testProductAID), Label: "Margherita", Price: models.MustMoney("10.00")},
				Quantity: 3,
				Price:    models.MustMoney("10.00"),
				SubTotal: models.MustMoney("30.00"),
			},
		},
	}
}

func paymentEvent(eventType string) *events.Event {
	return events.NewEvent(models.GenerateID(), events.AggregateTypePayment, eventType,
		events.SourcePaymentService, nil)
}

func TestProcessPaymentResponse_Execute(t *testing.T) {
	t.Run("completed payment pays the order and chains order.paid", func(t *testing.T) {
		cause := paymentEvent(events.PaymentCompletedEvent)

		orderRepo := mocks.NewMockOrderRepository(t)
		orderRepo.On("FindByID", mock.Anything, models.ID(testOrderID)).Return(storedOrder(domain.OrderStatusPending), nil).Once()
		orderRepo.On("Save", mock.Anything, mock.MatchedBy(func(order *domain.Order) bool {
			if order.Status != domain.OrderStatusPaid || len(order.Events()) != 1 {
				return false
			}
			evt := order.Events()[0]
			return evt.EventType == events.OrderPaidEvent &&
				evt.CausationID == cause.ID &&
				evt.CorrelationID == cause.CorrelationID
		})).Return(nil).Once()

		useCase := NewProcessPaymentResponse(orderRepo, domain.NewOrderDomainService())
		err := useCase.Execute(context.Background(), &ProcessPaymentResponseCommand{
			OrderID: testOrderID,
			Outcome: PaymentOutcomeCompleted,
			Cause:   cause,
		})
		require.NoError(t, err)
	})

	t.Run("failed payment cancels a pending order", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepository(t)
		orderRepo.On("FindByID", mock.Anything, models.ID(testOrderID)).Return(storedOrder(domain.OrderStatusPending), nil).Once()
		orderRepo.On("Save", mock.Anything, mock.MatchedBy(func(order *domain.Order) bool {
			return order.Status == domain.OrderStatusCancelled &&
				len(order.FailureMessages) == 1
		})).Return(nil).Once()

		useCase := NewProcessPaymentResponse(orderRepo, domain.NewOrderDomainService())
		err := useCase.Execute(context.Background(), &ProcessPaymentResponseCommand{
			OrderID:         testOrderID,
			Outcome:         PaymentOutcomeFailed,
			FailureMessages: []string{"Customer doesn't have enough credit for payment!"},
			Cause:           paymentEvent(events.PaymentFailedEvent),
		})
		require.NoError(t, err)
	})

	t.Run("cancelled payment finishes the compensating path", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepository(t)
		orderRepo.On("FindByID", mock.Anything, models.ID(testOrderID)).Return(storedOrder(domain.OrderStatusCancelling), nil).Once()
		orderRepo.On("Save", mock.Anything, mock.MatchedBy(func(order *domain.Order) bool {
			return order.Status == domain.OrderStatusCancelled
		})).Return(nil).Once()

		useCase := NewProcessPaymentResponse(orderRepo, domain.NewOrderDomainService())
		err := useCase.Execute(context.Background(), &ProcessPaymentResponseCommand{
			OrderID: testOrderID,
			Outcome: PaymentOutcomeCancelled,
			Cause:   paymentEvent(events.PaymentCancelledEvent),
		})
		require.NoError(t, err)
	})

	t.Run("out of order completion is fatal", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepository(t)
		orderRepo.On("FindByID", mock.Anything, models.ID(testOrderID)).Return(storedOrder(domain.OrderStatusConfirmed), nil).Once()

		useCase := NewProcessPaymentResponse(orderRepo, domain.NewOrderDomainService())
		err := useCase.Execute(context.Background(), &ProcessPaymentResponseCommand{
			OrderID: testOrderID,
			Outcome: PaymentOutcomeCompleted,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PENDING")
	})

	t.Run("unknown order", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepository(t)
		orderRepo.On("FindByID", mock.Anything, models.ID(testOrderID)).Return(nil, nil).Once()

		useCase := NewProcessPaymentResponse(orderRepo, domain.NewOrderDomainService())
		err := useCase.Execute(context.Background(), &ProcessPaymentResponseCommand{
			OrderID: testOrderID,
			Outcome: PaymentOutcomeCompleted,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "order not found")
	})
}

func TestProcessApprovalResponse_Execute(t *testing.T) {
	t.Run("approval confirms the order", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepository(t)
		orderRepo.On("FindByID", mock.Anything, models.ID(testOrderID)).Return(storedOrder(domain.OrderStatusPaid), nil).Once()
		orderRepo.On("Save", mock.Anything, mock.MatchedBy(func(order *domain.Order) bool {
			return order.Status == domain.OrderStatusConfirmed && len(order.Events()) == 0
		})).Return(nil).Once()

		useCase := NewProcessApprovalResponse(orderRepo, domain.NewOrderDomainService())
		err := useCase.Execute(context.Background(), &ProcessApprovalResponseCommand{
			OrderID:  testOrderID,
			Approved: true,
		})
		require.NoError(t, err)
	})

	t.Run("rejection starts the compensating path", func(t *testing.T) {
		cause := events.NewEvent(models.GenerateID(), events.AggregateTypeOrderApproval,
			events.OrderRejectedEvent, events.SourceRestaurantService, nil)

		orderRepo := mocks.NewMockOrderRepository(t)
		orderRepo.On("FindByID", mock.Anything, models.ID(testOrderID)).Return(storedOrder(domain.OrderStatusPaid), nil).Once()
		orderRepo.On("Save", mock.Anything, mock.MatchedBy(func(order *domain.Order) bool {
			if order.Status != domain.OrderStatusCancelling || len(order.Events()) != 1 {
				return false
			}
			evt := order.Events()[0]
			return evt.EventType == events.OrderCancellingEvent && evt.CausationID == cause.ID
		})).Return(nil).Once()

		useCase := NewProcessApprovalResponse(orderRepo, domain.NewOrderDomainService())
		err := useCase.Execute(context.Background(), &ProcessApprovalResponseCommand{
			OrderID:         testOrderID,
			Approved:        false,
			FailureMessages: []string{"Product with id: 550e8400-e29b-41d4-a716-446655440030 is not available"},
			Cause:           cause,
		})
		require.NoError(t, err)
	})
}
