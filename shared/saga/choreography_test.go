package saga_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderapp "github.com/gaetanBloch/meal-order/order-service/application"
	orderdomain "github.com/gaetanBloch/meal-order/order-service/domain"
	orderhandlers "github.com/gaetanBloch/meal-order/order-service/handlers"
	paymentapp "github.com/gaetanBloch/meal-order/payment-service/application"
	paymentdomain "github.com/gaetanBloch/meal-order/payment-service/domain"
	paymenthandlers "github.com/gaetanBloch/meal-order/payment-service/handlers"
	restaurantapp "github.com/gaetanBloch/meal-order/restaurant-service/application"
	restaurantdomain "github.com/gaetanBloch/meal-order/restaurant-service/domain"
	restauranthandlers "github.com/gaetanBloch/meal-order/restaurant-service/handlers"
	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
	"github.com/gaetanBloch/meal-order/shared/saga"
)

// The saga is exercised end to end through an in-process bus: every
// repository save publishes the aggregate's recorded events synchronously, so
// one CreateOrder call drives the whole choreography to its terminal state.

const (
	customerID   = "550e8400-e29b-41d4-a716-446655440010"
	restaurantID = "550e8400-e29b-41d4-a716-446655440020"
	productAID   = "550e8400-e29b-41d4-a716-446655440030"
	productBID   = "550e8400-e29b-41d4-a716-446655440031"
)

// memoryOrderRepository keeps orders in maps and relays saved events to the bus.
type memoryOrderRepository struct {
	bus        *events.MemoryBus
	byID       map[models.ID]*orderdomain.Order
	byTracking map[models.ID]*orderdomain.Order
}

func newMemoryOrderRepository(bus *events.MemoryBus) *memoryOrderRepository {
	return &memoryOrderRepository{
		bus:        bus,
		byID:       make(map[models.ID]*orderdomain.Order),
		byTracking: make(map[models.ID]*orderdomain.Order),
	}
}

func (r *memoryOrderRepository) Save(ctx context.Context, order *orderdomain.Order) error {
	r.byID[order.ID] = order
	r.byTracking[order.TrackingID] = order
	evts := order.Events()
	order.ClearEvents()
	return r.bus.Publish(ctx, evts...)
}

func (r *memoryOrderRepository) FindByID(_ context.Context, id models.ID) (*orderdomain.Order, error) {
	return r.byID[id], nil
}

func (r *memoryOrderRepository) FindByTrackingID(_ context.Context, trackingID models.ID) (*orderdomain.Order, error) {
	return r.byTracking[trackingID], nil
}

type memoryRestaurantViewRepository struct {
	restaurant *orderdomain.Restaurant
}

func (r *memoryRestaurantViewRepository) FindByID(_ context.Context, id models.ID) (*orderdomain.Restaurant, error) {
	if r.restaurant.ID != id {
		return nil, nil
	}
	return r.restaurant, nil
}

type memoryCustomerProjection struct {
	customers map[models.ID]*orderdomain.Customer
	saves     int
}

func (r *memoryCustomerProjection) Save(_ context.Context, customer *orderdomain.Customer) error {
	r.customers[customer.ID] = customer
	r.saves++
	return nil
}

func (r *memoryCustomerProjection) FindByID(_ context.Context, id models.ID) (*orderdomain.Customer, error) {
	return r.customers[id], nil
}

// memoryLedger backs the three payment repositories and enforces the
// selective persist rule: Save stores the payment only, SaveWithLedger also
// commits the entry balance and the appended history.
type memoryLedger struct {
	bus       *events.MemoryBus
	payments  map[models.ID]*paymentdomain.Payment
	entry     *paymentdomain.CreditEntry
	histories []*paymentdomain.CreditHistory
}

func (l *memoryLedger) Save(ctx context.Context, payment *paymentdomain.Payment) error {
	l.payments[payment.OrderID] = payment
	evts := payment.Events()
	payment.ClearEvents()
	return l.bus.Publish(ctx, evts...)
}

func (l *memoryLedger) SaveWithLedger(ctx context.Context, payment *paymentdomain.Payment, entry *paymentdomain.CreditEntry, history *paymentdomain.CreditHistory) error {
	l.payments[payment.OrderID] = payment
	l.entry = entry
	l.histories = append(l.histories, history)
	evts := payment.Events()
	payment.ClearEvents()
	return l.bus.Publish(ctx, evts...)
}

func (l *memoryLedger) FindByOrderID(_ context.Context, orderID models.ID) (*paymentdomain.Payment, error) {
	return l.payments[orderID], nil
}

func (l *memoryLedger) FindByCustomerID(_ context.Context, _ models.ID) (*paymentdomain.CreditEntry, error) {
	// Rehydrate a copy, like a row-backed repository would. A debit applied
	// to the loaded entry reaches the stored ledger only through
	// SaveWithLedger.
	entry := *l.entry
	return &entry, nil
}

type memoryHistoryRepository struct {
	ledger *memoryLedger
}

func (r *memoryHistoryRepository) FindByCustomerID(_ context.Context, _ models.ID) ([]*paymentdomain.CreditHistory, error) {
	return r.ledger.histories, nil
}

type memoryCatalogueRepository struct {
	catalogue *restaurantdomain.Catalogue
}

func (r *memoryCatalogueRepository) FindByRestaurantID(_ context.Context, id models.ID) (*restaurantdomain.Catalogue, error) {
	if r.catalogue.RestaurantID != id {
		return nil, nil
	}
	return r.catalogue, nil
}

type memoryApprovalRepository struct {
	bus       *events.MemoryBus
	approvals map[models.ID]*restaurantdomain.OrderApproval
}

func (r *memoryApprovalRepository) Save(ctx context.Context, restaurant *restaurantdomain.Restaurant) error {
	r.approvals[restaurant.OrderApproval.OrderID] = restaurant.OrderApproval
	evts := restaurant.Events()
	restaurant.ClearEvents()
	return r.bus.Publish(ctx, evts...)
}

func (r *memoryApprovalRepository) FindByOrderID(_ context.Context, orderID models.ID) (*restaurantdomain.OrderApproval, error) {
	return r.approvals[orderID], nil
}

type choreography struct {
	bus         *events.MemoryBus
	orders      *memoryOrderRepository
	ledger      *memoryLedger
	approvals   *memoryApprovalRepository
	customers   *memoryCustomerProjection
	createOrder *orderapp.CreateOrder
}

// newChoreography wires the three services' handlers onto one bus. The
// keyed dispatcher is left out: the bus dispatches synchronously on one
// goroutine, and re-entrant handling of one saga would self-deadlock on the
// per-key lock it only needs under concurrent delivery.
func newChoreography(balance string, availability restaurantdomain.Availability) *choreography {
	bus := events.NewMemoryBus()

	// Order service
	orders := newMemoryOrderRepository(bus)
	restaurantView := &memoryRestaurantViewRepository{restaurant: &orderdomain.Restaurant{
		ID:     models.ID(restaurantID),
		Active: true,
		Products: []*orderdomain.Product{
			{ID: models.ID(productAID), Label: "Margherita", Price: models.MustMoney("10.00")},
			{ID: models.ID(productBID), Label: "Calzone", Price: models.MustMoney("20.00")},
		},
	}}
	customers := &memoryCustomerProjection{customers: map[models.ID]*orderdomain.Customer{
		models.ID(customerID): {ID: models.ID(customerID), Username: "gbloch"},
	}}
	orderService := orderdomain.NewOrderDomainService()
	createOrder := orderapp.NewCreateOrder(orders, restaurantView, customers, orderService)
	orderHandler := saga.Idempotent(orderhandlers.NewOrderEventHandlers(
		orderapp.NewProcessPaymentResponse(orders, orderService),
		orderapp.NewProcessApprovalResponse(orders, orderService),
		orderapp.NewProcessCustomerCreated(customers),
	), saga.NewMemoryInbox())

	// Payment service
	ledger := &memoryLedger{
		bus:      bus,
		payments: make(map[models.ID]*paymentdomain.Payment),
		entry: &paymentdomain.CreditEntry{
			ID:                models.GenerateID(),
			CustomerID:        models.ID(customerID),
			TotalCreditAmount: models.MustMoney(balance),
		},
	}
	ledger.histories = []*paymentdomain.CreditHistory{{
		ID:              models.GenerateID(),
		CustomerID:      models.ID(customerID),
		Amount:          models.MustMoney(balance),
		TransactionType: paymentdomain.TransactionTypeCredit,
	}}
	paymentService := paymentdomain.NewPaymentDomainService()
	paymentHandler := saga.Idempotent(paymenthandlers.NewPaymentEventHandlers(
		paymentapp.NewProcessPaymentRequest(ledger, ledger, &memoryHistoryRepository{ledger: ledger}, paymentService),
		paymentapp.NewCancelPayment(ledger, ledger, &memoryHistoryRepository{ledger: ledger}, paymentService),
	), saga.NewMemoryInbox())

	// Restaurant service
	approvals := &memoryApprovalRepository{
		bus:       bus,
		approvals: make(map[models.ID]*restaurantdomain.OrderApproval),
	}
	catalogue := &memoryCatalogueRepository{catalogue: &restaurantdomain.Catalogue{
		RestaurantID: models.ID(restaurantID),
		Active:       true,
		Entries: []*restaurantdomain.CatalogueEntry{
			{ProductID: models.ID(productAID), Label: "Margherita", Price: models.MustMoney("10.00"), Availability: availability},
			{ProductID: models.ID(productBID), Label: "Calzone", Price: models.MustMoney("20.00"), Availability: restaurantdomain.Available},
		},
	}}
	restaurantHandler := saga.Idempotent(restauranthandlers.NewRestaurantEventHandlers(
		restaurantapp.NewApproveOrder(catalogue, approvals, restaurantdomain.NewRestaurantDomainService()),
	), saga.NewMemoryInbox())

	bus.Register(orderHandler)
	bus.Register(paymentHandler)
	bus.Register(restaurantHandler)

	return &choreography{
		bus:         bus,
		orders:      orders,
		ledger:      ledger,
		approvals:   approvals,
		customers:   customers,
		createOrder: createOrder,
	}
}

func placeOrder(t *testing.T, c *choreography) models.ID {
	t.Helper()
	result, err := c.createOrder.Execute(context.Background(), &orderapp.CreateOrderCommand{
		CustomerID:   customerID,
		RestaurantID: restaurantID,
		Address:      orderapp.CreateOrderAddress{Street: "1 rue de la Paix", PostalCode: "75002", City: "Paris"},
		Price:        "30.00",
		Items: []orderapp.CreateOrderItemCommand{
			{ProductID: productAID, Quantity: 1, Price: "10.00", SubTotal: "10.00"},
			{ProductID: productBID, Quantity: 1, Price: "20.00", SubTotal: "20.00"},
		},
	})
	require.NoError(t, err)
	return models.ID(result.OrderID)
}

func TestChoreography_OrderConfirmed(t *testing.T) {
	c := newChoreography("50.00", restaurantdomain.Available)
	orderID := placeOrder(t, c)

	order := c.orders.byID[orderID]
	require.NotNil(t, order)
	assert.Equal(t, orderdomain.OrderStatusConfirmed, order.Status)
	assert.Empty(t, order.FailureMessages)

	payment := c.ledger.payments[orderID]
	require.NotNil(t, payment)
	assert.Equal(t, paymentdomain.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, "20.00", c.ledger.entry.TotalCreditAmount.String())
	assert.Len(t, c.ledger.histories, 2)

	approval := c.approvals.approvals[orderID]
	require.NotNil(t, approval)
	assert.Equal(t, restaurantdomain.ApprovalApproved, approval.Status)
}

func TestChoreography_InsufficientCredit(t *testing.T) {
	c := newChoreography("10.00", restaurantdomain.Available)
	orderID := placeOrder(t, c)

	order := c.orders.byID[orderID]
	require.NotNil(t, order)
	assert.Equal(t, orderdomain.OrderStatusCancelled, order.Status)
	require.NotEmpty(t, order.FailureMessages)
	assert.Contains(t, order.FailureMessages[0], "doesn't have enough credit for payment")

	// Payment row persisted for audit, ledger untouched
	payment := c.ledger.payments[orderID]
	require.NotNil(t, payment)
	assert.Equal(t, paymentdomain.PaymentStatusFailed, payment.Status)
	assert.Len(t, c.ledger.histories, 1)
	assert.Equal(t, "10.00", c.ledger.entry.TotalCreditAmount.String())

	// The order never reached the restaurant
	assert.Empty(t, c.approvals.approvals)
}

func TestChoreography_RestaurantRejection(t *testing.T) {
	c := newChoreography("50.00", restaurantdomain.Unavailable)
	orderID := placeOrder(t, c)

	order := c.orders.byID[orderID]
	require.NotNil(t, order)
	assert.Equal(t, orderdomain.OrderStatusCancelled, order.Status)

	var unavailableMessage bool
	for _, message := range order.FailureMessages {
		if strings.Contains(message, "Product with id: "+productAID+" is not available") {
			unavailableMessage = true
		}
	}
	assert.True(t, unavailableMessage, "rejection must name the unavailable product")

	approval := c.approvals.approvals[orderID]
	require.NotNil(t, approval)
	assert.Equal(t, restaurantdomain.ApprovalRejected, approval.Status)

	// Compensation reversed the debit
	payment := c.ledger.payments[orderID]
	require.NotNil(t, payment)
	assert.Equal(t, paymentdomain.PaymentStatusCancelled, payment.Status)
	assert.Equal(t, "50.00", c.ledger.entry.TotalCreditAmount.String())
	assert.Len(t, c.ledger.histories, 3)
}

func TestChoreography_RedeliveryIsNoOp(t *testing.T) {
	c := newChoreography("50.00", restaurantdomain.Available)

	newCustomerID := models.GenerateID()
	evt := events.NewEvent(newCustomerID, events.AggregateTypeCustomer, events.CustomerCreatedEvent,
		events.SourceCustomerService, map[string]string{
			"customer_id": newCustomerID.String(),
			"username":    "jdoe",
			"first_name":  "John",
			"last_name":   "Doe",
		})

	require.NoError(t, c.bus.Publish(context.Background(), evt))
	savesAfterFirst := c.customers.saves
	require.NotNil(t, c.customers.customers[newCustomerID])

	// Same event id on redelivery, so the inbox drops it before the handler.
	require.NoError(t, c.bus.Publish(context.Background(), evt))
	assert.Equal(t, savesAfterFirst, c.customers.saves)
}
