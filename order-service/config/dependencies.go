package config

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/gaetanBloch/meal-order/order-service/application"
	"github.com/gaetanBloch/meal-order/order-service/domain"
	"github.com/gaetanBloch/meal-order/order-service/handlers"
	"github.com/gaetanBloch/meal-order/order-service/infrastructure"
	"github.com/gaetanBloch/meal-order/shared/events"
	sharedinfra "github.com/gaetanBloch/meal-order/shared/infrastructure"
	"github.com/gaetanBloch/meal-order/shared/saga"
	"github.com/gaetanBloch/meal-order/shared/telemetry"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	OrderRepository      *infrastructure.PostgresOrderRepository
	RestaurantRepository *infrastructure.PostgresRestaurantRepository
	CustomerRepository   *infrastructure.PostgresCustomerRepository

	// Use Cases
	CreateOrder             *application.CreateOrder
	TrackOrder              *application.TrackOrder
	ProcessPaymentResponse  *application.ProcessPaymentResponse
	ProcessApprovalResponse *application.ProcessApprovalResponse
	ProcessCustomerCreated  *application.ProcessCustomerCreated

	// HTTP Handlers
	OrderHandlers *handlers.OrderHandlers

	// Event Handlers (idempotent, serialized per saga instance)
	OrderEventHandler events.EventHandler

	// Infrastructure
	EventPublisher  *sharedinfra.SNSPublisherAdapter
	EventSubscriber *sharedinfra.SQSSubscriberAdapter
	OutboxRelay     *sharedinfra.OutboxRelay

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()
}

func BuildDependencies(ctx context.Context, config *Config) (*Dependencies, error) {
	deps := &Dependencies{}

	if config.Telemetry.Enabled {
		tel, telemetryShutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName:    config.ServiceName,
			ServiceVersion: "1.0.0",
			OTLPEndpoint:   config.Telemetry.OTLPEndpoint,
		})
		if err != nil {
			log.Printf("Failed to initialize telemetry: %v", err)
		} else {
			deps.Telemetry = tel
			deps.TelemetryShutdown = telemetryShutdown
		}
	}

	db, err := sqlx.Connect("postgres", config.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	deps.DB = db

	eventPublisher, err := sharedinfra.NewSNSPublisherAdapter(config.AWS.SNSTopicArn)
	if err != nil {
		return nil, fmt.Errorf("failed to create SNS publisher: %w", err)
	}
	deps.EventPublisher = eventPublisher

	eventSubscriber, err := sharedinfra.NewSQSSubscriberAdapter(config.AWS.SQSQueueURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQS subscriber: %w", err)
	}
	deps.EventSubscriber = eventSubscriber

	// Outbox: repositories append event rows in the aggregate transaction,
	// the relay pushes them to SNS.
	outboxStore := sharedinfra.NewPostgresOutboxStore(db)
	deps.OutboxRelay = sharedinfra.NewOutboxRelay(outboxStore, eventPublisher)

	deps.OrderRepository = infrastructure.NewPostgresOrderRepository(db, outboxStore)
	deps.RestaurantRepository = infrastructure.NewPostgresRestaurantRepository(db)
	deps.CustomerRepository = infrastructure.NewPostgresCustomerRepository(db)

	domainService := domain.NewOrderDomainService()

	deps.CreateOrder = application.NewCreateOrder(deps.OrderRepository, deps.RestaurantRepository, deps.CustomerRepository, domainService)
	deps.TrackOrder = application.NewTrackOrder(deps.OrderRepository)
	deps.ProcessPaymentResponse = application.NewProcessPaymentResponse(deps.OrderRepository, domainService)
	deps.ProcessApprovalResponse = application.NewProcessApprovalResponse(deps.OrderRepository, domainService)
	deps.ProcessCustomerCreated = application.NewProcessCustomerCreated(deps.CustomerRepository)

	deps.OrderHandlers = handlers.NewOrderHandlers(deps.CreateOrder, deps.TrackOrder)

	eventHandlers := handlers.NewOrderEventHandlers(
		deps.ProcessPaymentResponse,
		deps.ProcessApprovalResponse,
		deps.ProcessCustomerCreated,
	)
	inbox := sharedinfra.NewPostgresInbox(db)
	// Events of one saga instance share a correlation id (the order id), so
	// keyed dispatch serializes reactions per order while distinct orders
	// proceed in parallel.
	deps.OrderEventHandler = saga.NewKeyedDispatcher(
		saga.Idempotent(eventHandlers, inbox),
		saga.ByCorrelationID,
	)

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	if d.EventPublisher != nil {
		if err := d.EventPublisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}
	if d.EventSubscriber != nil {
		if err := d.EventSubscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event subscriber: %w", err))
		}
	}
	if d.TelemetryShutdown != nil {
		d.TelemetryShutdown()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}
	return nil
}
