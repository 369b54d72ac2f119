package config

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/gaetanBloch/meal-order/restaurant-service/application"
	"github.com/gaetanBloch/meal-order/restaurant-service/domain"
	"github.com/gaetanBloch/meal-order/restaurant-service/handlers"
	"github.com/gaetanBloch/meal-order/restaurant-service/infrastructure"
	"github.com/gaetanBloch/meal-order/shared/events"
	sharedinfra "github.com/gaetanBloch/meal-order/shared/infrastructure"
	"github.com/gaetanBloch/meal-order/shared/saga"
	"github.com/gaetanBloch/meal-order/shared/telemetry"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	CatalogueRepository     *infrastructure.PostgresCatalogueRepository
	OrderApprovalRepository *infrastructure.PostgresOrderApprovalRepository

	// Use Cases
	ApproveOrder     *application.ApproveOrder
	GetOrderApproval *application.GetOrderApproval

	// HTTP Handlers
	RestaurantHandlers *handlers.RestaurantHandlers

	// Event Handlers (idempotent, serialized per saga)
	RestaurantEventHandler events.EventHandler

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

	outboxStore := sharedinfra.NewPostgresOutboxStore(db)
	deps.OutboxRelay = sharedinfra.NewOutboxRelay(outboxStore, eventPublisher)

	deps.CatalogueRepository = infrastructure.NewPostgresCatalogueRepository(db)
	deps.OrderApprovalRepository = infrastructure.NewPostgresOrderApprovalRepository(db, outboxStore)

	domainService := domain.NewRestaurantDomainService()

	deps.ApproveOrder = application.NewApproveOrder(
		deps.CatalogueRepository, deps.OrderApprovalRepository, domainService)
	deps.GetOrderApproval = application.NewGetOrderApproval(deps.OrderApprovalRepository)

	deps.RestaurantHandlers = handlers.NewRestaurantHandlers(deps.GetOrderApproval)

	eventHandlers := handlers.NewRestaurantEventHandlers(deps.ApproveOrder)
	inbox := sharedinfra.NewPostgresInbox(db)
	// Events of one saga share the order's correlation id, so approval
	// handling is serialized per order.
	deps.RestaurantEventHandler = saga.NewKeyedDispatcher(
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
