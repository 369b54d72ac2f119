package config

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/gaetanBloch/meal-order/customer-service/application"
	"github.com/gaetanBloch/meal-order/customer-service/domain"
	"github.com/gaetanBloch/meal-order/customer-service/handlers"
	"github.com/gaetanBloch/meal-order/customer-service/infrastructure"
	sharedinfra "github.com/gaetanBloch/meal-order/shared/infrastructure"
	"github.com/gaetanBloch/meal-order/shared/telemetry"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	CustomerRepository *infrastructure.PostgresCustomerRepository

	// Use Cases
	CreateCustomer *application.CreateCustomer
	GetCustomer    *application.GetCustomer

	// HTTP Handlers
	CustomerHandlers *handlers.CustomerHandlers

	// Infrastructure. The customer service only emits events, so there is no
	// subscriber here.
	EventPublisher *sharedinfra.SNSPublisherAdapter
	OutboxRelay    *sharedinfra.OutboxRelay

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

	outboxStore := sharedinfra.NewPostgresOutboxStore(db)
	deps.OutboxRelay = sharedinfra.NewOutboxRelay(outboxStore, eventPublisher)

	deps.CustomerRepository = infrastructure.NewPostgresCustomerRepository(db, outboxStore)

	domainService := domain.NewCustomerDomainService()

	deps.CreateCustomer = application.NewCreateCustomer(deps.CustomerRepository, domainService)
	deps.GetCustomer = application.NewGetCustomer(deps.CustomerRepository)

	deps.CustomerHandlers = handlers.NewCustomerHandlers(deps.CreateCustomer, deps.GetCustomer)

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
	if d.TelemetryShutdown != nil {
		d.TelemetryShutdown()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}
	return nil
}
