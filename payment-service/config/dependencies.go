package config

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/gaetanBloch/meal-order/payment-service/application"
	"github.com/gaetanBloch/meal-order/payment-service/domain"
	"github.com/gaetanBloch/meal-order/payment-service/handlers"
	"github.com/gaetanBloch/meal-order/payment-service/infrastructure"
	"github.com/gaetanBloch/meal-order/shared/events"
	sharedinfra "github.com/gaetanBloch/meal-order/shared/infrastructure"
	"github.com/gaetanBloch/meal-order/shared/saga"
	"github.com/gaetanBloch/meal-order/shared/telemetry"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	PaymentRepository       *infrastructure.PostgresPaymentRepository
	CreditEntryRepository   *infrastructure.PostgresCreditEntryRepository
	CreditHistoryRepository *infrastructure.PostgresCreditHistoryRepository

	// Use Cases
	ProcessPaymentRequest *application.ProcessPaymentRequest
	CancelPayment         *application.CancelPayment
	GetPayment            *application.GetPayment

	// HTTP Handlers
	PaymentHandlers *handlers.PaymentHandlers

	// Event Handlers (idempotent, serialized per customer ledger)
	PaymentEventHandler events.EventHandler

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

	deps.PaymentRepository = infrastructure.NewPostgresPaymentRepository(db, outboxStore)
	deps.CreditEntryRepository = infrastructure.NewPostgresCreditEntryRepository(db)
	deps.CreditHistoryRepository = infrastructure.NewPostgresCreditHistoryRepository(db)

	domainService := domain.NewPaymentDomainService()

	deps.ProcessPaymentRequest = application.NewProcessPaymentRequest(
		deps.PaymentRepository, deps.CreditEntryRepository, deps.CreditHistoryRepository, domainService)
	deps.CancelPayment = application.NewCancelPayment(
		deps.PaymentRepository, deps.CreditEntryRepository, deps.CreditHistoryRepository, domainService)
	deps.GetPayment = application.NewGetPayment(deps.PaymentRepository)

	deps.PaymentHandlers = handlers.NewPaymentHandlers(deps.GetPayment)

	eventHandlers := handlers.NewPaymentEventHandlers(deps.ProcessPaymentRequest, deps.CancelPayment)
	inbox := sharedinfra.NewPostgresInbox(db)
	// The credit ledger has a single-writer invariant per customer. Order
	// events of one saga share the order's correlation id, which is not the
	// customer, so key on the payload's customer through the aggregate key
	// extractor below.
	deps.PaymentEventHandler = saga.NewKeyedDispatcher(
		saga.Idempotent(eventHandlers, inbox),
		customerKey,
	)

	return deps, nil
}

// customerKey serializes payment handling per customer so concurrent sagas
// cannot race on one ledger. Falls back to the correlation id when the
// payload carries no customer.
func customerKey(event *events.Event) string {
	var payload struct {
		CustomerID string `json:"customer_id"`
	}
	if err := event.UnmarshalPayload(&payload); err == nil && payload.CustomerID != "" {
		return payload.CustomerID
	}
	return event.CorrelationID.String()
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
