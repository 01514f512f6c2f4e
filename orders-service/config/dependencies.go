package config

import (
	"context"
	"fmt"
	"log"

	"github.com/flashmart/order-system/orders-service/application"
	"github.com/flashmart/order-system/orders-service/handlers"
	"github.com/flashmart/order-system/orders-service/infrastructure"
	"github.com/flashmart/order-system/shared/events"
	sharedinfra "github.com/flashmart/order-system/shared/infrastructure"
	"github.com/flashmart/order-system/shared/telemetry"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Dependencies wires every component of the orders service.
type Dependencies struct {
	DB    *sqlx.DB
	Redis *redis.Client

	Store *infrastructure.PostgresStore
	Cache *infrastructure.RedisOrderCache

	CreateOrder   *application.CreateOrder
	CompleteOrder *application.CompleteOrder
	DeleteOrder   *application.DeleteOrder
	OutboxRelay   *application.OutboxRelay

	OrderHandlers *handlers.OrderHandlers
	SagaRegistry  *events.Registry

	EventPublisher  *sharedinfra.KafkaEventPublisher
	EventSubscriber *sharedinfra.KafkaEventSubscriber

	TelemetryShutdown func()
}

// BuildDependencies constructs the full dependency graph.
func BuildDependencies(ctx context.Context, cfg *Config) (*Dependencies, error) {
	deps := &Dependencies{}

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:    cfg.ServiceName,
			ServiceVersion: "1.0.0",
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		})
		if err != nil {
			// Run without telemetry rather than refusing to start.
			log.Printf("failed to initialize telemetry: %v", err)
		} else {
			deps.TelemetryShutdown = shutdown
		}
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	deps.DB = db

	deps.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	deps.EventPublisher = sharedinfra.NewKafkaEventPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	deps.EventSubscriber = sharedinfra.NewKafkaEventSubscriber(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)

	deps.Store = infrastructure.NewPostgresStore(db)
	deps.Cache = infrastructure.NewRedisOrderCache(deps.Redis)

	paymentsClient := infrastructure.NewPaymentsClient(cfg.Gateway.BaseURL, cfg.PaymentTimeout())

	deps.CreateOrder = application.NewCreateOrder(deps.Store, deps.Cache, deps.EventPublisher)
	deps.CompleteOrder = application.NewCompleteOrder(deps.Store, deps.Cache)
	deps.DeleteOrder = application.NewDeleteOrder(deps.Store, deps.Cache)
	deps.OutboxRelay = application.NewOutboxRelay(
		deps.Store,
		paymentsClient,
		deps.CompleteOrder,
		deps.EventPublisher,
		application.OutboxRelayConfig{
			GatewayBaseURL: cfg.Gateway.BaseURL,
			Strict:         cfg.Payments.Strict,
		},
	)

	deps.OrderHandlers = handlers.NewOrderHandlers(deps.CreateOrder, deps.DeleteOrder)

	registry, err := handlers.NewSagaRegistry(deps.CompleteOrder, deps.EventPublisher, cfg.Gateway.BaseURL)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to build saga registry: %w", err)
	}
	deps.SagaRegistry = registry

	return deps, nil
}

// Close releases every held resource.
func (d *Dependencies) Close() error {
	var errs []error

	if d.EventSubscriber != nil {
		if err := d.EventSubscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event subscriber: %w", err))
		}
	}
	if d.EventPublisher != nil {
		if err := d.EventPublisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
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
