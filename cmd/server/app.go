package main

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/septivank/charging-telemetry-service/internal/cache"
	"github.com/septivank/charging-telemetry-service/internal/config"
	"github.com/septivank/charging-telemetry-service/internal/db"
	"github.com/septivank/charging-telemetry-service/internal/httpserver"
	"github.com/septivank/charging-telemetry-service/internal/logging"
	"github.com/septivank/charging-telemetry-service/internal/mq"
	"github.com/septivank/charging-telemetry-service/internal/observability"
	"github.com/septivank/charging-telemetry-service/internal/repository"
	"github.com/septivank/charging-telemetry-service/internal/service"
	"github.com/septivank/charging-telemetry-service/internal/storage"
	"github.com/septivank/charging-telemetry-service/internal/validator"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// appOptions assembles the application for the given configuration. Optional
// adapters are only wired when configured.
func appOptions(cfg *config.Config) fx.Option {
	options := []fx.Option{
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			observability.NewMetrics,
			ProvideValidator,
			ProvideIngestionService,
			ProvideAnalyticsService,
			ProvideStatusService,
			ProvideRouter,
			httpserver.NewServer,
		),
		storageModule(cfg),
		fx.Invoke(func(*http.Server) {}),
	}

	if cfg.Redis.Enabled() {
		options = append(options, fx.Decorate(DecorateStatusCache))
	}

	if cfg.RabbitMQ.Enabled() {
		options = append(options,
			fx.Provide(
				ProvideMQConnection,
				ProvidePublisher,
				func(p *mq.Publisher) service.Notifier { return p },
			),
			fx.Invoke(startConsumer),
		)
	}

	return fx.Options(options...)
}

func storageModule(cfg *config.Config) fx.Option {
	if cfg.Storage.Driver == config.DriverDuckDB {
		return fx.Provide(ProvideDuckDB, ProvideDuckDBStorage)
	}
	return fx.Provide(ProvideDBPool, ProvidePostgresStorage)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName, cfg.LogLevel)
}

// ProvideDBPool creates a new database pool instance
func ProvideDBPool(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(lc, logger, cfg.Database.URL, cfg.Database.AutoSchema)
}

// ProvidePostgresStorage exposes the Postgres repository as the storage backend
func ProvidePostgresStorage(pool *pgxpool.Pool) storage.Storage {
	return repository.NewPostgresRepository(pool)
}

// ProvideDuckDB opens the embedded DuckDB database
func ProvideDuckDB(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*sql.DB, error) {
	return db.NewDuckDB(lc, logger, cfg.Storage.DuckDBPath)
}

// ProvideDuckDBStorage exposes the DuckDB repository as the storage backend
func ProvideDuckDBStorage(conn *sql.DB) storage.Storage {
	return repository.NewDuckDBRepository(conn)
}

// DecorateStatusCache puts the Redis status cache in front of the storage backend
func DecorateStatusCache(
	lc fx.Lifecycle,
	store storage.Storage,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) (storage.Storage, error) {
	client, err := cache.NewRedisClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		logger.Error("redis connection failed", zap.Error(err), zap.String("addr", cfg.Redis.Addr))
		return nil, err
	}
	logger.Info("redis status cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.StatusTTL))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return cache.NewStatusCache(store, client, cfg.Redis.StatusTTL, metrics, logger), nil
}

// ProvideValidator creates a new validator instance
func ProvideValidator(cfg *config.Config) *validator.Validator {
	return validator.NewValidator(cfg.Validation.MaxClockSkew)
}

type ingestionParams struct {
	fx.In

	Store     storage.Storage
	Validator *validator.Validator
	Notifier  service.Notifier `optional:"true"`
	Metrics   *observability.Metrics
	Config    *config.Config
	Logger    *zap.Logger
}

// ProvideIngestionService creates a new ingestion service instance
func ProvideIngestionService(p ingestionParams) *service.IngestionService {
	return service.NewIngestionService(p.Store, p.Validator, p.Notifier, p.Metrics, p.Config, p.Logger)
}

// ProvideAnalyticsService creates a new analytics service instance
func ProvideAnalyticsService(
	store storage.Storage,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) *service.AnalyticsService {
	return service.NewAnalyticsService(store, metrics, cfg, logger)
}

// ProvideStatusService creates a new status service instance
func ProvideStatusService(store storage.Storage, metrics *observability.Metrics, cfg *config.Config) *service.StatusService {
	return service.NewStatusService(store, metrics, cfg)
}

// ProvideRouter builds the HTTP router
func ProvideRouter(
	ingestion *service.IngestionService,
	analytics *service.AnalyticsService,
	status *service.StatusService,
	store storage.Storage,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *gin.Engine {
	return httpserver.NewRouter(httpserver.Deps{
		Ingestion: ingestion,
		Analytics: analytics,
		Status:    status,
		Storage:   store,
		Metrics:   metrics,
		Logger:    logger,
	})
}

// ProvideMQConnection creates a new RabbitMQ connection instance
func ProvideMQConnection(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*mq.Connection, error) {
	return mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
}

// ProvidePublisher creates the ingested event publisher
func ProvidePublisher(lc fx.Lifecycle, conn *mq.Connection, cfg *config.Config, logger *zap.Logger) (*mq.Publisher, error) {
	publisher, err := mq.NewPublisher(conn, cfg.RabbitMQ.WorkerExchange, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})
	return publisher, nil
}
