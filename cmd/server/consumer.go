package main

import (
	"context"

	"github.com/septivank/charging-telemetry-service/internal/config"
	"github.com/septivank/charging-telemetry-service/internal/mq"
	"github.com/septivank/charging-telemetry-service/internal/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func startConsumer(
	lc fx.Lifecycle,
	conn *mq.Connection,
	cfg *config.Config,
	logger *zap.Logger,
	ingestion *service.IngestionService,
) error {
	// cancelled on shutdown
	ctx, cancel := context.WithCancel(context.Background())

	handler := mq.NewTelemetryHandler(ingestion)
	consumer, err := mq.NewConsumer(mq.ConsumerConfig{
		Connection:    conn,
		Queue:         cfg.RabbitMQ.IngestQueue,
		DLQQueue:      cfg.RabbitMQ.DLQQueue,
		Exchange:      cfg.RabbitMQ.IngestExchange,
		RoutingKey:    cfg.RabbitMQ.IngestRoutingKey,
		PrefetchCount: cfg.RabbitMQ.PrefetchCount,
		Logger:        logger,
		Handler:       handler.Handle,
	})
	if err != nil {
		cancel()
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			logger.Info("starting telemetry consumer",
				zap.String("queue", cfg.RabbitMQ.IngestQueue),
				zap.Int("prefetch", cfg.RabbitMQ.PrefetchCount))
			return consumer.Start(ctx)
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			if err := consumer.Close(); err != nil {
				logger.Error("failed to close consumer", zap.Error(err))
				return err
			}
			logger.Info("telemetry consumer stopped")
			return nil
		},
	})

	return nil
}
