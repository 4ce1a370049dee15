package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/septivank/charging-telemetry-service/internal/config"
	"github.com/septivank/charging-telemetry-service/internal/handlers"
	"github.com/septivank/charging-telemetry-service/internal/observability"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Deps are the collaborators served over HTTP
type Deps struct {
	Ingestion handlers.TelemetryIngestor
	Analytics handlers.PerformanceReporter
	Status    handlers.StatusReader
	Storage   handlers.Pinger
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// NewRouter wires the public endpoints.
// Probes: /health, /ready, /metrics
// API: /ingestion/*, /analytics/*, /status/*
func NewRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handlers.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	handlers.RegisterHealthRoutes(r, deps.Storage, deps.Logger)
	handlers.RegisterIngestionRoutes(r, deps.Ingestion, deps.Logger)
	handlers.RegisterAnalyticsRoutes(r, deps.Analytics, deps.Logger)
	handlers.RegisterStatusRoutes(r, deps.Status, deps.Logger)

	return r
}

// NewServer binds the router to HTTP_PORT for the lifetime of the app
func NewServer(lc fx.Lifecycle, cfg *config.Config, router *gin.Engine, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("[HTTP] failed to listen on %s: %w", srv.Addr, err)
			}
			logger.Info("http server listening", zap.String("addr", srv.Addr))

			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server stopped unexpectedly", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down http server")
			return srv.Shutdown(ctx)
		},
	})

	return srv
}
