package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/septivank/charging-telemetry-service/internal/config"
	"github.com/septivank/charging-telemetry-service/internal/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	loadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	startupLogger, err := logging.NewLogger(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	startupLogger.Info("starting application...",
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.Bool("redis_cache", cfg.Redis.Enabled()),
		zap.Bool("rabbitmq", cfg.RabbitMQ.Enabled()),
		zap.String("timeout", "30s"),
	)

	app := fx.New(appOptions(cfg))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	if err := app.Start(startCtx); err != nil {
		if startCtx.Err() == context.DeadlineExceeded {
			startupLogger.Error("APPLICATION START TIMEOUT: Failed to start within 30 seconds. A dependency (database, Redis or RabbitMQ) is probably not reachable.")
		}
		startupLogger.Fatal("application failed to start", zap.Error(err))
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		startupLogger.Error("error stopping app", zap.Error(err))
	}
}

// loadEnvFile loads the first .env found near the working directory. Containers
// usually have none and rely on the process environment.
func loadEnvFile() {
	envPaths := []string{
		".env",
		"../../.env",
	}

	if workDir, err := os.Getwd(); err == nil {
		parentDir := filepath.Dir(workDir)
		grandParentDir := filepath.Dir(parentDir)

		envPaths = append(envPaths,
			filepath.Join(workDir, ".env"),
			filepath.Join(parentDir, ".env"),
			filepath.Join(grandParentDir, ".env"),
		)
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err == nil {
			absPath, _ := filepath.Abs(envPath)
			fmt.Printf("Loaded environment from: %s\n", absPath)
			return
		}
	}

	fmt.Println("No .env file found, using system environment variables (OK for pods/containers)")
}
