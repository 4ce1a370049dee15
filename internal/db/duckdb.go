package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const duckdbPingTimeout = 5 * time.Second

// OpenDuckDB opens an embedded DuckDB database and applies the telemetry schema.
// An empty path opens an in-memory database.
func OpenDuckDB(ctx context.Context, path string) (*sql.DB, error) {
	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("[DATABASE] open duckdb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, duckdbPingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("[DATABASE] ping duckdb: %w", err)
	}

	err = ApplySchema(ctx, duckdbSchema, func(ctx context.Context, stmt string) error {
		_, err := conn.ExecContext(ctx, stmt)
		return err
	})
	if err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

// NewDuckDB opens DuckDB and binds its lifetime to the application
func NewDuckDB(lc fx.Lifecycle, logger *zap.Logger, path string) (*sql.DB, error) {
	logger.Info("opening embedded duckdb storage", zap.String("path", path))

	conn, err := OpenDuckDB(context.Background(), path)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := conn.Close(); err != nil {
				logger.Error("failed to close duckdb", zap.Error(err))
				return err
			}
			logger.Info("duckdb closed")
			return nil
		},
	})

	return conn, nil
}
