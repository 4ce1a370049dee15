package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/septivank/charging-telemetry-service/internal/storage"
	"github.com/septivank/charging-telemetry-service/internal/telemetry"
	"github.com/shopspring/decimal"
)

// PostgresRepository implements storage.Storage on a pgx connection pool
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ storage.Storage = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// AppendHistory inserts one immutable history row
func (r *PostgresRepository) AppendHistory(ctx context.Context, record telemetry.HistoryRecord) error {
	query, err := storage.InsertHistorySQL(record.Kind)
	if err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx, query, storage.HistoryArgs(record)...); err != nil {
		return fmt.Errorf("failed to insert %s history: %w", record.Kind, err)
	}
	return nil
}

// UpsertStatus inserts or fully replaces the subject's status row
func (r *PostgresRepository) UpsertStatus(ctx context.Context, record telemetry.StatusRecord) error {
	query, err := storage.UpsertStatusSQL(record.Kind)
	if err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx, query, storage.StatusArgs(record)...); err != nil {
		return fmt.Errorf("failed to upsert %s status: %w", record.Kind, err)
	}
	return nil
}

// SumInRange sums a reading over history rows in the inclusive window
func (r *PostgresRepository) SumInRange(ctx context.Context, q storage.RangeQuery) (decimal.Decimal, error) {
	return r.aggregate(ctx, storage.AggregateSum, q)
}

// AvgInRange averages a reading over history rows in the inclusive window
func (r *PostgresRepository) AvgInRange(ctx context.Context, q storage.RangeQuery) (decimal.Decimal, error) {
	return r.aggregate(ctx, storage.AggregateAvg, q)
}

func (r *PostgresRepository) aggregate(ctx context.Context, fn storage.Aggregate, q storage.RangeQuery) (decimal.Decimal, error) {
	query, args, err := storage.AggregateSQL(fn, q)
	if err != nil {
		return decimal.Zero, err
	}

	var raw string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		return decimal.Zero, fmt.Errorf("failed to aggregate %s %s: %w", q.Kind, q.Field, err)
	}
	return storage.ParseDecimal(raw)
}

// GetStatus returns the subject's status row or storage.ErrNotFound
func (r *PostgresRepository) GetStatus(ctx context.Context, kind telemetry.Kind, subjectID string) (*telemetry.StatusRecord, error) {
	query, err := storage.SelectStatusSQL(kind)
	if err != nil {
		return nil, err
	}

	row := storage.NewStatusRow(kind)
	err = r.pool.QueryRow(ctx, query, subjectID).Scan(row.Dest()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s status: %w", kind, err)
	}
	return row.Record()
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
