package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/septivank/charging-telemetry-service/internal/storage"
	"github.com/septivank/charging-telemetry-service/internal/telemetry"
	"github.com/shopspring/decimal"
)

// DuckDBRepository implements storage.Storage on an embedded DuckDB database
type DuckDBRepository struct {
	db *sql.DB

	// DuckDB aborts concurrent updates of one row with a conflict error
	// instead of waiting, so status upserts are serialized in process.
	upsertMu sync.Mutex
}

var _ storage.Storage = (*DuckDBRepository)(nil)

// NewDuckDBRepository creates a repository over an opened DuckDB handle
func NewDuckDBRepository(db *sql.DB) *DuckDBRepository {
	return &DuckDBRepository{db: db}
}

// AppendHistory inserts one immutable history row
func (r *DuckDBRepository) AppendHistory(ctx context.Context, record telemetry.HistoryRecord) error {
	query, err := storage.InsertHistorySQL(record.Kind)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, storage.HistoryArgs(record)...); err != nil {
		return fmt.Errorf("failed to insert %s history: %w", record.Kind, err)
	}
	return nil
}

// UpsertStatus inserts or fully replaces the subject's status row
func (r *DuckDBRepository) UpsertStatus(ctx context.Context, record telemetry.StatusRecord) error {
	query, err := storage.UpsertStatusSQL(record.Kind)
	if err != nil {
		return err
	}

	r.upsertMu.Lock()
	defer r.upsertMu.Unlock()

	if _, err := r.db.ExecContext(ctx, query, storage.StatusArgs(record)...); err != nil {
		return fmt.Errorf("failed to upsert %s status: %w", record.Kind, err)
	}
	return nil
}

// SumInRange sums a reading over history rows in the inclusive window
func (r *DuckDBRepository) SumInRange(ctx context.Context, q storage.RangeQuery) (decimal.Decimal, error) {
	return r.aggregate(ctx, storage.AggregateSum, q)
}

// AvgInRange averages a reading over history rows in the inclusive window
func (r *DuckDBRepository) AvgInRange(ctx context.Context, q storage.RangeQuery) (decimal.Decimal, error) {
	return r.aggregate(ctx, storage.AggregateAvg, q)
}

func (r *DuckDBRepository) aggregate(ctx context.Context, fn storage.Aggregate, q storage.RangeQuery) (decimal.Decimal, error) {
	query, args, err := storage.AggregateSQL(fn, q)
	if err != nil {
		return decimal.Zero, err
	}

	var raw string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		return decimal.Zero, fmt.Errorf("failed to aggregate %s %s: %w", q.Kind, q.Field, err)
	}
	return storage.ParseDecimal(raw)
}

// GetStatus returns the subject's status row or storage.ErrNotFound
func (r *DuckDBRepository) GetStatus(ctx context.Context, kind telemetry.Kind, subjectID string) (*telemetry.StatusRecord, error) {
	query, err := storage.SelectStatusSQL(kind)
	if err != nil {
		return nil, err
	}

	row := storage.NewStatusRow(kind)
	err = r.db.QueryRowContext(ctx, query, subjectID).Scan(row.Dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s status: %w", kind, err)
	}
	return row.Record()
}

// Ping checks database connectivity
func (r *DuckDBRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
