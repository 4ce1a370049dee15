// Package storage defines the persistence contract used by the ingestion and
// analytics services and the SQL shared by the relational backends.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/septivank/charging-telemetry-service/internal/telemetry"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by GetStatus when the subject has never been ingested
var ErrNotFound = errors.New("status not found")

// ErrUnknownField is returned when a field is not a reading of the queried kind
var ErrUnknownField = errors.New("unknown field for kind")

// RangeQuery selects history rows of one kind with Start <= timestamp <= End.
// An empty SubjectID aggregates over every subject of the kind.
type RangeQuery struct {
	Kind      telemetry.Kind
	Field     telemetry.Field
	SubjectID string
	Start     time.Time
	End       time.Time
}

// Storage is the read/write access to the history and status tables.
//
// AppendHistory never leaves a partial row behind. UpsertStatus replaces every
// field of the subject's row in one atomic statement. SumInRange and
// AvgInRange return zero when no rows match.
type Storage interface {
	AppendHistory(ctx context.Context, record telemetry.HistoryRecord) error
	UpsertStatus(ctx context.Context, record telemetry.StatusRecord) error
	SumInRange(ctx context.Context, q RangeQuery) (decimal.Decimal, error)
	AvgInRange(ctx context.Context, q RangeQuery) (decimal.Decimal, error)
	GetStatus(ctx context.Context, kind telemetry.Kind, subjectID string) (*telemetry.StatusRecord, error)
	Ping(ctx context.Context) error
}
