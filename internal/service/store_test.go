package service

import (
	"context"
	"sync"

	"github.com/septivank/charging-telemetry-service/internal/storage"
	"github.com/septivank/charging-telemetry-service/internal/telemetry"
	"github.com/shopspring/decimal"
)

// memoryStore is an in-memory storage.Storage with injectable failures
type memoryStore struct {
	mu      sync.Mutex
	history []telemetry.HistoryRecord
	status  map[string]telemetry.StatusRecord

	appendErr error
	upsertErr error
	queryErr  error
	block     bool
}

var _ storage.Storage = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{status: make(map[string]telemetry.StatusRecord)}
}

func statusKey(kind telemetry.Kind, subjectID string) string {
	return string(kind) + "/" + subjectID
}

func (m *memoryStore) wait(ctx context.Context) error {
	if !m.block {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *memoryStore) AppendHistory(ctx context.Context, record telemetry.HistoryRecord) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, record)
	return nil
}

func (m *memoryStore) UpsertStatus(ctx context.Context, record telemetry.StatusRecord) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[statusKey(record.Kind, record.SubjectID)] = record
	return nil
}

func (m *memoryStore) matching(q storage.RangeQuery) []decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []decimal.Decimal
	for _, h := range m.history {
		if h.Kind != q.Kind || (q.SubjectID != "" && h.SubjectID != q.SubjectID) {
			continue
		}
		if h.Timestamp.Before(q.Start) || h.Timestamp.After(q.End) {
			continue
		}
		out = append(out, h.Readings[q.Field])
	}
	return out
}

func (m *memoryStore) SumInRange(ctx context.Context, q storage.RangeQuery) (decimal.Decimal, error) {
	if err := m.wait(ctx); err != nil {
		return decimal.Zero, err
	}
	if m.queryErr != nil {
		return decimal.Zero, m.queryErr
	}
	sum := decimal.Zero
	for _, v := range m.matching(q) {
		sum = sum.Add(v)
	}
	return sum, nil
}

func (m *memoryStore) AvgInRange(ctx context.Context, q storage.RangeQuery) (decimal.Decimal, error) {
	if err := m.wait(ctx); err != nil {
		return decimal.Zero, err
	}
	if m.queryErr != nil {
		return decimal.Zero, m.queryErr
	}
	values := m.matching(q)
	if len(values) == 0 {
		return decimal.Zero, nil
	}
	return decimal.Avg(values[0], values[1:]...), nil
}

func (m *memoryStore) GetStatus(ctx context.Context, kind telemetry.Kind, subjectID string) (*telemetry.StatusRecord, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.status[statusKey(kind, subjectID)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	record.Readings = record.Readings.Clone()
	return &record, nil
}

func (m *memoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *memoryStore) historyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

func (m *memoryStore) statusCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.status)
}
