package storage

import (
	"fmt"
	"strings"

	"github.com/septivank/charging-telemetry-service/internal/telemetry"
	"github.com/shopspring/decimal"
)

type tableSet struct {
	history string
	status  string
	subject string
}

var tables = map[telemetry.Kind]tableSet{
	telemetry.KindVehicle: {history: "vehicle_telemetry_history", status: "vehicle_status", subject: "vehicle_id"},
	telemetry.KindMeter:   {history: "meter_telemetry_history", status: "meter_status", subject: "meter_id"},
}

var columns = map[telemetry.Field]string{
	telemetry.FieldSoc:            "soc",
	telemetry.FieldKwhDeliveredDc: "kwh_delivered_dc",
	telemetry.FieldBatteryTemp:    "battery_temp",
	telemetry.FieldKwhConsumedAc:  "kwh_consumed_ac",
	telemetry.FieldVoltage:        "voltage",
}

// Aggregate is a SQL aggregate function supported over history columns
type Aggregate string

const (
	AggregateSum Aggregate = "SUM"
	AggregateAvg Aggregate = "AVG"
)

func lookup(kind telemetry.Kind) (tableSet, error) {
	t, ok := tables[kind]
	if !ok {
		return tableSet{}, fmt.Errorf("unknown subject kind %q", kind)
	}
	return t, nil
}

// Parameters are bound as text and cast in SQL so pgx and duckdb infer the same parameter type.
func decimalCast(f telemetry.Field, placeholder string) string {
	p, s := f.Precision()
	return fmt.Sprintf("CAST(CAST(%s AS VARCHAR) AS DECIMAL(%d,%d))", placeholder, p, s)
}

// InsertHistorySQL builds the history insert for a kind. Arguments are produced by HistoryArgs.
func InsertHistorySQL(kind telemetry.Kind) (string, error) {
	t, err := lookup(kind)
	if err != nil {
		return "", err
	}

	cols := []string{"id", t.subject}
	vals := []string{"CAST(CAST($1 AS VARCHAR) AS UUID)", "$2"}
	n := 3
	for _, f := range kind.Fields() {
		cols = append(cols, columns[f])
		vals = append(vals, decimalCast(f, fmt.Sprintf("$%d", n)))
		n++
	}
	cols = append(cols, "ts", "ingested_at")
	vals = append(vals, fmt.Sprintf("$%d", n), fmt.Sprintf("$%d", n+1))

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.history, strings.Join(cols, ", "), strings.Join(vals, ", ")), nil
}

// HistoryArgs flattens a history record into InsertHistorySQL arguments
func HistoryArgs(r telemetry.HistoryRecord) []any {
	args := []any{r.ID.String(), r.SubjectID}
	for _, f := range r.Kind.Fields() {
		args = append(args, r.Readings[f].String())
	}
	return append(args, r.Timestamp.UTC(), r.IngestedAt.UTC())
}

// UpsertStatusSQL builds a single-statement insert-or-replace for a kind's status row
func UpsertStatusSQL(kind telemetry.Kind) (string, error) {
	t, err := lookup(kind)
	if err != nil {
		return "", err
	}

	cols := []string{t.subject}
	vals := []string{"$1"}
	n := 2
	for _, f := range kind.Fields() {
		cols = append(cols, columns[f])
		vals = append(vals, decimalCast(f, fmt.Sprintf("$%d", n)))
		n++
	}
	cols = append(cols, "ts", "updated_at")
	vals = append(vals, fmt.Sprintf("$%d", n), fmt.Sprintf("$%d", n+1))

	sets := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		t.status, strings.Join(cols, ", "), strings.Join(vals, ", "), t.subject, strings.Join(sets, ", ")), nil
}

// StatusArgs flattens a status record into UpsertStatusSQL arguments
func StatusArgs(r telemetry.StatusRecord) []any {
	args := []any{r.SubjectID}
	for _, f := range r.Kind.Fields() {
		args = append(args, r.Readings[f].String())
	}
	return append(args, r.Timestamp.UTC(), r.UpdatedAt.UTC())
}

// SelectStatusSQL builds the status lookup for a kind. Reading columns are
// returned as text so every driver scans them the same way.
func SelectStatusSQL(kind telemetry.Kind) (string, error) {
	t, err := lookup(kind)
	if err != nil {
		return "", err
	}

	cols := []string{t.subject}
	for _, f := range kind.Fields() {
		cols = append(cols, fmt.Sprintf("CAST(%s AS VARCHAR)", columns[f]))
	}
	cols = append(cols, "ts", "updated_at")

	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		strings.Join(cols, ", "), t.status, t.subject), nil
}

// AggregateSQL builds a range aggregation and its arguments. The result column is text, "0" when no rows match.
func AggregateSQL(fn Aggregate, q RangeQuery) (string, []any, error) {
	t, err := lookup(q.Kind)
	if err != nil {
		return "", nil, err
	}
	if !q.Kind.HasField(q.Field) {
		return "", nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, q.Kind, q.Field)
	}
	if fn != AggregateSum && fn != AggregateAvg {
		return "", nil, fmt.Errorf("unsupported aggregate %q", fn)
	}

	query := fmt.Sprintf("SELECT CAST(COALESCE(%s(%s), 0) AS VARCHAR) FROM %s WHERE ts >= $1 AND ts <= $2",
		fn, columns[q.Field], t.history)
	args := []any{q.Start.UTC(), q.End.UTC()}
	if q.SubjectID != "" {
		query += fmt.Sprintf(" AND %s = $3", t.subject)
		args = append(args, q.SubjectID)
	}
	return query, args, nil
}

// ParseDecimal converts an aggregate or reading column returned as text
func ParseDecimal(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse numeric column %q: %w", raw, err)
	}
	return d, nil
}

// StatusRow scans the columns produced by SelectStatusSQL
type StatusRow struct {
	Kind   telemetry.Kind
	values []string
	record telemetry.StatusRecord
}

// NewStatusRow prepares scan destinations for a status row of the given kind
func NewStatusRow(kind telemetry.Kind) *StatusRow {
	return &StatusRow{
		Kind:   kind,
		values: make([]string, len(kind.Fields())),
		record: telemetry.StatusRecord{Kind: kind},
	}
}

// Dest returns pointers in SelectStatusSQL column order
func (s *StatusRow) Dest() []any {
	dest := []any{&s.record.SubjectID}
	for i := range s.values {
		dest = append(dest, &s.values[i])
	}
	return append(dest, &s.record.Timestamp, &s.record.UpdatedAt)
}

// Record converts the scanned columns into a status record
func (s *StatusRow) Record() (*telemetry.StatusRecord, error) {
	readings := make(telemetry.Readings, len(s.values))
	for i, f := range s.Kind.Fields() {
		d, err := ParseDecimal(s.values[i])
		if err != nil {
			return nil, err
		}
		readings[f] = d
	}
	rec := s.record
	rec.Readings = readings
	rec.Timestamp = rec.Timestamp.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return &rec, nil
}
