package telemetry

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind identifies the type of subject that emitted a telemetry event
type Kind string

const (
	KindVehicle Kind = "vehicle"
	KindMeter   Kind = "meter"
)

// Field names a numeric reading carried by a telemetry event
type Field string

const (
	FieldSoc            Field = "soc"
	FieldKwhDeliveredDc Field = "kwhDeliveredDc"
	FieldBatteryTemp    Field = "batteryTemp"
	FieldKwhConsumedAc  Field = "kwhConsumedAc"
	FieldVoltage        Field = "voltage"
)

// Column precision of each reading (total digits, digits after the point)
var fieldPrecision = map[Field][2]int32{
	FieldSoc:            {5, 2},
	FieldKwhDeliveredDc: {10, 3},
	FieldBatteryTemp:    {5, 2},
	FieldKwhConsumedAc:  {10, 3},
	FieldVoltage:        {8, 2},
}

var kindFields = map[Kind][]Field{
	KindVehicle: {FieldSoc, FieldKwhDeliveredDc, FieldBatteryTemp},
	KindMeter:   {FieldKwhConsumedAc, FieldVoltage},
}

// Valid reports whether k is a known subject kind
func (k Kind) Valid() bool {
	_, ok := kindFields[k]
	return ok
}

// Fields returns the readings carried by events of this kind, in storage column order
func (k Kind) Fields() []Field {
	return kindFields[k]
}

// HasField reports whether f is a reading of this kind
func (k Kind) HasField(f Field) bool {
	for _, candidate := range kindFields[k] {
		if candidate == f {
			return true
		}
	}
	return false
}

// Precision returns the total digits and scale the field is stored with
func (f Field) Precision() (precision, scale int32) {
	p := fieldPrecision[f]
	return p[0], p[1]
}

// Readings holds the numeric values of one event keyed by field
type Readings map[Field]decimal.Decimal

// Clone returns an independent copy of the readings
func (r Readings) Clone() Readings {
	out := make(Readings, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// HistoryRecord is an append-only cold storage row, one per ingested event
type HistoryRecord struct {
	ID         uuid.UUID
	Kind       Kind
	SubjectID  string
	Readings   Readings
	Timestamp  time.Time
	IngestedAt time.Time
}

// StatusRecord is the hot storage row holding the latest event of a subject
type StatusRecord struct {
	Kind      Kind      `json:"kind"`
	SubjectID string    `json:"subject_id"`
	Readings  Readings  `json:"readings"`
	Timestamp time.Time `json:"timestamp"`
	UpdatedAt time.Time `json:"updated_at"`
}
