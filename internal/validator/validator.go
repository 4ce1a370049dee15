package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/septivank/charging-telemetry-service/internal/telemetry"
	"github.com/septivank/charging-telemetry-service/tools/timeparser"
	"github.com/shopspring/decimal"
)

// MaxSubjectIDLength matches the width of the subject id columns
const MaxSubjectIDLength = 100

var hundred = decimal.NewFromInt(100)

// Violation describes one rejected attribute of an event
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Reason)
}

// ValidationResult holds validation outcome
type ValidationResult struct {
	IsValid    bool
	Violations []Violation
}

func (r *ValidationResult) reject(field, reason string) {
	r.IsValid = false
	r.Violations = append(r.Violations, Violation{Field: field, Reason: reason})
}

// Validator checks inbound telemetry before anything is written
type Validator struct {
	maxClockSkew time.Duration
}

// NewValidator creates a new validator. A zero maxClockSkew disables the
// event-time tolerance check.
func NewValidator(maxClockSkew time.Duration) *Validator {
	return &Validator{
		maxClockSkew: maxClockSkew,
	}
}

// ValidateMeter validates a meter reading and normalizes it into an event
func (v *Validator) ValidateMeter(in telemetry.MeterTelemetry, receivedAt time.Time) (telemetry.Event, ValidationResult) {
	result := ValidationResult{IsValid: true}
	event := telemetry.Event{Kind: telemetry.KindMeter, Readings: telemetry.Readings{}}

	event.SubjectID = v.subjectID("meterId", in.MeterID, &result)
	v.reading(event.Readings, telemetry.FieldKwhConsumedAc, in.KwhConsumedAc, nonNegative, &result)
	v.reading(event.Readings, telemetry.FieldVoltage, in.Voltage, nonNegative, &result)
	event.Timestamp = v.timestamp(in.Timestamp, receivedAt, &result)

	return event, result
}

// ValidateVehicle validates a vehicle reading and normalizes it into an event
func (v *Validator) ValidateVehicle(in telemetry.VehicleTelemetry, receivedAt time.Time) (telemetry.Event, ValidationResult) {
	result := ValidationResult{IsValid: true}
	event := telemetry.Event{Kind: telemetry.KindVehicle, Readings: telemetry.Readings{}}

	event.SubjectID = v.subjectID("vehicleId", in.VehicleID, &result)
	v.reading(event.Readings, telemetry.FieldSoc, in.Soc, percentage, &result)
	v.reading(event.Readings, telemetry.FieldKwhDeliveredDc, in.KwhDeliveredDc, nonNegative, &result)
	v.reading(event.Readings, telemetry.FieldBatteryTemp, in.BatteryTemp, nil, &result)
	event.Timestamp = v.timestamp(in.Timestamp, receivedAt, &result)

	return event, result
}

func (v *Validator) subjectID(field, value string, result *ValidationResult) string {
	id := strings.TrimSpace(value)
	switch {
	case id == "":
		result.reject(field, "must not be empty")
	case len(id) > MaxSubjectIDLength:
		result.reject(field, fmt.Sprintf("must be at most %d characters", MaxSubjectIDLength))
	}
	return id
}

type rangeCheck func(d decimal.Decimal) string

func nonNegative(d decimal.Decimal) string {
	if d.IsNegative() {
		return "must be greater than or equal to 0"
	}
	return ""
}

func percentage(d decimal.Decimal) string {
	if d.IsNegative() || d.GreaterThan(hundred) {
		return "must be between 0 and 100"
	}
	return ""
}

// reading checks presence, range and column precision, storing the value rounded to the column scale
func (v *Validator) reading(readings telemetry.Readings, field telemetry.Field, value *decimal.Decimal, check rangeCheck, result *ValidationResult) {
	name := string(field)
	if value == nil {
		result.reject(name, "is required")
		return
	}
	if check != nil {
		if reason := check(*value); reason != "" {
			result.reject(name, reason)
			return
		}
	}

	precision, scale := field.Precision()
	rounded := value.Round(scale)
	limit := decimal.New(1, precision-scale)
	if rounded.Abs().GreaterThanOrEqual(limit) {
		result.reject(name, fmt.Sprintf("must be less than %s in magnitude", limit.String()))
		return
	}
	readings[field] = rounded
}

func (v *Validator) timestamp(value string, receivedAt time.Time, result *ValidationResult) time.Time {
	ts, err := timeparser.ParseTimestamp(value)
	if err != nil {
		result.reject("timestamp", fmt.Sprintf("invalid timestamp format: %v", err))
		return time.Time{}
	}

	if v.maxClockSkew > 0 && !timeparser.IsWithinTolerance(ts, receivedAt, v.maxClockSkew) {
		result.reject("timestamp", fmt.Sprintf("timestamp outside tolerance window (±%s)", v.maxClockSkew))
	}
	return ts
}
