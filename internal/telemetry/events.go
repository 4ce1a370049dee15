package telemetry

import (
	"time"

	"github.com/shopspring/decimal"
)

// MeterTelemetry is an inbound reading from a charging meter. Numeric fields
// accept JSON numbers or numeric strings; nil means the reading was absent.
type MeterTelemetry struct {
	MeterID       string           `json:"meterId"`
	KwhConsumedAc *decimal.Decimal `json:"kwhConsumedAc"`
	Voltage       *decimal.Decimal `json:"voltage"`
	Timestamp     string           `json:"timestamp"`
}

// VehicleTelemetry is an inbound reading from a vehicle
type VehicleTelemetry struct {
	VehicleID      string           `json:"vehicleId"`
	Soc            *decimal.Decimal `json:"soc"`
	KwhDeliveredDc *decimal.Decimal `json:"kwhDeliveredDc"`
	BatteryTemp    *decimal.Decimal `json:"batteryTemp"`
	Timestamp      string           `json:"timestamp"`
}

// Event is a validated telemetry event ready to be persisted
type Event struct {
	Kind      Kind
	SubjectID string
	Readings  Readings
	Timestamp time.Time
}
