package validator_test

import (
	"testing"
	"time"

	"github.com/septivank/charging-telemetry-service/internal/telemetry"
	"github.com/septivank/charging-telemetry-service/internal/validator"
	"github.com/shopspring/decimal"
)

var receivedAt = time.Date(2025, 12, 29, 10, 32, 0, 0, time.UTC)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validVehicle() telemetry.VehicleTelemetry {
	return telemetry.VehicleTelemetry{
		VehicleID:      "V1",
		Soc:            dec("80"),
		KwhDeliveredDc: dec("10"),
		BatteryTemp:    dec("25"),
		Timestamp:      "2025-12-29T10:30:00Z",
	}
}

func validMeter() telemetry.MeterTelemetry {
	return telemetry.MeterTelemetry{
		MeterID:       "M1",
		KwhConsumedAc: dec("12"),
		Voltage:       dec("230.5"),
		Timestamp:     "29/12/2025 10:30:00",
	}
}

func hasViolation(result validator.ValidationResult, field string) bool {
	for _, v := range result.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

func TestValidateVehicle_ValidData(t *testing.T) {
	v := validator.NewValidator(0)

	event, result := v.ValidateVehicle(validVehicle(), receivedAt)

	if !result.IsValid {
		t.Fatalf("Expected valid result, got violations: %v", result.Violations)
	}
	if event.Kind != telemetry.KindVehicle || event.SubjectID != "V1" {
		t.Errorf("Unexpected event identity %s/%s", event.Kind, event.SubjectID)
	}
	if !event.Readings[telemetry.FieldSoc].Equal(decimal.NewFromInt(80)) {
		t.Errorf("Expected soc 80, got %s", event.Readings[telemetry.FieldSoc])
	}
	expected := time.Date(2025, 12, 29, 10, 30, 0, 0, time.UTC)
	if !event.Timestamp.Equal(expected) {
		t.Errorf("Expected timestamp %v, got %v", expected, event.Timestamp)
	}
}

func TestValidateVehicle_SocOutOfRange(t *testing.T) {
	v := validator.NewValidator(0)

	for _, soc := range []string{"150", "-1", "100.01"} {
		in := validVehicle()
		in.Soc = dec(soc)

		_, result := v.ValidateVehicle(in, receivedAt)

		if result.IsValid {
			t.Errorf("Expected invalid result for soc=%s", soc)
		}
		if !hasViolation(result, "soc") {
			t.Errorf("Expected soc violation for soc=%s, got %v", soc, result.Violations)
		}
	}
}

func TestValidateVehicle_SocBoundariesAccepted(t *testing.T) {
	v := validator.NewValidator(0)

	for _, soc := range []string{"0", "100"} {
		in := validVehicle()
		in.Soc = dec(soc)

		if _, result := v.ValidateVehicle(in, receivedAt); !result.IsValid {
			t.Errorf("Expected soc=%s to be valid, got %v", soc, result.Violations)
		}
	}
}

func TestValidateVehicle_NegativeDeliveryRejected(t *testing.T) {
	v := validator.NewValidator(0)
	in := validVehicle()
	in.KwhDeliveredDc = dec("-0.5")

	_, result := v.ValidateVehicle(in, receivedAt)

	if !hasViolation(result, "kwhDeliveredDc") {
		t.Errorf("Expected kwhDeliveredDc violation, got %v", result.Violations)
	}
}

func TestValidateVehicle_NegativeTemperatureAccepted(t *testing.T) {
	v := validator.NewValidator(0)
	in := validVehicle()
	in.BatteryTemp = dec("-12.5")

	if _, result := v.ValidateVehicle(in, receivedAt); !result.IsValid {
		t.Errorf("Expected sub-zero battery temperature to be valid, got %v", result.Violations)
	}
}

func TestValidateVehicle_CollectsEveryViolation(t *testing.T) {
	v := validator.NewValidator(0)

	_, result := v.ValidateVehicle(telemetry.VehicleTelemetry{VehicleID: "  ", Timestamp: "not-a-date"}, receivedAt)

	for _, field := range []string{"vehicleId", "soc", "kwhDeliveredDc", "batteryTemp", "timestamp"} {
		if !hasViolation(result, field) {
			t.Errorf("Expected violation for %s, got %v", field, result.Violations)
		}
	}
}

func TestValidateVehicle_SubjectIDTooLong(t *testing.T) {
	v := validator.NewValidator(0)
	in := validVehicle()
	long := make([]byte, validator.MaxSubjectIDLength+1)
	for i := range long {
		long[i] = 'v'
	}
	in.VehicleID = string(long)

	if _, result := v.ValidateVehicle(in, receivedAt); !hasViolation(result, "vehicleId") {
		t.Errorf("Expected vehicleId violation, got %v", result.Violations)
	}
}

func TestValidateMeter_ValidDataRoundedToColumnScale(t *testing.T) {
	v := validator.NewValidator(0)
	in := validMeter()
	in.KwhConsumedAc = dec("12.34567")

	event, result := v.ValidateMeter(in, receivedAt)

	if !result.IsValid {
		t.Fatalf("Expected valid result, got violations: %v", result.Violations)
	}
	if got := event.Readings[telemetry.FieldKwhConsumedAc].String(); got != "12.346" {
		t.Errorf("Expected kwhConsumedAc rounded to 12.346, got %s", got)
	}
}

func TestValidateMeter_ValueExceedsPrecision(t *testing.T) {
	v := validator.NewValidator(0)
	in := validMeter()
	in.Voltage = dec("1000000")

	if _, result := v.ValidateMeter(in, receivedAt); !hasViolation(result, "voltage") {
		t.Errorf("Expected voltage violation, got %v", result.Violations)
	}
}

func TestValidateMeter_NegativeConsumption(t *testing.T) {
	v := validator.NewValidator(0)
	in := validMeter()
	in.KwhConsumedAc = dec("-10.5")

	_, result := v.ValidateMeter(in, receivedAt)

	if result.IsValid {
		t.Error("Expected invalid result for negative value")
	}
	if len(result.Violations) != 1 || result.Violations[0].Reason != "must be greater than or equal to 0" {
		t.Errorf("Unexpected violations %v", result.Violations)
	}
}

func TestValidateMeter_OutsideTolerance(t *testing.T) {
	v := validator.NewValidator(5 * time.Minute)
	in := validMeter()
	in.Timestamp = "29/12/2025 10:00:00"

	if _, result := v.ValidateMeter(in, receivedAt); !hasViolation(result, "timestamp") {
		t.Error("Expected invalid result for timestamp outside tolerance")
	}
}

func TestValidateMeter_ToleranceDisabledByDefault(t *testing.T) {
	v := validator.NewValidator(0)
	in := validMeter()
	in.Timestamp = "2020-01-01T00:00:00Z"

	if _, result := v.ValidateMeter(in, receivedAt); !result.IsValid {
		t.Errorf("Expected old timestamp to be accepted, got %v", result.Violations)
	}
}
