package mq

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/septivank/charging-telemetry-service/internal/service"
	"github.com/septivank/charging-telemetry-service/internal/telemetry"
)

type fakeIngestor struct {
	meters   []telemetry.MeterTelemetry
	vehicles []telemetry.VehicleTelemetry
	err      error
}

func (f *fakeIngestor) IngestMeterTelemetry(ctx context.Context, in telemetry.MeterTelemetry) error {
	f.meters = append(f.meters, in)
	return f.err
}

func (f *fakeIngestor) IngestVehicleTelemetry(ctx context.Context, in telemetry.VehicleTelemetry) error {
	f.vehicles = append(f.vehicles, in)
	return f.err
}

func TestTelemetryHandler_RoutesByKey(t *testing.T) {
	ingestor := &fakeIngestor{}
	h := NewTelemetryHandler(ingestor)

	meter := `{"meterId":"M1","kwhConsumedAc":12,"voltage":"230.5","timestamp":"2025-01-01T00:00:00Z"}`
	if err := h.Handle(context.Background(), RoutingKeyMeter, []byte(meter)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	vehicle := `{"vehicleId":"V1","soc":80,"kwhDeliveredDc":10,"batteryTemp":25,"timestamp":"2025-01-01T00:00:00Z"}`
	if err := h.Handle(context.Background(), RoutingKeyVehicle, []byte(vehicle)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(ingestor.meters) != 1 || ingestor.meters[0].MeterID != "M1" {
		t.Fatalf("Expected meter M1 to be ingested, got %+v", ingestor.meters)
	}
	if got := ingestor.meters[0].Voltage.String(); got != "230.5" {
		t.Errorf("Expected voltage 230.5, got %s", got)
	}
	if len(ingestor.vehicles) != 1 || ingestor.vehicles[0].VehicleID != "V1" {
		t.Fatalf("Expected vehicle V1 to be ingested, got %+v", ingestor.vehicles)
	}
}

func TestTelemetryHandler_Malformed(t *testing.T) {
	ingestor := &fakeIngestor{}
	h := NewTelemetryHandler(ingestor)

	tests := []struct {
		name       string
		routingKey string
		body       string
	}{
		{"unknown key", "telemetry.charger", `{}`},
		{"bad meter json", RoutingKeyMeter, `{"meterId":`},
		{"bad vehicle json", RoutingKeyVehicle, `[1,2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Handle(context.Background(), tt.routingKey, []byte(tt.body))
			if !errors.Is(err, ErrMalformedMessage) {
				t.Errorf("Expected ErrMalformedMessage, got %v", err)
			}
		})
	}

	if len(ingestor.meters)+len(ingestor.vehicles) != 0 {
		t.Error("Expected nothing to be ingested")
	}
}

func TestDispose(t *testing.T) {
	validationErr := &service.ValidationError{Kind: telemetry.KindVehicle}
	storageErr := &service.StorageError{Op: "append_history", Err: errors.New("connection refused")}
	timeoutErr := &service.TimeoutError{Op: "upsert_status", Err: context.DeadlineExceeded}
	canceledErr := &service.CanceledError{Op: "append_history", Err: context.Canceled}

	tests := []struct {
		name        string
		err         error
		redelivered bool
		want        Disposition
	}{
		{"success", nil, false, Ack},
		{"validation", validationErr, false, DeadLetter},
		{"malformed", fmt.Errorf("%w: bad", ErrMalformedMessage), false, DeadLetter},
		{"storage first delivery", storageErr, false, Requeue},
		{"storage redelivered", storageErr, true, DeadLetter},
		{"timeout first delivery", timeoutErr, false, Requeue},
		{"timeout redelivered", timeoutErr, true, DeadLetter},
		{"unknown error", errors.New("boom"), false, DeadLetter},
		{"canceled on shutdown", canceledErr, true, Requeue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Dispose(tt.err, tt.redelivered); got != tt.want {
				t.Errorf("Dispose() = %s, want %s", got, tt.want)
			}
		})
	}
}
