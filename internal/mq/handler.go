package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/septivank/charging-telemetry-service/internal/service"
	"github.com/septivank/charging-telemetry-service/internal/telemetry"
)

// Routing keys of inbound telemetry
const (
	RoutingKeyMeter   = "telemetry.meter"
	RoutingKeyVehicle = "telemetry.vehicle"
)

// Ingestor is the ingestion entry point driven by the consumer
type Ingestor interface {
	IngestMeterTelemetry(ctx context.Context, in telemetry.MeterTelemetry) error
	IngestVehicleTelemetry(ctx context.Context, in telemetry.VehicleTelemetry) error
}

// ErrMalformedMessage marks a delivery that can never be processed
var ErrMalformedMessage = errors.New("malformed telemetry message")

// TelemetryHandler decodes a delivery body by routing key and ingests it
type TelemetryHandler struct {
	ingestor Ingestor
}

// NewTelemetryHandler creates a new telemetry message handler
func NewTelemetryHandler(ingestor Ingestor) *TelemetryHandler {
	return &TelemetryHandler{ingestor: ingestor}
}

// Handle processes one delivery body
func (h *TelemetryHandler) Handle(ctx context.Context, routingKey string, body []byte) error {
	switch routingKey {
	case RoutingKeyMeter:
		var in telemetry.MeterTelemetry
		if err := json.Unmarshal(body, &in); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		return h.ingestor.IngestMeterTelemetry(ctx, in)
	case RoutingKeyVehicle:
		var in telemetry.VehicleTelemetry
		if err := json.Unmarshal(body, &in); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		return h.ingestor.IngestVehicleTelemetry(ctx, in)
	default:
		return fmt.Errorf("%w: unknown routing key %q", ErrMalformedMessage, routingKey)
	}
}

// Disposition is what the consumer does with a delivery after handling it
type Disposition int

const (
	Ack Disposition = iota
	Requeue
	DeadLetter
)

func (d Disposition) String() string {
	switch d {
	case Ack:
		return "ack"
	case Requeue:
		return "requeue"
	default:
		return "dead_letter"
	}
}

// Dispose decides the fate of a delivery. Rejected or undecodable messages go
// straight to the DLQ; storage failures are retried once. A delivery
// interrupted by shutdown goes back to the queue.
func Dispose(err error, redelivered bool) Disposition {
	if err == nil {
		return Ack
	}

	var canceledErr *service.CanceledError
	if errors.As(err, &canceledErr) {
		return Requeue
	}

	var validationErr *service.ValidationError
	if errors.Is(err, ErrMalformedMessage) || errors.As(err, &validationErr) {
		return DeadLetter
	}

	var storageErr *service.StorageError
	var timeoutErr *service.TimeoutError
	if (errors.As(err, &storageErr) || errors.As(err, &timeoutErr)) && !redelivered {
		return Requeue
	}
	return DeadLetter
}
