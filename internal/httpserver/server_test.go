package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/septivank/charging-telemetry-service/internal/observability"
	"github.com/septivank/charging-telemetry-service/internal/service"
	"github.com/septivank/charging-telemetry-service/internal/telemetry"
	"go.uber.org/zap"
)

type nopDeps struct{}

func (nopDeps) IngestMeterTelemetry(ctx context.Context, in telemetry.MeterTelemetry) error {
	return nil
}

func (nopDeps) IngestVehicleTelemetry(ctx context.Context, in telemetry.VehicleTelemetry) error {
	return nil
}

func (nopDeps) GetVehiclePerformance(ctx context.Context, vehicleID string) (*service.PerformanceAnalytics, error) {
	return nil, &service.NotFoundError{Kind: telemetry.KindVehicle, SubjectID: vehicleID}
}

func (nopDeps) CurrentStatus(ctx context.Context, kind telemetry.Kind, subjectID string) (*telemetry.StatusRecord, error) {
	return nil, &service.NotFoundError{Kind: kind, SubjectID: subjectID}
}

func (nopDeps) Ping(ctx context.Context) error { return nil }

func TestNewRouter_ServesProbesAndMetrics(t *testing.T) {
	deps := nopDeps{}
	r := NewRouter(Deps{
		Ingestion: deps,
		Analytics: deps,
		Status:    deps,
		Storage:   deps,
		Metrics:   observability.NewMetrics(),
		Logger:    zap.NewNop(),
	})

	for _, tc := range []struct {
		path string
		want int
	}{
		{"/health", http.StatusOK},
		{"/ready", http.StatusOK},
		{"/analytics/performance/V1", http.StatusNotFound},
		{"/status/vehicle/V1", http.StatusNotFound},
		{"/metrics", http.StatusOK},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if w.Code != tc.want {
			t.Errorf("GET %s: expected %d, got %d", tc.path, tc.want, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), `route="/analytics/performance/:vehicleId"`) {
		t.Errorf("Expected request metrics labelled by route template")
	}
}
