package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/septivank/charging-telemetry-service/internal/telemetry"
	"go.uber.org/zap"
)

// TelemetryIngestor accepts inbound telemetry
type TelemetryIngestor interface {
	IngestMeterTelemetry(ctx context.Context, in telemetry.MeterTelemetry) error
	IngestVehicleTelemetry(ctx context.Context, in telemetry.VehicleTelemetry) error
}

// RegisterIngestionRoutes registers the ingestion endpoints.
//
// POST /ingestion/meter
// POST /ingestion/vehicle
// - 202 once both history and status were written
// - 400 with details when the event is rejected, nothing is written
// - 503/504 when storage fails or times out
func RegisterIngestionRoutes(r gin.IRoutes, svc TelemetryIngestor, logger *zap.Logger) {
	r.POST("/ingestion/meter", func(c *gin.Context) {
		var req telemetry.MeterTelemetry
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		if err := svc.IngestMeterTelemetry(c.Request.Context(), req); err != nil {
			writeError(c, loggerFrom(c, logger), err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":  "accepted",
			"message": "Meter telemetry ingested successfully",
		})
	})

	r.POST("/ingestion/vehicle", func(c *gin.Context) {
		var req telemetry.VehicleTelemetry
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		if err := svc.IngestVehicleTelemetry(c.Request.Context(), req); err != nil {
			writeError(c, loggerFrom(c, logger), err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":  "accepted",
			"message": "Vehicle telemetry ingested successfully",
		})
	})
}
