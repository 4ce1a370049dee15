package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/septivank/charging-telemetry-service/internal/service"
	"go.uber.org/zap"
)

// PerformanceReporter computes vehicle performance over the analytics window
type PerformanceReporter interface {
	GetVehiclePerformance(ctx context.Context, vehicleID string) (*service.PerformanceAnalytics, error)
}

type periodResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// PerformanceResponse is the JSON body of a performance report
type PerformanceResponse struct {
	VehicleID           string         `json:"vehicleId"`
	Period              periodResponse `json:"period"`
	TotalKwhConsumedAc  json.Number    `json:"totalKwhConsumedAc"`
	TotalKwhDeliveredDc json.Number    `json:"totalKwhDeliveredDc"`
	EfficiencyRatio     json.Number    `json:"efficiencyRatio"`
	AverageBatteryTemp  json.Number    `json:"averageBatteryTemp"`
}

// NewPerformanceResponse renders a report. Ratio and temperature keep two decimals.
func NewPerformanceResponse(p *service.PerformanceAnalytics) PerformanceResponse {
	return PerformanceResponse{
		VehicleID: p.VehicleID,
		Period: periodResponse{
			Start: p.Period.Start.UTC().Format(time.RFC3339),
			End:   p.Period.End.UTC().Format(time.RFC3339),
		},
		TotalKwhConsumedAc:  json.Number(p.TotalKwhConsumedAc.String()),
		TotalKwhDeliveredDc: json.Number(p.TotalKwhDeliveredDc.String()),
		EfficiencyRatio:     json.Number(p.EfficiencyRatio.StringFixed(2)),
		AverageBatteryTemp:  json.Number(p.AverageBatteryTemp.StringFixed(2)),
	}
}

// RegisterAnalyticsRoutes registers the analytics endpoints.
//
// GET /analytics/performance/:vehicleId
// - 404 when the vehicle was never ingested
func RegisterAnalyticsRoutes(r gin.IRoutes, svc PerformanceReporter, logger *zap.Logger) {
	r.GET("/analytics/performance/:vehicleId", func(c *gin.Context) {
		report, err := svc.GetVehiclePerformance(c.Request.Context(), c.Param("vehicleId"))
		if err != nil {
			writeError(c, loggerFrom(c, logger), err)
			return
		}

		c.JSON(http.StatusOK, NewPerformanceResponse(report))
	})
}
