package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/septivank/charging-telemetry-service/internal/telemetry"
	"go.uber.org/zap"
)

// StatusReader returns the hot status row of a subject
type StatusReader interface {
	CurrentStatus(ctx context.Context, kind telemetry.Kind, subjectID string) (*telemetry.StatusRecord, error)
}

type statusResponse struct {
	Kind      telemetry.Kind                  `json:"kind"`
	SubjectID string                          `json:"subjectId"`
	Readings  map[telemetry.Field]json.Number `json:"readings"`
	Timestamp string                          `json:"timestamp"`
	UpdatedAt string                          `json:"updatedAt"`
}

func newStatusResponse(r *telemetry.StatusRecord) statusResponse {
	readings := make(map[telemetry.Field]json.Number, len(r.Readings))
	for field, value := range r.Readings {
		_, scale := field.Precision()
		readings[field] = json.Number(value.StringFixed(scale))
	}
	return statusResponse{
		Kind:      r.Kind,
		SubjectID: r.SubjectID,
		Readings:  readings,
		Timestamp: r.Timestamp.UTC().Format(time.RFC3339Nano),
		UpdatedAt: r.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// RegisterStatusRoutes registers the current status endpoints.
//
// GET /status/vehicle/:id
// GET /status/meter/:id
func RegisterStatusRoutes(r gin.IRoutes, svc StatusReader, logger *zap.Logger) {
	for _, kind := range []telemetry.Kind{telemetry.KindVehicle, telemetry.KindMeter} {
		r.GET("/status/"+string(kind)+"/:id", func(c *gin.Context) {
			record, err := svc.CurrentStatus(c.Request.Context(), kind, c.Param("id"))
			if err != nil {
				writeError(c, loggerFrom(c, logger), err)
				return
			}

			c.JSON(http.StatusOK, newStatusResponse(record))
		})
	}
}
