package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/septivank/charging-telemetry-service/internal/config"
	"github.com/septivank/charging-telemetry-service/internal/observability"
	"github.com/septivank/charging-telemetry-service/internal/storage"
	"github.com/septivank/charging-telemetry-service/internal/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultAnalyticsWindow is the trailing window of the performance report
const DefaultAnalyticsWindow = 24 * time.Hour

var hundred = decimal.NewFromInt(100)

// Period is an inclusive time range
type Period struct {
	Start time.Time
	End   time.Time
}

// PerformanceAnalytics is the trailing-window rollup for one vehicle
type PerformanceAnalytics struct {
	VehicleID           string
	Period              Period
	TotalKwhConsumedAc  decimal.Decimal
	TotalKwhDeliveredDc decimal.Decimal
	EfficiencyRatio     decimal.Decimal
	AverageBatteryTemp  decimal.Decimal
}

// AnalyticsService computes rollups over history storage
type AnalyticsService struct {
	store  storage.Storage
	logger *zap.Logger
	caller storageCaller
	window time.Duration
	now    func() time.Time
}

// NewAnalyticsService creates a new analytics service. metrics may be nil.
func NewAnalyticsService(store storage.Storage, metrics *observability.Metrics, cfg *config.Config, logger *zap.Logger) *AnalyticsService {
	window := cfg.Analytics.Window
	if window <= 0 {
		window = DefaultAnalyticsWindow
	}
	return &AnalyticsService{
		store:  store,
		logger: logger,
		caller: newStorageCaller(cfg.Storage.Timeout, metrics),
		window: window,
		now:    time.Now,
	}
}

// GetVehiclePerformance reports DC delivered, AC consumed, efficiency and
// average battery temperature over the trailing window ending now.
//
// AC consumption is summed over every meter in the window: there is no
// vehicle to meter association, so the ratio is an approximation.
func (s *AnalyticsService) GetVehiclePerformance(ctx context.Context, vehicleID string) (*PerformanceAnalytics, error) {
	vehicleID = strings.TrimSpace(vehicleID)

	err := s.caller.call(ctx, "get_status", func(ctx context.Context) error {
		_, err := s.store.GetStatus(ctx, telemetry.KindVehicle, vehicleID)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &NotFoundError{Kind: telemetry.KindVehicle, SubjectID: vehicleID}
	}
	if err != nil {
		logFailure(s.logger, "failed to look up vehicle status", err, zap.String("vehicle_id", vehicleID))
		return nil, err
	}

	end := s.now().UTC()
	period := Period{Start: end.Add(-s.window), End: end}

	vehicleRange := func(field telemetry.Field) storage.RangeQuery {
		return storage.RangeQuery{
			Kind:      telemetry.KindVehicle,
			Field:     field,
			SubjectID: vehicleID,
			Start:     period.Start,
			End:       period.End,
		}
	}

	var totalDc, avgTemp, totalAc decimal.Decimal
	steps := []struct {
		op  string
		run func(ctx context.Context) error
	}{
		{"sum_delivered_dc", func(ctx context.Context) (err error) {
			totalDc, err = s.store.SumInRange(ctx, vehicleRange(telemetry.FieldKwhDeliveredDc))
			return err
		}},
		{"avg_battery_temp", func(ctx context.Context) (err error) {
			avgTemp, err = s.store.AvgInRange(ctx, vehicleRange(telemetry.FieldBatteryTemp))
			return err
		}},
		{"sum_consumed_ac", func(ctx context.Context) (err error) {
			totalAc, err = s.store.SumInRange(ctx, storage.RangeQuery{
				Kind:  telemetry.KindMeter,
				Field: telemetry.FieldKwhConsumedAc,
				Start: period.Start,
				End:   period.End,
			})
			return err
		}},
	}
	for _, step := range steps {
		if err := s.caller.call(ctx, step.op, step.run); err != nil {
			logFailure(s.logger, "failed to aggregate vehicle performance", err,
				zap.String("vehicle_id", vehicleID),
				zap.String("op", step.op),
			)
			return nil, err
		}
	}

	return &PerformanceAnalytics{
		VehicleID:           vehicleID,
		Period:              period,
		TotalKwhConsumedAc:  totalAc,
		TotalKwhDeliveredDc: totalDc,
		EfficiencyRatio:     EfficiencyRatio(totalDc, totalAc),
		AverageBatteryTemp:  avgTemp.Round(2),
	}, nil
}

// EfficiencyRatio returns dc/ac as a percentage rounded to 2 places, or 0 when ac is not positive
func EfficiencyRatio(dc, ac decimal.Decimal) decimal.Decimal {
	if !ac.IsPositive() {
		return decimal.Zero
	}
	return dc.Mul(hundred).DivRound(ac, 2)
}
