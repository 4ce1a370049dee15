package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/septivank/charging-telemetry-service/internal/config"
	"github.com/septivank/charging-telemetry-service/internal/observability"
	"github.com/septivank/charging-telemetry-service/internal/storage"
	"github.com/septivank/charging-telemetry-service/internal/telemetry"
	"github.com/septivank/charging-telemetry-service/internal/validator"
	"go.uber.org/zap"
)

// Notifier is told about every event after both writes succeeded
type Notifier interface {
	NotifyIngested(ctx context.Context, event telemetry.Event, historyID uuid.UUID, ingestedAt time.Time) error
}

// IngestionService validates telemetry and dual-writes it to history (cold)
// and status (hot) storage
type IngestionService struct {
	store     storage.Storage
	validator *validator.Validator
	notifier  Notifier
	metrics   *observability.Metrics
	logger    *zap.Logger
	caller    storageCaller
	now       func() time.Time
}

// NewIngestionService creates a new ingestion service. notifier and metrics may be nil.
func NewIngestionService(
	store storage.Storage,
	validator *validator.Validator,
	notifier Notifier,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) *IngestionService {
	return &IngestionService{
		store:     store,
		validator: validator,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
		caller:    newStorageCaller(cfg.Storage.Timeout, metrics),
		now:       time.Now,
	}
}

// IngestMeterTelemetry validates and persists one meter reading
func (s *IngestionService) IngestMeterTelemetry(ctx context.Context, in telemetry.MeterTelemetry) error {
	receivedAt := s.now().UTC()
	event, result := s.validator.ValidateMeter(in, receivedAt)
	if !result.IsValid {
		return s.reject(telemetry.KindMeter, in.MeterID, result)
	}
	return s.ingest(ctx, event, receivedAt)
}

// IngestVehicleTelemetry validates and persists one vehicle reading
func (s *IngestionService) IngestVehicleTelemetry(ctx context.Context, in telemetry.VehicleTelemetry) error {
	receivedAt := s.now().UTC()
	event, result := s.validator.ValidateVehicle(in, receivedAt)
	if !result.IsValid {
		return s.reject(telemetry.KindVehicle, in.VehicleID, result)
	}
	return s.ingest(ctx, event, receivedAt)
}

func (s *IngestionService) reject(kind telemetry.Kind, subjectID string, result validator.ValidationResult) error {
	s.logger.Info("telemetry rejected",
		zap.String("kind", string(kind)),
		zap.String("subject_id", subjectID),
		zap.Int("violations", len(result.Violations)),
	)
	s.metrics.IngestOutcome(string(kind), observability.OutcomeInvalid)
	return &ValidationError{Kind: kind, Violations: result.Violations}
}

// ingest appends history and only then upserts status. The two writes are not
// transactional: if the upsert fails the history row stays and the error is
// returned.
func (s *IngestionService) ingest(ctx context.Context, event telemetry.Event, receivedAt time.Time) error {
	logger := s.logger.With(
		zap.String("kind", string(event.Kind)),
		zap.String("subject_id", event.SubjectID),
	)

	history := telemetry.HistoryRecord{
		ID:         uuid.New(),
		Kind:       event.Kind,
		SubjectID:  event.SubjectID,
		Readings:   event.Readings.Clone(),
		Timestamp:  event.Timestamp,
		IngestedAt: receivedAt,
	}
	err := s.caller.call(ctx, "append_history", func(ctx context.Context) error {
		return s.store.AppendHistory(ctx, history)
	})
	if err != nil {
		logFailure(logger, "failed to append history", err)
		s.metrics.IngestOutcome(string(event.Kind), outcomeFor(err))
		return err
	}

	status := telemetry.StatusRecord{
		Kind:      event.Kind,
		SubjectID: event.SubjectID,
		Readings:  event.Readings.Clone(),
		Timestamp: event.Timestamp,
		UpdatedAt: s.now().UTC(),
	}
	err = s.caller.call(ctx, "upsert_status", func(ctx context.Context) error {
		return s.store.UpsertStatus(ctx, status)
	})
	if err != nil {
		logFailure(logger, "failed to upsert status, history already appended", err,
			zap.String("history_id", history.ID.String()),
		)
		s.metrics.IngestOutcome(string(event.Kind), outcomeFor(err))
		return err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyIngested(ctx, event, history.ID, receivedAt); err != nil {
			// the event is durable, a lost notification is not an ingest failure
			logger.Warn("failed to publish ingested event", zap.Error(err))
		}
	}

	s.metrics.IngestOutcome(string(event.Kind), observability.OutcomeAccepted)
	logger.Debug("telemetry ingested",
		zap.String("history_id", history.ID.String()),
		zap.Time("timestamp", event.Timestamp),
	)
	return nil
}
