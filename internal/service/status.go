package service

import (
	"context"
	"errors"
	"strings"

	"github.com/septivank/charging-telemetry-service/internal/config"
	"github.com/septivank/charging-telemetry-service/internal/observability"
	"github.com/septivank/charging-telemetry-service/internal/storage"
	"github.com/septivank/charging-telemetry-service/internal/telemetry"
)

// StatusService serves the hot status row of a subject
type StatusService struct {
	store  storage.Storage
	caller storageCaller
}

// NewStatusService creates a new status service
func NewStatusService(store storage.Storage, metrics *observability.Metrics, cfg *config.Config) *StatusService {
	return &StatusService{
		store:  store,
		caller: newStorageCaller(cfg.Storage.Timeout, metrics),
	}
}

// CurrentStatus returns the latest processed event of a subject. The id is
// trimmed the same way ingestion trims it.
func (s *StatusService) CurrentStatus(ctx context.Context, kind telemetry.Kind, subjectID string) (*telemetry.StatusRecord, error) {
	subjectID = strings.TrimSpace(subjectID)

	var record *telemetry.StatusRecord
	err := s.caller.call(ctx, "get_status", func(ctx context.Context) (err error) {
		record, err = s.store.GetStatus(ctx, kind, subjectID)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &NotFoundError{Kind: kind, SubjectID: subjectID}
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}
