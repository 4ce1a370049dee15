package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/septivank/charging-telemetry-service/internal/observability"
	"github.com/septivank/charging-telemetry-service/internal/storage"
	"github.com/septivank/charging-telemetry-service/internal/telemetry"
	"github.com/septivank/charging-telemetry-service/internal/validator"
	"go.uber.org/zap"
)

// ValidationError is returned when an event is rejected before any write
type ValidationError struct {
	Kind       telemetry.Kind
	Violations []validator.Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("invalid %s telemetry: %s", e.Kind, strings.Join(parts, "; "))
}

// NotFoundError is returned when a query references a subject that was never ingested
type NotFoundError struct {
	Kind      telemetry.Kind
	SubjectID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.SubjectID)
}

// StorageError wraps a failure of the backing store
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when a storage call exceeds its deadline
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("storage %s timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// CanceledError is returned when the caller gave up before a storage call
// finished. It is not a storage failure.
type CanceledError struct {
	Op  string
	Err error
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("storage %s canceled: %v", e.Op, e.Err)
}

func (e *CanceledError) Unwrap() error {
	return e.Err
}

// classify maps a raw storage error onto the service error taxonomy.
// storage.ErrNotFound is passed through for the caller to translate.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return err
	case errors.Is(err, context.Canceled):
		return &CanceledError{Op: op, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &TimeoutError{Op: op, Err: err}
	default:
		return &StorageError{Op: op, Err: err}
	}
}

func outcomeFor(err error) string {
	var (
		timeoutErr  *TimeoutError
		canceledErr *CanceledError
	)
	switch {
	case errors.As(err, &canceledErr):
		return observability.OutcomeCanceled
	case errors.As(err, &timeoutErr):
		return observability.OutcomeTimeout
	default:
		return observability.OutcomeStorageError
	}
}

// logFailure logs a failed storage step. Cancellations by the caller are
// not outages and are logged as warnings.
func logFailure(logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	var canceledErr *CanceledError
	if errors.As(err, &canceledErr) {
		logger.Warn(msg, fields...)
		return
	}
	logger.Error(msg, fields...)
}
