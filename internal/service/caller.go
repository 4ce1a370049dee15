package service

import (
	"context"
	"time"

	"github.com/septivank/charging-telemetry-service/internal/observability"
)

// DefaultStorageTimeout bounds a single storage call when none is configured
const DefaultStorageTimeout = 5 * time.Second

// storageCaller runs one storage call under its own deadline, records its
// latency and classifies its error. It never retries.
type storageCaller struct {
	timeout time.Duration
	metrics *observability.Metrics
}

func newStorageCaller(timeout time.Duration, metrics *observability.Metrics) storageCaller {
	if timeout <= 0 {
		timeout = DefaultStorageTimeout
	}
	return storageCaller{timeout: timeout, metrics: metrics}
}

func (c storageCaller) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	c.metrics.ObserveStorage(op, time.Since(start), err)

	return classify(op, err)
}
