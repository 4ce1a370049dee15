// Package cache keeps hot status rows in Redis in front of a storage backend.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/septivank/charging-telemetry-service/internal/storage"
	"github.com/septivank/charging-telemetry-service/internal/telemetry"
	"go.uber.org/zap"
)

// Observer receives cache hit/miss notifications
type Observer interface {
	CacheHit()
	CacheMiss()
}

// StatusCache decorates a storage backend with a Redis cache for status
// lookups. Writes go to the backend first and are then written through to
// Redis; reads fill a missing key with SETNX so a fill never replaces a row
// written by a newer upsert. Redis failures are logged and never fail the call.
type StatusCache struct {
	storage.Storage

	client   *redis.Client
	ttl      time.Duration
	observer Observer
	logger   *zap.Logger
}

var _ storage.Storage = (*StatusCache)(nil)

// NewStatusCache wraps next with a Redis status cache. observer may be nil.
func NewStatusCache(next storage.Storage, client *redis.Client, ttl time.Duration, observer Observer, logger *zap.Logger) *StatusCache {
	return &StatusCache{
		Storage:  next,
		client:   client,
		ttl:      ttl,
		observer: observer,
		logger:   logger,
	}
}

// StatusKey returns the Redis key of a subject's status
func StatusKey(kind telemetry.Kind, subjectID string) string {
	return fmt.Sprintf("telemetry:status:%s:%s", kind, subjectID)
}

// UpsertStatus writes the backend and then replaces the cached row
func (c *StatusCache) UpsertStatus(ctx context.Context, record telemetry.StatusRecord) error {
	if err := c.Storage.UpsertStatus(ctx, record); err != nil {
		return err
	}

	key := StatusKey(record.Kind, record.SubjectID)
	data, err := json.Marshal(record)
	if err == nil {
		err = c.client.Set(ctx, key, data, c.ttl).Err()
	}
	if err != nil {
		c.logger.Warn("failed to refresh cached status", zap.Error(err), zap.String("key", key))
		// an old cached row must not outlive a failed refresh
		if delErr := c.client.Del(ctx, key).Err(); delErr != nil {
			c.logger.Warn("failed to invalidate cached status", zap.Error(delErr), zap.String("key", key))
		}
	}
	return nil
}

// GetStatus serves the status from Redis when present, otherwise from the backend
func (c *StatusCache) GetStatus(ctx context.Context, kind telemetry.Kind, subjectID string) (*telemetry.StatusRecord, error) {
	key := StatusKey(kind, subjectID)

	if record, ok := c.lookup(ctx, key); ok {
		c.hit()
		return record, nil
	}
	c.miss()

	record, err := c.Storage.GetStatus(ctx, kind, subjectID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(record)
	if err != nil {
		c.logger.Warn("failed to encode status for cache", zap.Error(err), zap.String("key", key))
		return record, nil
	}
	if err := c.client.SetNX(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache status", zap.Error(err), zap.String("key", key))
	}
	return record, nil
}

func (c *StatusCache) lookup(ctx context.Context, key string) (*telemetry.StatusRecord, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("status cache read failed", zap.Error(err), zap.String("key", key))
		}
		return nil, false
	}

	var record telemetry.StatusRecord
	if err := json.Unmarshal(data, &record); err != nil {
		c.logger.Warn("discarding undecodable cached status", zap.Error(err), zap.String("key", key))
		return nil, false
	}
	return &record, true
}

func (c *StatusCache) hit() {
	if c.observer != nil {
		c.observer.CacheHit()
	}
}

func (c *StatusCache) miss() {
	if c.observer != nil {
		c.observer.CacheMiss()
	}
}
