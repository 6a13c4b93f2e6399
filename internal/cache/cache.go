// Package cache stores the latest performance snapshot in Redis so repeated
// refreshes within the TTL skip the source fetches.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// DefaultKeyPrefix namespaces every key written by the cache.
const DefaultKeyPrefix = "trade-journal"

// SnapshotCache wraps a Redis client holding the latest snapshot record.
type SnapshotCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// Options configures a SnapshotCache.
type Options struct {
	Addr      string
	Password  string
	DB        int
	TTL       time.Duration
	KeyPrefix string
	Logger    *zap.Logger
}

// New creates a snapshot cache. The connection is established lazily;
// call HealthCheck to verify it.
func New(opts Options) *SnapshotCache {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	return &SnapshotCache{
		client:    client,
		keyPrefix: prefix,
		ttl:       opts.TTL,
		logger:    logger,
	}
}

// cachedRecord is the JSON form of a cached snapshot record.
type cachedRecord struct {
	SnapshotID       string                      `json:"snapshot_id"`
	ComputedAt       time.Time                   `json:"computed_at"`
	TradeCount       int                         `json:"trade_count"`
	PartialExitCount int                         `json:"partial_exit_count"`
	Snapshot         *domain.PerformanceSnapshot `json:"snapshot"`
}

// HealthCheck verifies Redis connectivity.
func (c *SnapshotCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close shuts down the Redis client.
func (c *SnapshotCache) Close() error {
	return c.client.Close()
}

// Get returns the cached record. Returns storage.ErrNotFound on a miss.
func (c *SnapshotCache) Get(ctx context.Context) (*domain.SnapshotRecord, error) {
	data, err := c.client.Get(ctx, c.latestKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get cached snapshot: %w", err)
	}

	var cr cachedRecord
	if err := json.Unmarshal(data, &cr); err != nil || cr.Snapshot == nil {
		// A corrupt entry is a miss; the next Set overwrites it
		c.logger.Warn("discarding unreadable cached snapshot", zap.Error(err))
		return nil, storage.ErrNotFound
	}

	return &domain.SnapshotRecord{
		SnapshotID:       cr.SnapshotID,
		ComputedAt:       cr.ComputedAt,
		TradeCount:       cr.TradeCount,
		PartialExitCount: cr.PartialExitCount,
		Snapshot:         cr.Snapshot,
	}, nil
}

// Set stores r as the latest record with the configured TTL.
func (c *SnapshotCache) Set(ctx context.Context, r *domain.SnapshotRecord) error {
	if r == nil || r.Snapshot == nil {
		return storage.ErrInvalidInput
	}

	data, err := json.Marshal(cachedRecord{
		SnapshotID:       r.SnapshotID,
		ComputedAt:       r.ComputedAt,
		TradeCount:       r.TradeCount,
		PartialExitCount: r.PartialExitCount,
		Snapshot:         r.Snapshot,
	})
	if err != nil {
		return fmt.Errorf("marshalling snapshot: %w", err)
	}

	if err := c.client.Set(ctx, c.latestKey(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached snapshot: %w", err)
	}

	c.logger.Debug("cached snapshot",
		zap.String("snapshot_id", r.SnapshotID),
		zap.Duration("ttl", c.ttl),
	)
	return nil
}

// Invalidate removes the cached record.
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.latestKey()).Err(); err != nil {
		return fmt.Errorf("invalidate cached snapshot: %w", err)
	}
	return nil
}

func (c *SnapshotCache) latestKey() string {
	return c.keyPrefix + ":snapshot:latest"
}
