package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pulseboard/pulseboard-backend/internal/metrics"
	"github.com/pulseboard/pulseboard-backend/pkg/kv"
	memkv "github.com/pulseboard/pulseboard-backend/pkg/kv/memory"
	_ "github.com/pulseboard/pulseboard-backend/pkg/kv/redis"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache key prefixes
const (
	KeyDashboard = "pb:dashboard"
	KeyAnalytics = "pb:analytics"
	KeyAggregate = "pb:aggregate"
)

// Cache stores serialized API responses keyed by the canonical filter key.
// A zero TTL disables it: Get always misses and Set does nothing.
type Cache struct {
	kvStore kv.Store
	ttl     time.Duration

	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
}

// NewCache connects to redis at addr, failing over to an in-memory store when
// redis is unreachable. With ttl == 0 no store is opened at all.
func NewCache(addr string, ttl time.Duration, logger *zap.SugaredLogger, metrics *metrics.Metrics) (*Cache, error) {
	if ttl <= 0 {
		return &Cache{logger: logger, metrics: metrics}, nil
	}

	store, err := kv.NewStoreFromConfig(kv.Config{
		Backend:         kv.BackendRedis,
		RedisURL:        addr,
		FailoverEnabled: true,
		Logger: func(msg string, fields ...any) {
			if logger != nil {
				logger.Warnw(msg, fields...)
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache store: %w", err)
	}

	return NewCacheWithStore(store, ttl, logger, metrics), nil
}

// NewCacheWithStore wraps an existing store
func NewCacheWithStore(store kv.Store, ttl time.Duration, logger *zap.SugaredLogger, metrics *metrics.Metrics) *Cache {
	if ttl <= 0 {
		store = nil
	}
	return &Cache{kvStore: store, ttl: ttl, logger: logger, metrics: metrics}
}

// NewInMemoryCache is a convenience for tests and single-instance deployments
func NewInMemoryCache(ttl time.Duration, logger *zap.SugaredLogger, metrics *metrics.Metrics) *Cache {
	return NewCacheWithStore(memkv.New(30*time.Second), ttl, logger, metrics)
}

// Enabled reports whether responses are cached at all
func (c *Cache) Enabled() bool {
	return c != nil && c.kvStore != nil
}

// Key builds a cache key for a response kind and canonical filter key
func Key(prefix, filterKey string) string {
	sum := sha256.Sum256([]byte(filterKey))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// Get decodes the cached value for key into dest. Store failures are logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, kind, key string, dest any) error {
	if !c.Enabled() {
		return ErrCacheMiss
	}

	data, err := c.kvStore.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) && c.logger != nil {
			c.logger.Warnw("Cache get error", "key", key, "error", err)
		}
		c.metrics.RecordCacheMiss(ctx, kind)
		return ErrCacheMiss
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.metrics.RecordCacheMiss(ctx, kind)
		return fmt.Errorf("cache unmarshal error: %w", err)
	}
	c.metrics.RecordCacheHit(ctx, kind)
	return nil
}

func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.kvStore.Set(ctx, key, data, c.ttl); err != nil {
		if c.logger != nil {
			c.logger.Errorw("Cache set error", "key", key, "error", err)
		}
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	if _, err := c.kvStore.Del(ctx, keys...); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// Fetch returns the cached value for key or computes, stores and returns it.
// A failing Set does not fail the request.
func Fetch[T any](ctx context.Context, c *Cache, kind, key string, compute func(context.Context) (T, error)) (T, error) {
	var cached T
	if err := c.Get(ctx, kind, key, &cached); err == nil {
		return cached, nil
	}

	value, err := compute(ctx)
	if err != nil {
		return value, err
	}
	_ = c.Set(ctx, key, value)
	return value, nil
}

func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.kvStore.Ping(ctx)
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.kvStore.Close()
}
