// Package cache memoizes risk model predictions in process (go-cache) or in Redis.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// Backend names used as the cache metric label.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// MemoryCache is an in-process PredictionCache.
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates a MemoryCache with the given default TTL and cleanup interval.
func NewMemoryCache(ttl, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(ttl, cleanupInterval)}
}

// Get implements service.PredictionCache.
func (c *MemoryCache) Get(_ context.Context, key string) (float64, bool, error) {
	v, found := c.store.Get(key)
	if !found {
		return 0, false, nil
	}
	score, ok := v.(float64)
	if !ok {
		c.store.Delete(key)
		return 0, false, nil
	}
	return score, true, nil
}

// Set implements service.PredictionCache. A zero ttl uses the cache default.
func (c *MemoryCache) Set(_ context.Context, key string, value float64, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(key, value, ttl)
	return nil
}

// ItemCount returns the number of cached entries, including expired ones not yet cleaned up.
func (c *MemoryCache) ItemCount() int {
	return c.store.ItemCount()
}

// RedisCache is a PredictionCache shared across replicas.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// Get implements service.PredictionCache.
func (c *RedisCache) Get(ctx context.Context, key string) (float64, bool, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.WrapError(err, constants.ErrCodeUnavailable, "redis prediction lookup failed")
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, errors.WrapError(err, constants.ErrCodeInternal, fmt.Sprintf("corrupt cached prediction at %s", key))
	}
	return score, true, nil
}

// Set implements service.PredictionCache.
func (c *RedisCache) Set(ctx context.Context, key string, value float64, ttl time.Duration) error {
	raw := strconv.FormatFloat(value, 'g', -1, 64)
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return errors.WrapError(err, constants.ErrCodeUnavailable, "redis prediction store failed")
	}
	return nil
}

// NewPredictionCache selects the configured backend. client is required for the redis backend.
func NewPredictionCache(cfg *config.CacheConfig, client redis.UniversalClient, log logger.Logger) (service.PredictionCache, string, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryCache(cfg.TTL, cfg.CleanupInterval), BackendMemory, nil
	case BackendRedis:
		if client == nil {
			return nil, "", errors.ErrConfiguration("redis cache backend requires a redis client")
		}
		log.Debug(context.Background(), "prediction cache backed by redis")
		return NewRedisCache(client), BackendRedis, nil
	default:
		return nil, "", errors.ErrConfiguration(fmt.Sprintf("unknown cache.backend %q", cfg.Backend))
	}
}

//Personal.AI order the ending
