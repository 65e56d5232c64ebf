// Package redis provides Redis connection management and client initialization.
// A single address yields a standalone client; several addresses yield a cluster client.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// RedisConnectionManager is the lifecycle contract consumed by caches and health checks.
type RedisConnectionManager interface {
	GetClient() redis.UniversalClient
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) (map[string]interface{}, error)
	Close() error
}

var _ RedisConnectionManager = (*RedisConnection)(nil)

// RedisConnection manages Redis client lifecycle and health monitoring.
type RedisConnection struct {
	config *config.RedisConfig
	client redis.UniversalClient
	logger logger.Logger
}

// NewRedisConnection creates the client and verifies connectivity.
func NewRedisConnection(ctx context.Context, cfg *config.RedisConfig, log logger.Logger) (*RedisConnection, error) {
	if cfg == nil || len(cfg.Addresses) == 0 {
		return nil, errors.ErrConfiguration("redis.addresses must not be empty")
	}
	log = log.WithComponent("RedisConnection")

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.Addresses,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	rc := &RedisConnection{config: cfg, client: client, logger: log}
	if err := rc.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	log.Info(ctx, "Redis connection established", logger.Fields{
		"addresses": cfg.Addresses,
		"db":        cfg.DB,
		"pool_size": cfg.PoolSize,
	})
	return rc, nil
}

// NewRedisConnectionFromClient wraps an existing client.
func NewRedisConnectionFromClient(client redis.UniversalClient, log logger.Logger) *RedisConnection {
	return &RedisConnection{config: &config.RedisConfig{}, client: client, logger: log.WithComponent("RedisConnection")}
}

// GetClient returns the underlying universal client.
func (rc *RedisConnection) GetClient() redis.UniversalClient {
	return rc.client
}

// Ping verifies Redis connectivity.
func (rc *RedisConnection) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := rc.client.Ping(pingCtx).Err(); err != nil {
		rc.logger.Error(ctx, "Redis ping failed", err)
		return errors.ErrUnavailable("redis").WithCause(err)
	}
	rc.logger.Debug(ctx, "Redis ping successful", logger.Duration("latency_ms", time.Since(start)))
	return nil
}

// HealthCheck returns connection pool statistics.
func (rc *RedisConnection) HealthCheck(ctx context.Context) (map[string]interface{}, error) {
	if err := rc.Ping(ctx); err != nil {
		return nil, err
	}

	stats := rc.client.PoolStats()
	return map[string]interface{}{
		"status":      "healthy",
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}, nil
}

// Close closes the client.
func (rc *RedisConnection) Close() error {
	rc.logger.Info(context.Background(), "Closing Redis connection")
	return rc.client.Close()
}

//Personal.AI order the ending
