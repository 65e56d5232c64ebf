package cache

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func testRow(values ...float64) models.Row {
	return models.Row{Names: []string{"base_score", "has_public_exploit"}, Values: values}
}

type countingModel struct {
	calls atomic.Int32
	err   error
}

func (m *countingModel) Predict(_ context.Context, row models.Row) (float64, error) {
	m.calls.Add(1)
	if m.err != nil {
		return 0, m.err
	}
	return row.Values[0] / 10, nil
}

type accessRecorder struct {
	service.NoopMetrics
	hits, misses atomic.Int32
}

func (r *accessRecorder) RecordCacheAccess(_ string, hit bool) {
	if hit {
		r.hits.Add(1)
	} else {
		r.misses.Add(1)
	}
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (float64, bool, error) {
	return 0, false, errors.ErrUnavailable("redis")
}

func (brokenCache) Set(context.Context, string, float64, time.Duration) error {
	return errors.ErrUnavailable("redis")
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "k", 0.42, 0))
	v, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 0.42, v)

	require.NoError(t, c.Set(ctx, "short", 0.1, time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, hit, _ = c.Get(ctx, "short")
	assert.False(t, hit)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	c := NewRedisCache(client)

	_, hit, err := c.Get(ctx, "pnet:prediction:a")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "pnet:prediction:a", 0.984, time.Minute))
	v, hit, err := c.Get(ctx, "pnet:prediction:a")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 0.984, v)

	mr.FastForward(2 * time.Minute)
	_, hit, err = c.Get(ctx, "pnet:prediction:a")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, mr.Set("pnet:prediction:bad", "not-a-number"))
	_, _, err = c.Get(ctx, "pnet:prediction:bad")
	assert.True(t, errors.IsCode(err, constants.ErrCodeInternal))

	mr.Close()
	_, _, err = c.Get(ctx, "pnet:prediction:a")
	assert.True(t, errors.IsCode(err, constants.ErrCodeUnavailable))
}

func TestCachedModel_HitAndMiss(t *testing.T) {
	testCases := []struct {
		name  string
		cache func(t *testing.T) (service.PredictionCache, string)
	}{
		{"memory", func(t *testing.T) (service.PredictionCache, string) {
			return NewMemoryCache(time.Minute, time.Minute), BackendMemory
		}},
		{"redis", func(t *testing.T) (service.PredictionCache, string) {
			_, client := newRedis(t)
			return NewRedisCache(client), BackendRedis
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store, backend := tc.cache(t)
			next := &countingModel{}
			metrics := &accessRecorder{}
			m := NewCachedModel(next, store, backend, "heuristic", time.Minute, metrics, logger.NewNoopLogger())

			for i := 0; i < 3; i++ {
				v, err := m.Predict(ctx, testRow(9.8, 1))
				require.NoError(t, err)
				assert.InDelta(t, 0.98, v, 1e-12)
			}
			_, err := m.Predict(ctx, testRow(7.5, 1))
			require.NoError(t, err)

			assert.Equal(t, int32(2), next.calls.Load())
			assert.Equal(t, int32(2), metrics.hits.Load())
			assert.Equal(t, int32(2), metrics.misses.Load())
		})
	}
}

func TestCachedModel_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	next := &countingModel{err: errors.ErrPredictionFailure("timeout")}
	m := NewCachedModel(next, NewMemoryCache(time.Minute, time.Minute), BackendMemory, "m", time.Minute, nil, logger.NewNoopLogger())

	for i := 0; i < 2; i++ {
		_, err := m.Predict(ctx, testRow(5, 0))
		assert.True(t, errors.IsCode(err, constants.ErrCodePredictionFailure))
	}
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedModel_BrokenCacheFallsThrough(t *testing.T) {
	next := &countingModel{}
	m := NewCachedModel(next, brokenCache{}, BackendRedis, "m", time.Minute, nil, logger.NewNoopLogger())

	v, err := m.Predict(context.Background(), testRow(6, 0))
	require.NoError(t, err)
	assert.InDelta(t, 0.6, v, 1e-12)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("heuristic", testRow(9.8, 1))
	assert.True(t, strings.HasPrefix(a, constants.CacheKeyPrefixPrediction))
	assert.Equal(t, a, Fingerprint("heuristic", testRow(9.8, 1)))
	assert.NotEqual(t, a, Fingerprint("heuristic", testRow(9.8, 0)))
	assert.NotEqual(t, a, Fingerprint("openai", testRow(9.8, 1)))

	renamed := models.Row{Names: []string{"base_score", "vendor_cisco"}, Values: []float64{9.8, 1}}
	assert.NotEqual(t, a, Fingerprint("heuristic", renamed))
}

func TestNewPredictionCache(t *testing.T) {
	log := logger.NewNoopLogger()

	c, backend, err := NewPredictionCache(&config.CacheConfig{Backend: "memory", TTL: time.Minute}, nil, log)
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)
	assert.Equal(t, BackendMemory, backend)

	_, client := newRedis(t)
	c, backend, err = NewPredictionCache(&config.CacheConfig{Backend: "redis"}, client, log)
	require.NoError(t, err)
	assert.IsType(t, &RedisCache{}, c)
	assert.Equal(t, BackendRedis, backend)

	_, _, err = NewPredictionCache(&config.CacheConfig{Backend: "redis"}, nil, log)
	assert.True(t, errors.IsCode(err, constants.ErrCodeConfiguration))

	_, _, err = NewPredictionCache(&config.CacheConfig{Backend: "memcached"}, nil, log)
	assert.True(t, errors.IsCode(err, constants.ErrCodeConfiguration))
}
