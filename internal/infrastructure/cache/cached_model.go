package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/logger"
)

// CachedModel serves repeated rows from a PredictionCache. Cache faults are logged
// and the wrapped model is called instead; model errors are never cached.
type CachedModel struct {
	next      service.RiskModel
	cache     service.PredictionCache
	cacheType string
	namespace string
	ttl       time.Duration
	metrics   service.Metrics
	log       logger.Logger
}

// NewCachedModel wraps next. namespace separates models sharing one cache.
func NewCachedModel(next service.RiskModel, cache service.PredictionCache, cacheType, namespace string, ttl time.Duration, metrics service.Metrics, log logger.Logger) *CachedModel {
	if metrics == nil {
		metrics = service.NoopMetrics{}
	}
	return &CachedModel{
		next:      next,
		cache:     cache,
		cacheType: cacheType,
		namespace: namespace,
		ttl:       ttl,
		metrics:   metrics,
		log:       log.WithComponent("CachedModel"),
	}
}

// Predict implements service.RiskModel.
func (m *CachedModel) Predict(ctx context.Context, row models.Row) (float64, error) {
	key := Fingerprint(m.namespace, row)

	v, hit, err := m.cache.Get(ctx, key)
	if err != nil {
		m.log.Warn(ctx, "prediction cache lookup failed", logger.Fields{"cache": m.cacheType, "error": err.Error()})
	}
	m.metrics.RecordCacheAccess(m.cacheType, hit)
	if hit {
		return v, nil
	}

	v, err = m.next.Predict(ctx, row)
	if err != nil {
		return 0, err
	}
	if err := m.cache.Set(ctx, key, v, m.ttl); err != nil {
		m.log.Warn(ctx, "prediction cache store failed", logger.Fields{"cache": m.cacheType, "error": err.Error()})
	}
	return v, nil
}

// Fingerprint derives the cache key of a row from its names and the exact bits of its values.
func Fingerprint(namespace string, row models.Row) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})

	var buf [8]byte
	for i, name := range row.Names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(row.Values[i]))
		h.Write(buf[:])
	}
	return constants.CacheKeyPrefixPrediction + hex.EncodeToString(h.Sum(nil))
}

//Personal.AI order the ending
