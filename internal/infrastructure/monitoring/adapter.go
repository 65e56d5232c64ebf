// Package monitoring provides the zap logger, Prometheus metrics and OpenTelemetry tracing.
package monitoring

import (
	"time"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/service"
)

// MetricsAdapter implements the domain's service.Metrics interface on top of Prometheus.
// MetricsAdapter 在 Prometheus 之上实现领域层的 service.Metrics 接口。
type MetricsAdapter struct {
	metrics *Metrics
}

// NewMetricsAdapter wraps a concrete Prometheus Metrics object.
// NewMetricsAdapter 包装具体的 Prometheus Metrics 对象。
func NewMetricsAdapter(metrics *Metrics) service.Metrics {
	return &MetricsAdapter{metrics: metrics}
}

// RecordPrediction counts a model call and observes its latency.
func (a *MetricsAdapter) RecordPrediction(model string, success bool, duration time.Duration) {
	a.metrics.Predictions.WithLabelValues(model, resultLabel(success)).Inc()
	a.metrics.PredictionLatency.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordExplainerFailure counts a failed explainer sample call.
func (a *MetricsAdapter) RecordExplainerFailure() {
	a.metrics.ExplainerFailures.Inc()
}

// RecordExplainRun records a completed explanation.
func (a *MetricsAdapter) RecordExplainRun(rows, features int, duration time.Duration) {
	a.metrics.ExplainRuns.Inc()
	a.metrics.ExplainDuration.Observe(duration.Seconds())
	a.metrics.ExplainedFeatures.Set(float64(features))
}

// RecordAssessment counts a rendered verdict.
func (a *MetricsAdapter) RecordAssessment(verdict models.AdequacyVerdict) {
	a.metrics.Assessments.WithLabelValues(string(verdict)).Inc()
}

// RecordCacheAccess counts a prediction cache hit or miss.
func (a *MetricsAdapter) RecordCacheAccess(cacheType string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	a.metrics.CacheAccess.WithLabelValues(cacheType, result).Inc()
}

//Personal.AI order the ending
