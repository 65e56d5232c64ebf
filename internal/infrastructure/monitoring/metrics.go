package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	Predictions        *prometheus.CounterVec
	PredictionLatency  *prometheus.HistogramVec
	ExplainerFailures  prometheus.Counter
	ExplainRuns        prometheus.Counter
	ExplainDuration    prometheus.Histogram
	ExplainedFeatures  prometheus.Gauge
	Assessments        *prometheus.CounterVec
	CacheAccess        *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec
}

// NewMetrics creates the Prometheus metrics and registers them with reg.
// A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pnet_predictions_total",
				Help: "Total number of risk model predictions.",
			},
			[]string{"model", "result"},
		),
		PredictionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pnet_prediction_latency_seconds",
				Help:    "Latency of risk model predictions.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model"},
		),
		ExplainerFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pnet_explainer_failures_total",
				Help: "Total number of failed or timed-out model calls during explanation.",
			},
		),
		ExplainRuns: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pnet_explain_runs_total",
				Help: "Total number of completed explanations.",
			},
		),
		ExplainDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pnet_explain_duration_seconds",
				Help:    "Duration of explanation runs.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),
		ExplainedFeatures: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pnet_explained_features",
				Help: "Number of features in the latest explanation.",
			},
		),
		Assessments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pnet_assessments_total",
				Help: "Total number of rendered assessments by verdict.",
			},
			[]string{"verdict"},
		),
		CacheAccess: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pnet_prediction_cache_access_total",
				Help: "Prediction cache lookups by backend and outcome.",
			},
			[]string{"cache", "result"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pnet_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"path", "method", "status"},
		),
		HTTPRequestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pnet_http_request_duration_seconds",
				Help:    "Latency of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(path, method string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(path, method, statusClass(status)).Inc()
	m.HTTPRequestLatency.WithLabelValues(path, method).Observe(duration.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

//Personal.AI order the ending
