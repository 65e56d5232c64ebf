package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// Instrumented records latency and outcome of every call to the wrapped model.
type Instrumented struct {
	next    service.RiskModel
	name    string
	metrics service.Metrics
}

// NewInstrumented wraps next. A nil metrics sink discards observations.
func NewInstrumented(next service.RiskModel, name string, metrics service.Metrics) *Instrumented {
	if metrics == nil {
		metrics = service.NoopMetrics{}
	}
	return &Instrumented{next: next, name: name, metrics: metrics}
}

// Predict implements service.RiskModel.
func (m *Instrumented) Predict(ctx context.Context, row models.Row) (float64, error) {
	start := time.Now()
	v, err := m.next.Predict(ctx, row)
	m.metrics.RecordPrediction(m.name, err == nil, time.Since(start))
	return v, err
}

// NewRiskModel builds the configured model, instrumented with metrics. The returned
// closer releases remote connections and is never nil.
func NewRiskModel(cfg *config.ScoringConfig, apiKey string, metrics service.Metrics, log logger.Logger) (service.RiskModel, func() error, error) {
	noop := func() error { return nil }

	var (
		model  service.RiskModel
		closer = noop
	)
	switch cfg.Model {
	case constants.ModelKindHeuristic:
		model = NewHeuristic()
	case constants.ModelKindOpenAI:
		m, err := NewOpenAIModel(&cfg.OpenAI, apiKey, cfg.Timeout, log)
		if err != nil {
			return nil, noop, err
		}
		model = m
	case constants.ModelKindGRPC:
		m, err := NewGRPCModel(&cfg.GRPC, log)
		if err != nil {
			return nil, noop, err
		}
		model, closer = m, m.Close
	default:
		return nil, noop, errors.ErrConfiguration(fmt.Sprintf("unknown scoring.model %q", cfg.Model))
	}

	log.Info(context.Background(), "risk model configured", logger.Fields{"model": string(cfg.Model)})
	return NewInstrumented(model, string(cfg.Model), metrics), closer, nil
}

//Personal.AI order the ending
