package service

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// ================================================================================
// Configuration
// ================================================================================

// ExplainerConfig controls the Monte-Carlo attribution estimate.
type ExplainerConfig struct {
	// SamplesPerFeature is the number of (permutation, background row) draws per row and feature
	SamplesPerFeature int `mapstructure:"samples_per_feature"`

	// Seed seeds every per-task random stream
	Seed int64 `mapstructure:"seed"`

	// Workers bounds the number of concurrent attribution tasks
	Workers int `mapstructure:"workers"`

	// PredictTimeout bounds a single risk model call
	PredictTimeout time.Duration `mapstructure:"predict_timeout"`

	// MaxFailureRate is the tolerated failures/evaluations ratio
	MaxFailureRate float64 `mapstructure:"max_failure_rate"`
}

// DefaultExplainerConfig returns the explainer defaults.
func DefaultExplainerConfig() ExplainerConfig {
	return ExplainerConfig{
		SamplesPerFeature: constants.DefaultSamplesPerFeature,
		Seed:              constants.DefaultExplainerSeed,
		Workers:           constants.DefaultExplainerWorkers,
		PredictTimeout:    constants.DefaultPredictTimeout,
		MaxFailureRate:    constants.DefaultMaxFailureRate,
	}
}

// Validate checks the numeric ranges.
func (c ExplainerConfig) Validate() error {
	switch {
	case c.SamplesPerFeature < 1:
		return errors.ErrConfiguration(fmt.Sprintf("samples_per_feature %d must be >= 1", c.SamplesPerFeature))
	case c.Workers < 1:
		return errors.ErrConfiguration(fmt.Sprintf("workers %d must be >= 1", c.Workers))
	case c.PredictTimeout <= 0:
		return errors.ErrConfiguration(fmt.Sprintf("predict_timeout %s must be positive", c.PredictTimeout))
	case c.MaxFailureRate < 0 || c.MaxFailureRate > 1 || math.IsNaN(c.MaxFailureRate):
		return errors.ErrConfiguration(fmt.Sprintf("max_failure_rate %f outside [0,1]", c.MaxFailureRate))
	}
	return nil
}

// ExplainStats summarizes one explanation run.
type ExplainStats struct {
	Rows        int `json:"rows"`
	Features    int `json:"features"`
	Evaluations int `json:"evaluations"`
	Failures    int `json:"failures"`
}

// FailureRate returns Failures/Evaluations, or 0 when nothing was evaluated.
func (s ExplainStats) FailureRate() float64 {
	if s.Evaluations == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Evaluations)
}

// ================================================================================
// Explainer
// ================================================================================

// Explainer estimates per-feature Shapley attributions of a black-box RiskModel by
// sampling feature permutations against background rows drawn from the sample set.
type Explainer struct {
	cfg     ExplainerConfig
	log     logger.Logger
	metrics Metrics
}

// NewExplainer creates a new Explainer. cfg must already be valid.
func NewExplainer(cfg ExplainerConfig, log logger.Logger, metrics Metrics) *Explainer {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Explainer{
		cfg:     cfg,
		log:     log.WithComponent("Explainer"),
		metrics: metrics,
	}
}

// taskResult is the outcome of one (row, feature) attribution task.
type taskResult struct {
	phi         float64
	evaluations int
	failures    int
}

// Explain returns the mean absolute attribution of each feature across rows, sorted
// descending with ties in column order.
//
// A failed or timed-out model call contributes 0 to its sample and is still counted in
// the denominator. Output is identical for any Workers value given the same Seed.
func (e *Explainer) Explain(ctx context.Context, model RiskModel, rows []models.Row) (models.SHAPDistribution, ExplainStats, error) {
	start := time.Now()
	if err := e.cfg.Validate(); err != nil {
		return models.SHAPDistribution{}, ExplainStats{}, err
	}
	if len(rows) == 0 {
		return models.SHAPDistribution{}, ExplainStats{}, errors.ErrDegenerateInput("explainer received no sample rows")
	}
	features := rows[0].Names
	if len(features) == 0 {
		return models.SHAPDistribution{}, ExplainStats{}, errors.ErrDegenerateInput("explainer received rows without features")
	}
	for i, r := range rows {
		if !sameSchema(features, r) {
			return models.SHAPDistribution{}, ExplainStats{}, errors.ErrConfiguration(fmt.Sprintf("sample row %d does not match the feature schema", i))
		}
	}

	n, f := len(rows), len(features)
	results := make([]taskResult, n*f)
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for idx := range results {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[idx] = e.attribute(gctx, model, rows, idx/f, idx%f, &failed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.SHAPDistribution{}, ExplainStats{}, errors.WrapError(err, constants.ErrCodeInternal, "explanation cancelled")
	}
	if err := ctx.Err(); err != nil {
		return models.SHAPDistribution{}, ExplainStats{}, errors.WrapError(err, constants.ErrCodeInternal, "explanation cancelled")
	}

	stats := ExplainStats{Rows: n, Features: f}
	meanAbs := make([]float64, f)
	for idx, r := range results {
		stats.Evaluations += r.evaluations
		stats.Failures += r.failures
		meanAbs[idx%f] += math.Abs(r.phi)
	}

	if stats.FailureRate() > e.cfg.MaxFailureRate {
		e.log.Warn(ctx, "explainer failure rate exceeded", logger.Fields{
			"failures":         stats.Failures,
			"evaluations":      stats.Evaluations,
			"max_failure_rate": e.cfg.MaxFailureRate,
		})
		return models.SHAPDistribution{}, stats, errors.ErrExplainerExhausted(stats.Failures, stats.Evaluations)
	}

	entries := make([]models.FeatureScore, f)
	for j, name := range features {
		entries[j] = models.FeatureScore{Feature: name, Score: meanAbs[j] / float64(n)}
	}
	models.SortScoresDescending(entries)

	elapsed := time.Since(start)
	e.metrics.RecordExplainRun(n, f, elapsed)
	e.log.Info(ctx, "explanation completed", logger.Merge(logger.Fields{
		"rows":        stats.Rows,
		"features":    stats.Features,
		"evaluations": stats.Evaluations,
		"failures":    stats.Failures,
		"workers":     e.cfg.Workers,
	}, logger.Duration("duration_ms", elapsed)))

	return models.SHAPDistribution{Entries: entries}, stats, nil
}

// attribute estimates phi for one (row, feature) task on its own random stream.
func (e *Explainer) attribute(ctx context.Context, model RiskModel, rows []models.Row, i, j int, failed *atomic.Int64) taskResult {
	f := len(rows[0].Names)
	rng := rand.New(rand.NewPCG(uint64(e.cfg.Seed), uint64(i*f+j)))
	x := rows[i].Values

	var res taskResult
	var sum float64
	plus := make([]float64, f)
	minus := make([]float64, f)
	for s := 0; s < e.cfg.SamplesPerFeature; s++ {
		perm := rng.Perm(f)
		z := rows[rng.IntN(len(rows))].Values

		before := true
		for _, k := range perm {
			switch {
			case k == j:
				plus[k], minus[k] = x[k], z[k]
				before = false
			case before:
				plus[k], minus[k] = x[k], x[k]
			default:
				plus[k], minus[k] = z[k], z[k]
			}
		}

		hi, errHi := e.predict(ctx, model, models.Row{Names: rows[i].Names, Values: cloneValues(plus)})
		lo, errLo := e.predict(ctx, model, models.Row{Names: rows[i].Names, Values: cloneValues(minus)})
		res.evaluations += 2

		if errHi != nil || errLo != nil {
			for _, err := range []error{errHi, errLo} {
				if err == nil {
					continue
				}
				res.failures++
				total := failed.Add(1)
				e.metrics.RecordExplainerFailure()
				e.log.Warn(ctx, "risk model call failed during explanation", logger.Fields{
					"row":            i,
					"feature":        rows[i].Names[j],
					"sample":         s,
					"error":          err.Error(),
					"failures_total": total,
				})
			}
			continue
		}
		sum += hi - lo
	}
	res.phi = sum / float64(e.cfg.SamplesPerFeature)
	return res
}

// predict calls the model under the per-call timeout and rejects non-finite scores.
func (e *Explainer) predict(ctx context.Context, model RiskModel, row models.Row) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.PredictTimeout)
	defer cancel()

	v, err := model.Predict(callCtx, row)
	if err != nil {
		return 0, errors.ErrPredictionFailure("risk model call failed").WithCause(err)
	}
	if callCtx.Err() != nil {
		return 0, errors.ErrPredictionFailure("risk model call timed out").WithCause(callCtx.Err())
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.ErrPredictionFailure(fmt.Sprintf("risk model returned non-finite score %v", v))
	}
	return v, nil
}

func sameSchema(features []string, r models.Row) bool {
	if len(r.Names) != len(features) || len(r.Values) != len(features) {
		return false
	}
	for k := range features {
		if r.Names[k] != features[k] {
			return false
		}
	}
	return true
}

func cloneValues(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

//Personal.AI order the ending
