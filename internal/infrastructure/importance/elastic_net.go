package importance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// ElasticNetConfig configures the penalized least squares fit.
type ElasticNetConfig struct {
	Alpha     float64
	L1Ratio   float64
	MaxIter   int
	Tolerance float64
}

// ElasticNet scores features by the absolute coefficients of an elastic net fitted
// on standardized columns.
type ElasticNet struct {
	cfg ElasticNetConfig
	log logger.Logger
}

// NewElasticNet validates cfg and creates the producer.
func NewElasticNet(cfg ElasticNetConfig, log logger.Logger) (*ElasticNet, error) {
	if cfg.Alpha < 0 {
		return nil, errors.ErrConfiguration(fmt.Sprintf("elastic_net.alpha %f must be >= 0", cfg.Alpha))
	}
	if cfg.L1Ratio < 0 || cfg.L1Ratio > 1 {
		return nil, errors.ErrConfiguration(fmt.Sprintf("elastic_net.l1_ratio %f outside [0,1]", cfg.L1Ratio))
	}
	if cfg.MaxIter < 1 {
		return nil, errors.ErrConfiguration(fmt.Sprintf("elastic_net.max_iter %d must be >= 1", cfg.MaxIter))
	}
	if cfg.Tolerance <= 0 {
		return nil, errors.ErrConfiguration(fmt.Sprintf("elastic_net.tolerance %f must be > 0", cfg.Tolerance))
	}
	return &ElasticNet{cfg: cfg, log: log.WithComponent("ElasticNet")}, nil
}

// Method implements service.ImportanceProducer.
func (e *ElasticNet) Method() string { return constants.MethodElasticNet }

// Importance implements service.ImportanceProducer.
// It minimizes 1/(2n)·‖y−Xw‖² + α·ρ·‖w‖₁ + α·(1−ρ)/2·‖w‖² by cyclic coordinate descent.
func (e *ElasticNet) Importance(ctx context.Context, x models.FeatureMatrix, y models.TargetVector) (models.ImportanceVector, error) {
	if err := validateInput(x, y); err != nil {
		return nil, err
	}
	start := time.Now()

	n, p := x.NumRows(), x.NumColumns()
	cols := standardize(x)

	var yMean float64
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(n)
	residual := make([]float64, n)
	for i, v := range y {
		residual[i] = v - yMean
	}

	// Standardized columns have unit mean square; constant columns are nil and stay at 0.
	l1 := e.cfg.Alpha * e.cfg.L1Ratio
	denom := 1 + e.cfg.Alpha*(1-e.cfg.L1Ratio)
	w := make([]float64, p)
	iter := 0

	for ; iter < e.cfg.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapError(err, constants.ErrCodeInternal, "elastic net fit cancelled")
		}

		var maxDelta float64
		for j, col := range cols {
			if col == nil {
				continue
			}
			var rho float64
			for i, v := range col {
				rho += v * (residual[i] + v*w[j])
			}
			rho /= float64(n)

			next := softThreshold(rho, l1) / denom
			if delta := next - w[j]; delta != 0 {
				for i, v := range col {
					residual[i] -= v * delta
				}
				maxDelta = math.Max(maxDelta, math.Abs(delta))
				w[j] = next
			}
		}
		if maxDelta < e.cfg.Tolerance {
			break
		}
	}

	for j := range w {
		w[j] = math.Abs(w[j])
	}

	e.log.Debug(ctx, "importance fitted", logger.Merge(
		logger.Fields{"iterations": iter, "rows": n},
		logger.Duration("duration_ms", time.Since(start)),
	))
	return toVector(x.Columns, w), nil
}

// standardize returns each column centered and scaled to unit population variance,
// or nil for a constant column.
func standardize(x models.FeatureMatrix) [][]float64 {
	n := float64(x.NumRows())
	out := make([][]float64, x.NumColumns())
	for j := range out {
		col := x.Column(j)
		var mean float64
		for _, v := range col {
			mean += v
		}
		mean /= n

		var variance float64
		for _, v := range col {
			variance += (v - mean) * (v - mean)
		}
		std := math.Sqrt(variance / n)
		if std == 0 {
			continue
		}
		for i := range col {
			col[i] = (col[i] - mean) / std
		}
		out[j] = col
	}
	return out
}

func softThreshold(v, t float64) float64 {
	switch {
	case v > t:
		return v - t
	case v < -t:
		return v + t
	default:
		return 0
	}
}

//Personal.AI order the ending
