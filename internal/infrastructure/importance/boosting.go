package importance

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// BoostingConfig configures gradient boosting with squared loss.
type BoostingConfig struct {
	Rounds         int
	LearningRate   float64
	MaxDepth       int
	MinSamplesLeaf int
}

// GradientBoosting scores features by the impurity decrease accumulated over the
// residual-fitting trees.
type GradientBoosting struct {
	cfg BoostingConfig
	log logger.Logger
}

// NewGradientBoosting validates cfg and creates the producer.
func NewGradientBoosting(cfg BoostingConfig, log logger.Logger) (*GradientBoosting, error) {
	if cfg.Rounds < 1 {
		return nil, errors.ErrConfiguration(fmt.Sprintf("gradient_boosting.rounds %d must be >= 1", cfg.Rounds))
	}
	if cfg.LearningRate <= 0 || cfg.LearningRate > 1 {
		return nil, errors.ErrConfiguration(fmt.Sprintf("gradient_boosting.learning_rate %f outside (0,1]", cfg.LearningRate))
	}
	if cfg.MaxDepth < 1 {
		return nil, errors.ErrConfiguration(fmt.Sprintf("gradient_boosting.max_depth %d must be >= 1", cfg.MaxDepth))
	}
	return &GradientBoosting{cfg: cfg, log: log.WithComponent("GradientBoosting")}, nil
}

// Method implements service.ImportanceProducer.
func (g *GradientBoosting) Method() string { return constants.MethodGradientBoosting }

// Importance implements service.ImportanceProducer.
func (g *GradientBoosting) Importance(ctx context.Context, x models.FeatureMatrix, y models.TargetVector) (models.ImportanceVector, error) {
	if err := validateInput(x, y); err != nil {
		return nil, err
	}
	start := time.Now()

	n := x.NumRows()
	var base float64
	for _, v := range y {
		base += v
	}
	base /= float64(n)

	fitted := make([]float64, n)
	for i := range fitted {
		fitted[i] = base
	}
	residual := make([]float64, n)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	gains := make([]float64, x.NumColumns())
	params := treeParams{maxDepth: g.cfg.MaxDepth, minSamplesLeaf: g.cfg.MinSamplesLeaf}
	rounds := 0

	for ; rounds < g.cfg.Rounds; rounds++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapError(err, constants.ErrCodeInternal, "gradient boosting fit cancelled")
		}

		var sse float64
		for i := range residual {
			residual[i] = y[i] - fitted[i]
			sse += residual[i] * residual[i]
		}
		if sse <= minGain {
			break
		}

		tree := newTreeBuilder(x.Rows, residual, params, nil, gains).build(idx, 0)
		for i, row := range x.Rows {
			fitted[i] += g.cfg.LearningRate * tree.predict(row)
		}
	}

	g.log.Debug(ctx, "importance fitted", logger.Merge(
		logger.Fields{"rounds": rounds, "rows": n},
		logger.Duration("duration_ms", time.Since(start)),
	))
	return toVector(x.Columns, normalize(gains)), nil
}

//Personal.AI order the ending
