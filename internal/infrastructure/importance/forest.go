package importance

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// ForestConfig configures the bagged forest.
type ForestConfig struct {
	Trees           int
	MaxDepth        int
	MinSamplesLeaf  int
	SampleFraction  float64
	FeatureFraction float64
	Seed            int64
}

// RandomForest scores features by the mean impurity decrease over bootstrapped trees.
type RandomForest struct {
	cfg ForestConfig
	log logger.Logger
}

// NewRandomForest validates cfg and creates the producer.
func NewRandomForest(cfg ForestConfig, log logger.Logger) (*RandomForest, error) {
	if cfg.Trees < 1 {
		return nil, errors.ErrConfiguration(fmt.Sprintf("random_forest.trees %d must be >= 1", cfg.Trees))
	}
	if cfg.MaxDepth < 1 {
		return nil, errors.ErrConfiguration(fmt.Sprintf("random_forest.max_depth %d must be >= 1", cfg.MaxDepth))
	}
	if cfg.SampleFraction <= 0 || cfg.SampleFraction > 1 {
		return nil, errors.ErrConfiguration(fmt.Sprintf("random_forest.sample_fraction %f outside (0,1]", cfg.SampleFraction))
	}
	if cfg.FeatureFraction < 0 || cfg.FeatureFraction > 1 {
		return nil, errors.ErrConfiguration(fmt.Sprintf("random_forest.feature_fraction %f outside [0,1]", cfg.FeatureFraction))
	}
	return &RandomForest{cfg: cfg, log: log.WithComponent("RandomForest")}, nil
}

// Method implements service.ImportanceProducer.
func (f *RandomForest) Method() string { return constants.MethodRandomForest }

// Importance implements service.ImportanceProducer.
func (f *RandomForest) Importance(ctx context.Context, x models.FeatureMatrix, y models.TargetVector) (models.ImportanceVector, error) {
	if err := validateInput(x, y); err != nil {
		return nil, err
	}
	start := time.Now()

	rng := rand.New(rand.NewPCG(uint64(f.cfg.Seed), uint64(len(x.Columns))))
	n := x.NumRows()
	draw := int(float64(n)*f.cfg.SampleFraction + 0.5)
	if draw < 1 {
		draw = 1
	}
	params := treeParams{
		maxDepth:        f.cfg.MaxDepth,
		minSamplesLeaf:  f.cfg.MinSamplesLeaf,
		featureFraction: f.cfg.FeatureFraction,
	}

	total := make([]float64, x.NumColumns())
	for t := 0; t < f.cfg.Trees; t++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapError(err, constants.ErrCodeInternal, "random forest fit cancelled")
		}

		idx := make([]int, draw)
		for i := range idx {
			idx[i] = rng.IntN(n)
		}
		gains := make([]float64, x.NumColumns())
		newTreeBuilder(x.Rows, y, params, rng, gains).build(idx, 0)

		for j, g := range normalize(gains) {
			total[j] += g / float64(f.cfg.Trees)
		}
	}

	f.log.Debug(ctx, "importance fitted", logger.Merge(
		logger.Fields{"trees": f.cfg.Trees, "rows": n},
		logger.Duration("duration_ms", time.Since(start)),
	))
	return toVector(x.Columns, total), nil
}

//Personal.AI order the ending
