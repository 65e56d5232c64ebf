package importance

import (
	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/logger"
)

// NewProducers builds the producers named in the ensemble weights, in weight-key order.
// Weights for methods without a producer are left for the aggregator to reject.
func NewProducers(cfg *config.EnsembleConfig, log logger.Logger) ([]service.ImportanceProducer, error) {
	var producers []service.ImportanceProducer
	for _, method := range models.ImportanceWeights(cfg.Weights).Methods() {
		var (
			p   service.ImportanceProducer
			err error
		)
		switch method {
		case constants.MethodRandomForest:
			p, err = NewRandomForest(ForestConfig{
				Trees:           cfg.RandomForest.Trees,
				MaxDepth:        cfg.RandomForest.MaxDepth,
				MinSamplesLeaf:  cfg.RandomForest.MinSamplesLeaf,
				SampleFraction:  cfg.RandomForest.SampleFraction,
				FeatureFraction: cfg.RandomForest.FeatureFraction,
				Seed:            cfg.Seed,
			}, log)
		case constants.MethodGradientBoosting:
			p, err = NewGradientBoosting(BoostingConfig{
				Rounds:         cfg.GradientBoosting.Rounds,
				LearningRate:   cfg.GradientBoosting.LearningRate,
				MaxDepth:       cfg.GradientBoosting.MaxDepth,
				MinSamplesLeaf: cfg.GradientBoosting.MinSamplesLeaf,
			}, log)
		case constants.MethodElasticNet:
			p, err = NewElasticNet(ElasticNetConfig{
				Alpha:     cfg.ElasticNet.Alpha,
				L1Ratio:   cfg.ElasticNet.L1Ratio,
				MaxIter:   cfg.ElasticNet.MaxIter,
				Tolerance: cfg.ElasticNet.Tolerance,
			}, log)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		producers = append(producers, p)
	}
	return producers, nil
}

func validateInput(x models.FeatureMatrix, y models.TargetVector) error {
	if err := x.Validate(); err != nil {
		return err
	}
	return x.ValidateTarget(y)
}

func toVector(columns []string, scores []float64) models.ImportanceVector {
	out := make(models.ImportanceVector, len(columns))
	for j, c := range columns {
		out[c] = scores[j]
	}
	return out
}

//Personal.AI order the ending
