package importance

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// linearDataset returns y = 0.08*signal with an unrelated noise column and a constant column.
func linearDataset(rows int) (models.FeatureMatrix, models.TargetVector) {
	rng := rand.New(rand.NewPCG(1, 2))
	x := models.FeatureMatrix{Columns: []string{"signal", "noise", "constant"}}
	y := make(models.TargetVector, rows)
	for i := 0; i < rows; i++ {
		signal := rng.Float64() * 10
		x.Rows = append(x.Rows, []float64{signal, rng.Float64() * 10, 1})
		y[i] = 0.08 * signal
	}
	return x, y
}

func testProducers(t *testing.T) []service.ImportanceProducer {
	t.Helper()
	log := logger.NewNoopLogger()

	rf, err := NewRandomForest(ForestConfig{Trees: 20, MaxDepth: 4, MinSamplesLeaf: 2, SampleFraction: 1, FeatureFraction: 1, Seed: 42}, log)
	require.NoError(t, err)
	gb, err := NewGradientBoosting(BoostingConfig{Rounds: 50, LearningRate: 0.1, MaxDepth: 2, MinSamplesLeaf: 2}, log)
	require.NoError(t, err)
	en, err := NewElasticNet(ElasticNetConfig{Alpha: 0.001, L1Ratio: 0.5, MaxIter: 2000, Tolerance: 1e-6}, log)
	require.NoError(t, err)

	return []service.ImportanceProducer{rf, gb, en}
}

func TestProducers_RankSignalAboveNoise(t *testing.T) {
	x, y := linearDataset(120)

	for _, p := range testProducers(t) {
		t.Run(p.Method(), func(t *testing.T) {
			v, err := p.Importance(context.Background(), x, y)
			require.NoError(t, err)

			require.Len(t, v, 3)
			for _, c := range x.Columns {
				assert.GreaterOrEqual(t, v[c], 0.0, c)
			}
			assert.Greater(t, v["signal"], v["noise"])
			assert.Equal(t, 0.0, v["constant"])
		})
	}
}

func TestTreeProducers_Normalized(t *testing.T) {
	x, y := linearDataset(80)

	for _, p := range testProducers(t)[:2] {
		t.Run(p.Method(), func(t *testing.T) {
			v, err := p.Importance(context.Background(), x, y)
			require.NoError(t, err)

			var sum float64
			for _, s := range v {
				sum += s
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}

func TestRandomForest_Reproducible(t *testing.T) {
	x, y := linearDataset(60)
	cfg := ForestConfig{Trees: 10, MaxDepth: 3, MinSamplesLeaf: 1, SampleFraction: 0.8, FeatureFraction: 0.5, Seed: 7}

	a, err := NewRandomForest(cfg, logger.NewNoopLogger())
	require.NoError(t, err)
	b, err := NewRandomForest(cfg, logger.NewNoopLogger())
	require.NoError(t, err)

	va, err := a.Importance(context.Background(), x, y)
	require.NoError(t, err)
	vb, err := b.Importance(context.Background(), x, y)
	require.NoError(t, err)
	assert.Equal(t, va, vb)
}

func TestElasticNet_Coefficients(t *testing.T) {
	x, y := linearDataset(100)
	en, err := NewElasticNet(ElasticNetConfig{Alpha: 0.001, L1Ratio: 0.5, MaxIter: 5000, Tolerance: 1e-9}, logger.NewNoopLogger())
	require.NoError(t, err)

	v, err := en.Importance(context.Background(), x, y)
	require.NoError(t, err)

	// The standardized coefficient of an exact linear signal approaches std(y).
	signal := x.Column(0)
	var mean, variance float64
	for _, s := range signal {
		mean += s
	}
	mean /= float64(len(signal))
	for _, s := range signal {
		variance += (s - mean) * (s - mean)
	}
	stdY := 0.08 * math.Sqrt(variance/float64(len(signal)))

	assert.InDelta(t, stdY, v["signal"], 0.01)
	assert.Less(t, v["noise"], 0.01*v["signal"])
}

func TestProducers_ConstantTarget(t *testing.T) {
	x, _ := linearDataset(30)
	y := make(models.TargetVector, 30)

	for _, p := range testProducers(t) {
		t.Run(p.Method(), func(t *testing.T) {
			v, err := p.Importance(context.Background(), x, y)
			require.NoError(t, err)
			for _, c := range x.Columns {
				assert.Equal(t, 0.0, v[c])
			}
		})
	}
}

func TestProducers_InputErrors(t *testing.T) {
	x, y := linearDataset(10)

	for _, p := range testProducers(t) {
		t.Run(p.Method(), func(t *testing.T) {
			_, err := p.Importance(context.Background(), models.FeatureMatrix{Columns: x.Columns}, nil)
			assert.True(t, errors.IsCode(err, constants.ErrCodeDegenerateInput))

			_, err = p.Importance(context.Background(), x, y[:5])
			assert.True(t, errors.IsCode(err, constants.ErrCodeDegenerateInput))
		})
	}
}

func TestProducers_Cancelled(t *testing.T) {
	x, y := linearDataset(20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, p := range testProducers(t) {
		t.Run(p.Method(), func(t *testing.T) {
			_, err := p.Importance(ctx, x, y)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, constants.ErrCodeInternal))
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestProducers_ConfigErrors(t *testing.T) {
	log := logger.NewNoopLogger()

	testCases := []struct {
		name string
		fn   func() error
	}{
		{"forest without trees", func() error {
			_, err := NewRandomForest(ForestConfig{Trees: 0, MaxDepth: 1, SampleFraction: 1}, log)
			return err
		}},
		{"forest sample fraction", func() error {
			_, err := NewRandomForest(ForestConfig{Trees: 1, MaxDepth: 1, SampleFraction: 1.5}, log)
			return err
		}},
		{"boosting learning rate", func() error {
			_, err := NewGradientBoosting(BoostingConfig{Rounds: 1, LearningRate: 0, MaxDepth: 1}, log)
			return err
		}},
		{"boosting depth", func() error {
			_, err := NewGradientBoosting(BoostingConfig{Rounds: 1, LearningRate: 0.1}, log)
			return err
		}},
		{"elastic net l1 ratio", func() error {
			_, err := NewElasticNet(ElasticNetConfig{Alpha: 0.1, L1Ratio: 2, MaxIter: 1, Tolerance: 1e-4}, log)
			return err
		}},
		{"elastic net tolerance", func() error {
			_, err := NewElasticNet(ElasticNetConfig{Alpha: 0.1, L1Ratio: 0.5, MaxIter: 1}, log)
			return err
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fn()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, constants.ErrCodeConfiguration))
		})
	}
}

func TestNewProducers_FeedAggregator(t *testing.T) {
	cfg := &config.EnsembleConfig{
		Weights: models.DefaultImportanceWeights(),
		Seed:    42,
		RandomForest: config.RandomForestConfig{
			Trees: 10, MaxDepth: 3, MinSamplesLeaf: 2, SampleFraction: 1, FeatureFraction: 1,
		},
		GradientBoosting: config.GradientBoostingConfig{Rounds: 30, LearningRate: 0.1, MaxDepth: 2, MinSamplesLeaf: 2},
		ElasticNet:       config.ElasticNetConfig{Alpha: 0.001, L1Ratio: 0.5, MaxIter: 1000, Tolerance: 1e-4},
	}

	producers, err := NewProducers(cfg, logger.NewNoopLogger())
	require.NoError(t, err)
	require.Len(t, producers, 3)
	assert.Equal(t, constants.MethodElasticNet, producers[0].Method())
	assert.Equal(t, constants.MethodGradientBoosting, producers[1].Method())
	assert.Equal(t, constants.MethodRandomForest, producers[2].Method())

	x, y := linearDataset(60)
	vectors := make(map[string]models.ImportanceVector, len(producers))
	for _, p := range producers {
		v, err := p.Importance(context.Background(), x, y)
		require.NoError(t, err)
		vectors[p.Method()] = v
	}

	ranked, _, err := service.NewImportanceAggregator(logger.NewNoopLogger()).
		Combine(x.Columns, vectors, cfg.Weights, 2)
	require.NoError(t, err)
	assert.Equal(t, models.RankedFeatureList{"signal", "noise"}, ranked)
}
