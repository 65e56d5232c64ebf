package service_test

import (
	"context"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/pkg/logger"
)

// TestRequiredGapBounds verifies RequiredGap stays in [0,1) and is zero when compliant.
func TestRequiredGapBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	a := service.NewAdequacyEvaluator(logger.NewNoopLogger(), 0)

	properties.Property("required gap is bounded", prop.ForAll(
		func(inherent, limit float64) bool {
			gap := a.RequiredGap(inherent, limit)
			if inherent <= limit {
				return gap == 0
			}
			return gap > 0 && gap < 1
		},
		gen.Float64Range(0.001, 1),
		gen.Float64Range(0.001, 1),
	))

	properties.TestingRun(t)
}

// TestActualGapBounds verifies ActualGap is clamped to [0,1] for any pair of scores.
func TestActualGapBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	a := service.NewAdequacyEvaluator(logger.NewNoopLogger(), 0)

	properties.Property("actual gap is clamped", prop.ForAll(
		func(inherent, residual float64) bool {
			model := service.PredictFunc(func(_ context.Context, row models.Row) (float64, error) {
				if row.GetOr("x", 0) == 1 {
					return inherent, nil
				}
				return residual, nil
			})
			row := models.Row{Names: []string{"x"}, Values: []float64{1}}
			gap, _, err := a.ActualGap(context.Background(), model, row, "x", 0)
			if err != nil {
				return false
			}
			if residual >= inherent {
				return gap == 0
			}
			return gap >= 0 && gap <= 1
		},
		gen.Float64Range(-1, 1),
		gen.Float64Range(-1, 2),
	))

	properties.TestingRun(t)
}

// TestWeightedSum verifies the combined score equals the weighted sum for every feature.
func TestWeightedSum(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)
	agg := service.NewImportanceAggregator(logger.NewNoopLogger())
	columns := []string{"f0", "f1", "f2", "f3"}

	properties.Property("combined equals weighted sum", prop.ForAll(
		func(v1, v2 []float64, w float64) bool {
			vectors := map[string]models.ImportanceVector{"m1": {}, "m2": {}}
			for i, c := range columns {
				vectors["m1"][c] = v1[i]
				vectors["m2"][c] = v2[i]
			}
			weights := models.ImportanceWeights{"m1": w, "m2": 1 - w}

			ranked, combined, err := agg.Combine(columns, vectors, weights, len(columns))
			if err != nil {
				return false
			}
			for i, c := range columns {
				if math.Abs(combined[c]-(w*v1[i]+(1-w)*v2[i])) > 1e-9 {
					return false
				}
			}
			for i := 1; i < len(ranked); i++ {
				if combined[ranked[i-1]] < combined[ranked[i]] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(4, gen.Float64Range(0, 10)),
		gen.SliceOfN(4, gen.Float64Range(0, 10)),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}

// TestCriticalNotBelowMaterial verifies Critical >= Material for any non-negative z.
func TestCriticalNotBelowMaterial(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)
	c := service.NewThresholdCalibrator(logger.NewNoopLogger())

	properties.Property("critical threshold dominates material", prop.ForAll(
		func(values []float64, z float64) bool {
			pair := c.Calibrate(distribution(values...), z)
			return pair.Critical >= pair.Material && !math.IsNaN(pair.Critical)
		},
		gen.SliceOfN(8, gen.Float64Range(0, 1)),
		gen.Float64Range(0, 3),
	))

	properties.TestingRun(t)
}
