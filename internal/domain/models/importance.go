package models

import (
	"fmt"
	"math"
	"sort"

	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
)

// ImportanceVector maps a feature name to a non-negative importance score.
type ImportanceVector map[string]float64

// ImportanceWeights assigns a non-negative weight to each contributing method id.
// The weights must sum to 1.0.
type ImportanceWeights map[string]float64

// DefaultImportanceWeights returns the 0.4 / 0.4 / 0.2 split across the two tree
// ensembles and the regularized linear model.
func DefaultImportanceWeights() ImportanceWeights {
	return ImportanceWeights{
		constants.MethodRandomForest:     0.4,
		constants.MethodGradientBoosting: 0.4,
		constants.MethodElasticNet:       0.2,
	}
}

// Methods returns the method ids in lexical order.
func (w ImportanceWeights) Methods() []string {
	out := make([]string, 0, len(w))
	for m := range w {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Sum returns the total weight.
func (w ImportanceWeights) Sum() float64 {
	var sum float64
	for _, m := range w.Methods() {
		sum += w[m]
	}
	return sum
}

// Validate checks that no weight is negative and the total is 1.0 within tolerance.
func (w ImportanceWeights) Validate() error {
	if len(w) == 0 {
		return errors.ErrConfiguration("importance weights are empty")
	}
	for _, m := range w.Methods() {
		v := w[m]
		if v < 0 || math.IsNaN(v) {
			return errors.ErrConfiguration(fmt.Sprintf("negative weight for method %s: %f", m, v)).
				WithMetadata("method", m)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > constants.WeightSumTolerance {
		return errors.ErrConfiguration(fmt.Sprintf("weights sum to %.6f, must sum to 1.0", sum)).
			WithMetadata("sum", sum)
	}
	return nil
}

// RankedFeatureList is a sequence of feature names in descending importance.
type RankedFeatureList []string

// FeatureScore pairs a feature with a score.
type FeatureScore struct {
	Feature string  `json:"feature"`
	Score   float64 `json:"score"`
}

// SHAPDistribution holds the explainer's mean absolute attribution per feature,
// sorted descending.
type SHAPDistribution struct {
	Entries []FeatureScore `json:"entries"`
}

// Values returns the scores in distribution order.
func (d SHAPDistribution) Values() []float64 {
	out := make([]float64, len(d.Entries))
	for i, e := range d.Entries {
		out[i] = e.Score
	}
	return out
}

// Get returns the attribution for a feature.
func (d SHAPDistribution) Get(feature string) (float64, bool) {
	for _, e := range d.Entries {
		if e.Feature == feature {
			return e.Score, true
		}
	}
	return 0, false
}

// Len returns the number of features in the distribution.
func (d SHAPDistribution) Len() int { return len(d.Entries) }

// SortScoresDescending orders scores by value, highest first, keeping input order for ties.
func SortScoresDescending(scores []FeatureScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
}
