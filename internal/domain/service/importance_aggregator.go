package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// ImportanceAggregator combines several per-method importance vectors into one
// weighted score per feature and ranks the features.
type ImportanceAggregator struct {
	log logger.Logger
}

// NewImportanceAggregator creates a new ImportanceAggregator.
func NewImportanceAggregator(log logger.Logger) *ImportanceAggregator {
	return &ImportanceAggregator{log: log.WithComponent("ImportanceAggregator")}
}

// Combine computes combined[f] = sum over methods of weight[m] * vectors[m][f] for every
// column, then returns the topN columns ordered by descending combined score. Ties keep
// the order of columns.
//
// Every vector must cover exactly the column set and the weight keys must match the
// vector method ids. Violations yield a configuration_error.
func (a *ImportanceAggregator) Combine(
	columns []string,
	vectors map[string]models.ImportanceVector,
	weights models.ImportanceWeights,
	topN int,
) (models.RankedFeatureList, models.ImportanceVector, error) {
	if len(columns) == 0 {
		return nil, nil, errors.ErrDegenerateInput("no feature columns to rank")
	}
	if err := weights.Validate(); err != nil {
		return nil, nil, err
	}
	if topN < 1 || topN > len(columns) {
		return nil, nil, errors.ErrConfiguration(fmt.Sprintf("top_n %d outside [1,%d]", topN, len(columns))).
			WithMetadata("top_n", topN)
	}
	if err := checkMethods(vectors, weights); err != nil {
		return nil, nil, err
	}
	for _, m := range weights.Methods() {
		if err := checkDomain(m, columns, vectors[m]); err != nil {
			return nil, nil, err
		}
	}

	combined := make(models.ImportanceVector, len(columns))
	scores := make([]models.FeatureScore, len(columns))
	for i, f := range columns {
		var sum float64
		for _, m := range weights.Methods() {
			sum += weights[m] * vectors[m][f]
		}
		combined[f] = sum
		scores[i] = models.FeatureScore{Feature: f, Score: sum}
	}
	models.SortScoresDescending(scores)

	ranked := make(models.RankedFeatureList, topN)
	for i := 0; i < topN; i++ {
		ranked[i] = scores[i].Feature
	}

	a.log.Debug(context.Background(), "importance vectors combined", logger.Fields{
		"methods":  weights.Methods(),
		"columns":  len(columns),
		"top_n":    topN,
		"leader":   ranked[0],
		"leader_v": combined[ranked[0]],
	})
	return ranked, combined, nil
}

func checkMethods(vectors map[string]models.ImportanceVector, weights models.ImportanceWeights) error {
	var missing, extra []string
	for m := range weights {
		if _, ok := vectors[m]; !ok {
			missing = append(missing, m)
		}
	}
	for m := range vectors {
		if _, ok := weights[m]; !ok {
			extra = append(extra, m)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return errors.ErrConfiguration("importance weights do not match the supplied methods").
		WithMetadata("missing", missing).
		WithMetadata("extra", extra)
}

func checkDomain(method string, columns []string, v models.ImportanceVector) error {
	var missing, extra []string
	want := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		want[c] = struct{}{}
		score, ok := v[c]
		if !ok {
			missing = append(missing, c)
			continue
		}
		if score < 0 || math.IsNaN(score) {
			return errors.ErrConfiguration(fmt.Sprintf("importance %q for %s is negative or NaN", method, c)).
				WithMetadata("method", method).
				WithMetadata("feature", c)
		}
	}
	for f := range v {
		if _, ok := want[f]; !ok {
			extra = append(extra, f)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	return errors.ErrFeatureDomainMismatch(method, missing, extra)
}
