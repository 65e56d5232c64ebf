package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
)

func TestFeatureMatrix_Validate(t *testing.T) {
	testCases := []struct {
		name     string
		matrix   FeatureMatrix
		wantCode constants.ErrorCode
	}{
		{"no columns", FeatureMatrix{Rows: [][]float64{{1}}}, constants.ErrCodeDegenerateInput},
		{"no rows", FeatureMatrix{Columns: []string{"a"}}, constants.ErrCodeDegenerateInput},
		{"duplicate column", FeatureMatrix{Columns: []string{"a", "a"}, Rows: [][]float64{{1, 2}}}, constants.ErrCodeConfiguration},
		{"ragged row", FeatureMatrix{Columns: []string{"a", "b"}, Rows: [][]float64{{1}}}, constants.ErrCodeDegenerateInput},
		{"nan value", FeatureMatrix{Columns: []string{"a"}, Rows: [][]float64{{math.NaN()}}}, constants.ErrCodeDegenerateInput},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.matrix.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tc.wantCode), "got %v", err)
		})
	}

	ok := FeatureMatrix{Columns: []string{"a", "b"}, Rows: [][]float64{{1, 2}, {3, 4}}}
	assert.NoError(t, ok.Validate())
	assert.Error(t, ok.ValidateTarget(TargetVector{0.1}))
	assert.Error(t, ok.ValidateTarget(nil))
	assert.NoError(t, ok.ValidateTarget(TargetVector{0.1, 0.2}))
}

func TestRow_WithDoesNotMutateOriginal(t *testing.T) {
	row := Row{Names: []string{"base_score", "has_public_exploit"}, Values: []float64{9.8, 1}}

	cf, err := row.With("has_public_exploit", 0)
	require.NoError(t, err)

	assert.Equal(t, []float64{9.8, 1}, row.Values)
	assert.Equal(t, []float64{9.8, 0}, cf.Values)

	_, err = row.With("missing", 0)
	assert.True(t, errors.IsCode(err, constants.ErrCodeConfiguration))
}

func TestRow_Project(t *testing.T) {
	row := Row{Names: []string{"a", "b", "c"}, Values: []float64{1, 2, 3}}

	p, err := row.Project([]string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1}, p.Values)
	assert.Equal(t, 0.0, p.GetOr("b", 0))

	_, err = row.Project([]string{"z"})
	assert.Error(t, err)
}

func TestImportanceWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultImportanceWeights().Validate())
	assert.Error(t, ImportanceWeights{"a": 0.5, "b": 0.4}.Validate())
	assert.Error(t, ImportanceWeights{"a": 1.2, "b": -0.2}.Validate())
	assert.Error(t, ImportanceWeights{}.Validate())
}

func TestRiskLevelFloors_Classify(t *testing.T) {
	floors := DefaultPolicy().RiskLevels

	assert.Equal(t, RiskLevelCritical, floors.Classify(0.96))
	assert.Equal(t, RiskLevelHigh, floors.Classify(0.7))
	assert.Equal(t, RiskLevelMedium, floors.Classify(0.4))
	assert.Equal(t, RiskLevelLow, floors.Classify(0.39))
}
