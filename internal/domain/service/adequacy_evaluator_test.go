package service_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

func assetRow(base, exploit float64) models.Row {
	return models.Row{
		Names:  []string{constants.FeatureBaseScore, constants.FeatureHasPublicExploit},
		Values: []float64{base, exploit},
	}
}

func TestAdequacyEvaluator_RequiredGap(t *testing.T) {
	a := service.NewAdequacyEvaluator(logger.NewNoopLogger(), 0)

	assert.InDelta(t, 0.28125, a.RequiredGap(0.96, 0.69), 1e-12)
	assert.Equal(t, 0.0, a.RequiredGap(0.69, 0.69))
	assert.Equal(t, 0.0, a.RequiredGap(0.5, 0.69))
	assert.InDelta(t, 1.0, a.RequiredGap(0.5, 0), 1e-12)
}

func TestAdequacyEvaluator_ActualGap(t *testing.T) {
	a := service.NewAdequacyEvaluator(logger.NewNoopLogger(), time.Second)

	gap, inherent, err := a.ActualGap(context.Background(), heuristicModel, assetRow(9.8, 1),
		constants.FeatureHasPublicExploit, 0)
	require.NoError(t, err)

	assert.InDelta(t, 0.984, inherent, 1e-12)
	assert.InDelta(t, 0.2/0.984, gap, 1e-12)
}

func TestAdequacyEvaluator_CounterfactualRaisingRiskIsZero(t *testing.T) {
	a := service.NewAdequacyEvaluator(logger.NewNoopLogger(), 0)

	gap, inherent, err := a.ActualGap(context.Background(), heuristicModel, assetRow(5.0, 0),
		constants.FeatureHasPublicExploit, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, gap)
	assert.InDelta(t, 0.4, inherent, 1e-12)
}

func TestAdequacyEvaluator_NonPositiveInherentSkipsCounterfactual(t *testing.T) {
	model := new(MockRiskModel)
	model.On("Predict", mock.Anything, mock.Anything).Return(0.0, nil).Once()

	a := service.NewAdequacyEvaluator(logger.NewNoopLogger(), 0)
	gap, inherent, err := a.ActualGap(context.Background(), model, assetRow(0, 0),
		constants.FeatureHasPublicExploit, 0)

	require.NoError(t, err)
	assert.Equal(t, 0.0, gap)
	assert.Equal(t, 0.0, inherent)
	model.AssertNumberOfCalls(t, "Predict", 1)
}

func TestAdequacyEvaluator_Errors(t *testing.T) {
	a := service.NewAdequacyEvaluator(logger.NewNoopLogger(), 0)

	_, _, err := a.ActualGap(context.Background(), heuristicModel, assetRow(9.8, 1), "unknown_feature", 0)
	assert.True(t, errors.IsCode(err, constants.ErrCodeConfiguration))

	failing := new(MockRiskModel)
	failing.On("Predict", mock.Anything, mock.Anything).Return(0.0, stderrors.New("scorer offline"))
	_, _, err = a.ActualGap(context.Background(), failing, assetRow(9.8, 1), constants.FeatureHasPublicExploit, 0)
	assert.True(t, errors.IsCode(err, constants.ErrCodePredictionFailure))

	secondFails := new(MockRiskModel)
	secondFails.On("Predict", mock.Anything, assetRow(9.8, 1)).Return(0.9, nil)
	secondFails.On("Predict", mock.Anything, assetRow(9.8, 0)).Return(0.0, stderrors.New("scorer offline"))
	_, _, err = a.ActualGap(context.Background(), secondFails, assetRow(9.8, 1), constants.FeatureHasPublicExploit, 0)
	assert.True(t, errors.IsCode(err, constants.ErrCodePredictionFailure))
}

func TestAdequacyEvaluator_Evaluate(t *testing.T) {
	model := new(MockRiskModel)
	model.On("Predict", mock.Anything, assetRow(9.8, 1)).Return(0.96, nil)
	model.On("Predict", mock.Anything, assetRow(9.8, 0)).Return(0.5856, nil)

	a := service.NewAdequacyEvaluator(logger.NewNoopLogger(), 0)
	risk, err := a.Evaluate(context.Background(), model, assetRow(9.8, 1), constants.FeatureHasPublicExploit, 0, 0.69)
	require.NoError(t, err)

	assert.InDelta(t, 0.96, risk.InherentRisk, 1e-12)
	assert.InDelta(t, 0.28125, risk.RequiredGap, 1e-12)
	assert.InDelta(t, 0.39, risk.ActualGap, 1e-9)
	model.AssertExpectations(t)
}
