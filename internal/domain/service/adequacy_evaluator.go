package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// AdequacyEvaluator measures how far a control moves an asset toward the safety limit
// by re-scoring the asset row with the driver feature forced to its safe value.
type AdequacyEvaluator struct {
	log            logger.Logger
	predictTimeout time.Duration
}

// NewAdequacyEvaluator creates a new AdequacyEvaluator. A zero predictTimeout
// leaves model calls bounded only by the caller's context.
func NewAdequacyEvaluator(log logger.Logger, predictTimeout time.Duration) *AdequacyEvaluator {
	return &AdequacyEvaluator{
		log:            log.WithComponent("AdequacyEvaluator"),
		predictTimeout: predictTimeout,
	}
}

// RequiredGap returns the relative reduction needed to bring inherent down to limit,
// or 0 when the asset is already compliant.
func (a *AdequacyEvaluator) RequiredGap(inherent, limit float64) float64 {
	if inherent <= limit {
		return 0
	}
	return (inherent - limit) / inherent
}

// ActualGap scores row as-is and with driver set to safe. It returns the relative
// reduction clamped to [0,1] together with the inherent score.
//
// An unknown driver is a configuration_error and a failed model call is a
// prediction_failure; neither is retried.
func (a *AdequacyEvaluator) ActualGap(ctx context.Context, model RiskModel, row models.Row, driver string, safe float64) (float64, float64, error) {
	counterfactual, err := row.With(driver, safe)
	if err != nil {
		return 0, 0, err
	}

	inherent, err := a.predict(ctx, model, row)
	if err != nil {
		return 0, 0, err
	}
	if inherent <= 0 {
		a.log.Debug(ctx, "inherent risk is not positive, no gap to close", logger.Fields{"inherent": inherent})
		return 0, inherent, nil
	}

	residual, err := a.predict(ctx, model, counterfactual)
	if err != nil {
		return 0, 0, err
	}

	gap := (inherent - residual) / inherent
	gap = math.Max(0, math.Min(1, gap))

	a.log.Debug(ctx, "counterfactual evaluated", logger.Fields{
		"driver":     driver,
		"safe_value": safe,
		"inherent":   inherent,
		"residual":   residual,
		"actual_gap": gap,
	})
	return gap, inherent, nil
}

// Evaluate combines ActualGap and RequiredGap into a RiskAssessment.
func (a *AdequacyEvaluator) Evaluate(ctx context.Context, model RiskModel, row models.Row, driver string, safe, limit float64) (models.RiskAssessment, error) {
	actual, inherent, err := a.ActualGap(ctx, model, row, driver, safe)
	if err != nil {
		return models.RiskAssessment{}, err
	}
	return models.RiskAssessment{
		InherentRisk: inherent,
		RequiredGap:  a.RequiredGap(inherent, limit),
		ActualGap:    actual,
	}, nil
}

func (a *AdequacyEvaluator) predict(ctx context.Context, model RiskModel, row models.Row) (float64, error) {
	callCtx := ctx
	if a.predictTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.predictTimeout)
		defer cancel()
	}

	v, err := model.Predict(callCtx, row)
	if err != nil {
		return 0, errors.ErrPredictionFailure("risk model call failed").WithCause(err)
	}
	if err := callCtx.Err(); err != nil {
		return 0, errors.ErrPredictionFailure("risk model call timed out").WithCause(err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.ErrPredictionFailure(fmt.Sprintf("risk model returned non-finite score %v", v))
	}
	return v, nil
}
