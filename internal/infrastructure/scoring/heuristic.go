// Package scoring provides the RiskModel implementations: an in-process CVSS
// heuristic, an OpenAI chat-completion scorer and a remote gRPC scorer.
package scoring

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
)

const (
	heuristicDefaultBase  = 5.0
	heuristicBaseWeight   = 0.08
	heuristicExploitBoost = 0.2
)

// Heuristic scores a row as 0.08·base_score + 0.2·has_public_exploit, clamped to [0,1].
type Heuristic struct{}

// NewHeuristic creates the heuristic model.
func NewHeuristic() *Heuristic { return &Heuristic{} }

// Predict implements service.RiskModel.
func (Heuristic) Predict(ctx context.Context, row models.Row) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.WrapError(err, constants.ErrCodePredictionFailure, "heuristic prediction cancelled")
	}
	base := row.GetOr(constants.FeatureBaseScore, heuristicDefaultBase)
	exploit := row.GetOr(constants.FeatureHasPublicExploit, 0)
	return clamp01(base*heuristicBaseWeight + exploit*heuristicExploitBoost), nil
}

// BuildPrompt renders the structured scoring prompt for one row.
func BuildPrompt(row models.Row) string {
	publicExploit := "No"
	if row.GetOr(constants.FeatureHasPublicExploit, 0) == 1 {
		publicExploit = "Yes"
	}
	vendor := "Other"
	if row.GetOr(constants.FeatureVendorMicrosoft, 0) == 1 {
		vendor = "Microsoft"
	}

	return fmt.Sprintf(
		"Analyze vulnerability risk.\n"+
			"Details: Base Score=%s, Exploitability=%s.\n"+
			"Context: Public Exploit=%s, Vendor=%s, Vector=%s.\n"+
			"Task: Predict exploitation probability (0.0-1.0).",
		formatNumber(row.GetOr(constants.FeatureBaseScore, 0)),
		formatNumber(row.GetOr(constants.FeatureExploitability, 0)),
		publicExploit,
		vendor,
		formatNumber(row.GetOr(constants.FeatureAttackVector, 0)),
	)
}

// ParseScore reads a model reply as a probability in [0,1].
func ParseScore(reply string) (float64, error) {
	s := strings.TrimSpace(reply)
	s = strings.TrimSuffix(s, ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.WrapError(err, constants.ErrCodePredictionFailure, fmt.Sprintf("model reply %q is not a number", reply))
	}
	if math.IsNaN(v) || v < 0 || v > 1 {
		return 0, errors.ErrPredictionFailure(fmt.Sprintf("model reply %v outside [0,1]", v))
	}
	return v, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

//Personal.AI order the ending
