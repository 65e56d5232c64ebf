// Package dataset turns raw vulnerability observations into the engineered feature
// matrix consumed by the certification pipeline.
package dataset

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// Columns is the engineered column order shared by every source.
var Columns = []string{
	constants.FeatureBaseScore,
	constants.FeatureExploitability,
	constants.FeatureImpact,
	constants.FeatureDaysSincePublished,
	constants.FeatureExploitCountLog,
	constants.FeatureHasPublicExploit,
	constants.FeatureVendorMicrosoft,
	constants.FeatureVendorOracle,
	constants.FeatureVendorCisco,
	constants.FeatureAttackVector,
}

var attackVectorScores = map[string]float64{
	"NETWORK":          3,
	"ADJACENT_NETWORK": 2,
	"LOCAL":            1,
	"PHYSICAL":         0,
}

// FeatureEngineer derives model features from VulnerabilityRecords.
type FeatureEngineer struct {
	now func() time.Time
	log logger.Logger
}

// NewFeatureEngineer creates a FeatureEngineer. A nil clock uses time.Now.
func NewFeatureEngineer(now func() time.Time, log logger.Logger) *FeatureEngineer {
	if now == nil {
		now = time.Now
	}
	return &FeatureEngineer{now: now, log: log.WithComponent("FeatureEngineer")}
}

// Transform builds the feature matrix and the EPSS target vector.
// Missing scores and counts become 0; a missing publication date counts as published today.
// Every record must carry an EPSS target.
func (e *FeatureEngineer) Transform(ctx context.Context, records []models.VulnerabilityRecord) (models.FeatureMatrix, models.TargetVector, error) {
	if len(records) == 0 {
		return models.FeatureMatrix{}, nil, errors.ErrDegenerateInput("no vulnerability records to engineer")
	}

	now := e.now()
	rows := make([][]float64, 0, len(records))
	target := make(models.TargetVector, 0, len(records))

	for i, r := range records {
		if r.EPSS == nil {
			return models.FeatureMatrix{}, nil, errors.ErrDegenerateInput(
				fmt.Sprintf("record %d (%s) has no epss target", i, r.CVEID)).
				WithMetadata("cve_id", r.CVEID)
		}

		exploits := valueOrZero(r.ExploitCount)
		vendor := strings.ToLower(r.Vendor)

		rows = append(rows, []float64{
			valueOrZero(r.BaseScore),
			valueOrZero(r.ExploitabilityScore),
			valueOrZero(r.ImpactScore),
			daysSince(r.PublishedAt, now),
			math.Log1p(math.Max(exploits, 0)),
			indicator(exploits > 0),
			indicator(strings.Contains(vendor, "microsoft")),
			indicator(strings.Contains(vendor, "oracle")),
			indicator(strings.Contains(vendor, "cisco")),
			attackVectorScores[strings.ToUpper(strings.TrimSpace(r.AttackVector))],
		})
		target = append(target, *r.EPSS)
	}

	columns := make([]string, len(Columns))
	copy(columns, Columns)
	x := models.FeatureMatrix{Columns: columns, Rows: rows}

	if err := x.Validate(); err != nil {
		return models.FeatureMatrix{}, nil, err
	}
	if err := x.ValidateTarget(target); err != nil {
		return models.FeatureMatrix{}, nil, err
	}

	e.log.Debug(ctx, "features engineered", logger.Fields{
		"rows":    x.NumRows(),
		"columns": x.NumColumns(),
	})
	return x, target, nil
}

// FilterAssets keeps the records whose product contains any asset name, ignoring case.
// An empty asset list keeps everything.
func FilterAssets(records []models.VulnerabilityRecord, assets []string) []models.VulnerabilityRecord {
	if len(assets) == 0 {
		return records
	}
	needles := make([]string, 0, len(assets))
	for _, a := range assets {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			needles = append(needles, a)
		}
	}

	out := make([]models.VulnerabilityRecord, 0, len(records))
	for _, r := range records {
		product := strings.ToLower(r.Product)
		for _, n := range needles {
			if strings.Contains(product, n) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func daysSince(published *time.Time, now time.Time) float64 {
	if published == nil {
		return 0
	}
	return math.Floor(now.Sub(*published).Hours() / 24)
}

func valueOrZero(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return 0
	}
	return *v
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

//Personal.AI order the ending
