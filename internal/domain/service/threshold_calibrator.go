package service

import (
	"context"
	"math"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/pkg/logger"
)

// ThresholdCalibrator derives significance thresholds from a SHAPDistribution.
type ThresholdCalibrator struct {
	log logger.Logger
}

// NewThresholdCalibrator creates a new ThresholdCalibrator.
func NewThresholdCalibrator(log logger.Logger) *ThresholdCalibrator {
	return &ThresholdCalibrator{log: log.WithComponent("ThresholdCalibrator")}
}

// Calibrate returns Material = mean and Critical = mean + z * sample standard deviation.
// A single value has zero deviation; an empty distribution yields {0, 0}.
func (c *ThresholdCalibrator) Calibrate(dist models.SHAPDistribution, z float64) models.ThresholdPair {
	values := dist.Values()
	n := len(values)
	if n == 0 {
		c.log.Warn(context.Background(), "calibrating an empty distribution")
		return models.ThresholdPair{}
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	var std float64
	if n > 1 {
		var ss float64
		for _, v := range values {
			d := v - mean
			ss += d * d
		}
		std = math.Sqrt(ss / float64(n-1))
	}

	pair := models.ThresholdPair{Critical: mean + z*std, Material: mean}
	c.log.Debug(context.Background(), "thresholds calibrated", logger.Fields{
		"features":   n,
		"z_score":    z,
		"t_critical": pair.Critical,
		"t_material": pair.Material,
	})
	return pair
}
