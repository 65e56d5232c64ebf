// Package dto holds the request and response shapes of the certification API.
package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/service"
)

// CalibrationResult is the outcome of one calibration run.
// CalibrationResult 是一次校准运行的结果。
type CalibrationResult struct {
	ID             uuid.UUID                `json:"id"`
	Model          string                   `json:"model"`
	Rows           int                      `json:"rows"`
	Columns        []string                 `json:"columns"`
	RankedFeatures models.RankedFeatureList `json:"ranked_features"`
	Combined       models.ImportanceVector  `json:"combined_importance"`
	Distribution   models.SHAPDistribution  `json:"distribution"`
	Thresholds     models.ThresholdPair     `json:"thresholds"`
	Stats          service.ExplainStats     `json:"explain_stats"`
	Policy         models.Policy            `json:"policy"`
	CalibratedAt   time.Time                `json:"calibrated_at"`
	Duration       string                   `json:"duration"`
}

// AssessmentRequest asks for a control adequacy verdict on one asset.
// Features override the baseline asset row by name.
// AssessmentRequest 请求对单个资产评估控制措施的充分性，Features 按名称覆盖基线资产行。
type AssessmentRequest struct {
	AssetName string             `json:"asset_name" validate:"required"`
	ControlID string             `json:"control_id" validate:"required,control_id"`
	Features  map[string]float64 `json:"features,omitempty"`
}

// AssessmentResponse is a rendered, optionally signed, assessment.
type AssessmentResponse struct {
	models.Assessment
	Signature   string `json:"signature,omitempty"`
	Attestation string `json:"attestation,omitempty"`
	Published   bool   `json:"published"`
}

// ControlListResponse lists the control catalog.
type ControlListResponse struct {
	Controls []models.Control `json:"controls"`
	Count    int              `json:"count"`
}

// HealthResponse reports service readiness.
type HealthResponse struct {
	Status     string            `json:"status"`
	Calibrated bool              `json:"calibrated"`
	Model      string            `json:"model"`
	Checks     map[string]string `json:"checks,omitempty"`
	Timestamp  int64             `json:"timestamp"`
}

//Personal.AI order the ending
