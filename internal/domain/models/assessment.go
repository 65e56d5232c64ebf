package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
)

// ThresholdPair holds the significance cutoffs derived from a SHAPDistribution.
type ThresholdPair struct {
	Critical float64 `json:"t_critical"`
	Material float64 `json:"t_material"`
}

// RiskAssessment is the numeric outcome of one asset-control evaluation.
type RiskAssessment struct {
	InherentRisk float64 `json:"inherent_risk"`
	RequiredGap  float64 `json:"required_gap"`
	ActualGap    float64 `json:"actual_gap"`
}

// DriverClass classifies a feature against the critical threshold.
type DriverClass string

const (
	DriverClassCritical     DriverClass = "Critical Risk Driver"
	DriverClassContributing DriverClass = "Contributing Factor"
)

// AdequacyVerdict is the final rating of a control.
type AdequacyVerdict string

const (
	VerdictAdequate   AdequacyVerdict = "Adequate"
	VerdictModerate   AdequacyVerdict = "Moderate"
	VerdictInadequate AdequacyVerdict = "Inadequate"
)

// AuditVerdict couples a verdict with its rendered evidence.
type AuditVerdict struct {
	Verdict  AdequacyVerdict `json:"verdict"`
	Evidence string          `json:"evidence"`
}

// RiskLevel buckets an inherent risk score.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// RiskLevelFloors are the lower bounds of the MEDIUM, HIGH and CRITICAL buckets.
type RiskLevelFloors struct {
	Critical float64 `mapstructure:"critical" json:"critical"`
	High     float64 `mapstructure:"high" json:"high"`
	Medium   float64 `mapstructure:"medium" json:"medium"`
}

// Classify derives the risk level for a score.
func (f RiskLevelFloors) Classify(score float64) RiskLevel {
	switch {
	case score >= f.Critical:
		return RiskLevelCritical
	case score >= f.High:
		return RiskLevelHigh
	case score >= f.Medium:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// Policy is the immutable set of policy parameters threaded into each component.
type Policy struct {
	SafetyLimit   float64         `json:"safety_limit"`
	ZScore        float64         `json:"z_score"`
	ModerateFloor float64         `json:"moderate_floor"`
	RiskLevels    RiskLevelFloors `json:"risk_levels"`
}

// DefaultPolicy returns the certification defaults.
func DefaultPolicy() Policy {
	return Policy{
		SafetyLimit:   constants.DefaultSafetyLimit,
		ZScore:        constants.DefaultZScore,
		ModerateFloor: constants.DefaultModerateFloor,
		RiskLevels: RiskLevelFloors{
			Critical: constants.RiskLevelCriticalFloor,
			High:     constants.RiskLevelHighFloor,
			Medium:   constants.RiskLevelMediumFloor,
		},
	}
}

// Validate checks the policy ranges.
func (p Policy) Validate() error {
	if p.SafetyLimit < 0 || p.SafetyLimit > 1 {
		return errors.ErrConfiguration(fmt.Sprintf("safety limit %f outside [0,1]", p.SafetyLimit))
	}
	if p.ModerateFloor < 0 || p.ModerateFloor > 1 {
		return errors.ErrConfiguration(fmt.Sprintf("moderate floor %f outside [0,1]", p.ModerateFloor))
	}
	if p.ZScore < 0 {
		return errors.ErrConfiguration(fmt.Sprintf("z-score %f must not be negative", p.ZScore))
	}
	if !(p.RiskLevels.Medium <= p.RiskLevels.High && p.RiskLevels.High <= p.RiskLevels.Critical) {
		return errors.ErrConfiguration("risk level floors must be ordered medium <= high <= critical")
	}
	return nil
}

// Assessment is the full record of one asset-control evaluation.
type Assessment struct {
	ID            uuid.UUID      `json:"id"`
	AssetName     string         `json:"asset_name"`
	ControlID     string         `json:"control_id"`
	ControlName   string         `json:"control_name"`
	DriverFeature string         `json:"driver_feature"`
	Importance    float64        `json:"importance"`
	DriverClass   DriverClass    `json:"driver_class"`
	Risk          RiskAssessment `json:"risk"`
	RiskLevel     RiskLevel      `json:"risk_level"`
	Thresholds    ThresholdPair  `json:"thresholds"`
	Policy        Policy         `json:"policy"`
	Verdict       AuditVerdict   `json:"verdict"`
	EvaluatedAt   time.Time      `json:"evaluated_at"`
}

// EvidenceEvent is the audit message published once evidence has been rendered.
type EvidenceEvent struct {
	EventType   constants.AuditEventType `json:"event_type"`
	Assessment  Assessment               `json:"assessment"`
	Signature   string                   `json:"signature,omitempty"`
	Attestation string                   `json:"attestation,omitempty"`
	Timestamp   time.Time                `json:"timestamp"`
}

//Personal.AI order the ending
