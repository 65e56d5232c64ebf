package service

import (
	"fmt"
	"strings"

	"github.com/turtacn/pnet/internal/domain/models"
)

// EvidenceInput carries every number and label the evidence text is built from.
type EvidenceInput struct {
	AssetName     string
	ControlName   string
	DriverFeature string
	Importance    float64
	SafetyLimit   float64
	Risk          models.RiskAssessment
	DriverClass   models.DriverClass
	Verdict       models.AdequacyVerdict
}

var impactStatements = map[models.AdequacyVerdict]string{
	models.VerdictAdequate:   "effectively transitions the asset to the safety target",
	models.VerdictModerate:   "provides mitigation but fails to fully bridge the safety gap",
	models.VerdictInadequate: "fails to impact the risk posture materially",
}

// EvidenceRenderer classifies drivers and controls and renders the audit evidence text.
type EvidenceRenderer struct {
	moderateFloor float64
}

// NewEvidenceRenderer creates a new EvidenceRenderer using the policy's moderate floor.
func NewEvidenceRenderer(policy models.Policy) *EvidenceRenderer {
	return &EvidenceRenderer{moderateFloor: policy.ModerateFloor}
}

// ClassifyDriver labels a feature as a critical driver when its importance reaches
// the critical threshold.
func (r *EvidenceRenderer) ClassifyDriver(importance float64, thresholds models.ThresholdPair) models.DriverClass {
	if importance >= thresholds.Critical {
		return models.DriverClassCritical
	}
	return models.DriverClassContributing
}

// ClassifyAdequacy rates a control by comparing its actual gap closure to the required one.
func (r *EvidenceRenderer) ClassifyAdequacy(actual, required float64) models.AdequacyVerdict {
	switch {
	case actual >= required:
		return models.VerdictAdequate
	case actual >= r.moderateFloor:
		return models.VerdictModerate
	default:
		return models.VerdictInadequate
	}
}

// Render produces the four-section evidence text. Output is a pure function of in.
func (r *EvidenceRenderer) Render(in EvidenceInput) string {
	req := in.Risk.RequiredGap * 100
	act := in.Risk.ActualGap * 100

	comparator := "<"
	if in.Verdict == models.VerdictAdequate {
		comparator = "=>"
	}

	lines := []string{
		fmt.Sprintf("AUDIT EVIDENCE FOR ASSET: [%s]", in.AssetName),
		fmt.Sprintf("1. Risk Analysis: The risk score (%.3f) is driven by [%s] (Importance: %.3f), classified as a **%s**.",
			in.Risk.InherentRisk, in.DriverFeature, in.Importance, in.DriverClass),
		fmt.Sprintf("2. Requirement: To reach the safety limit (%.3f), a reduction of **%.1f%%** is required.",
			in.SafetyLimit, req),
		fmt.Sprintf("3. Performance: Control [%s] demonstrates an actual gap closure of **%.1f%%**.",
			in.ControlName, act),
		fmt.Sprintf("4. Conclusion: Since %.1f%% %s %.1f%%, the control is rated as **%s**. It %s.",
			act, comparator, req, in.Verdict, impactStatements[in.Verdict]),
	}
	return strings.Join(lines, "\n")
}

// Certify classifies the driver and the control, then renders the evidence.
// The returned input carries the derived DriverClass and Verdict.
func (r *EvidenceRenderer) Certify(in EvidenceInput, thresholds models.ThresholdPair) (EvidenceInput, models.AuditVerdict) {
	in.DriverClass = r.ClassifyDriver(in.Importance, thresholds)
	in.Verdict = r.ClassifyAdequacy(in.Risk.ActualGap, in.Risk.RequiredGap)
	return in, models.AuditVerdict{Verdict: in.Verdict, Evidence: r.Render(in)}
}
