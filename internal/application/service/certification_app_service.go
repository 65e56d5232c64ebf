// Package service provides application-level services that orchestrate domain services and infrastructure adapters
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/turtacn/pnet/internal/application/dto"
	"github.com/turtacn/pnet/internal/domain/models"
	domainService "github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/internal/infrastructure/monitoring"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
	"github.com/turtacn/pnet/pkg/utils"
)

// CertificationAppService defines the certification pipeline use cases
type CertificationAppService interface {
	// Calibrate ranks features, explains the risk model and derives significance thresholds.
	// The result replaces the current calibration.
	Calibrate(ctx context.Context) (*dto.CalibrationResult, error)

	// Current returns the calibration assessments are evaluated against
	Current(ctx context.Context) (*dto.CalibrationResult, error)

	// Assess rates one control against one asset and renders signed audit evidence
	Assess(ctx context.Context, req *dto.AssessmentRequest) (*dto.AssessmentResponse, error)

	// Controls lists the control catalog
	Controls(ctx context.Context) (*dto.ControlListResponse, error)

	// ApplyPolicy swaps the certification policy and re-derives the current thresholds
	ApplyPolicy(ctx context.Context, policy models.Policy) error
}

// CertificationDeps collects the collaborators of the certification service.
// Signer, Publisher, Tracer and Metrics are optional.
type CertificationDeps struct {
	Policy         models.Policy
	Weights        models.ImportanceWeights
	TopN           int
	SampleRows     int
	Explainer      domainService.ExplainerConfig
	PredictTimeout time.Duration

	Dataset   domainService.DatasetSource
	Producers []domainService.ImportanceProducer
	Model     domainService.RiskModel
	ModelName string
	Catalog   domainService.ControlCatalog
	Signer    domainService.EvidenceSigner
	Publisher domainService.EvidencePublisher

	Tracer  *monitoring.TracingManager
	Metrics domainService.Metrics
	Logger  logger.Logger
}

// calibration is the state assessments read; it is replaced, never mutated.
type calibration struct {
	result   *dto.CalibrationResult
	baseline models.Row
}

// certificationAppServiceImpl is the concrete implementation of CertificationAppService
type certificationAppServiceImpl struct {
	deps CertificationDeps

	aggregator *domainService.ImportanceAggregator
	explainer  *domainService.Explainer
	calibrator *domainService.ThresholdCalibrator
	evaluator  *domainService.AdequacyEvaluator

	mu       sync.RWMutex
	policy   models.Policy
	renderer *domainService.EvidenceRenderer
	current  *calibration

	now   func() time.Time
	newID func() uuid.UUID
	log   logger.Logger
}

// NewCertificationAppService validates deps and creates the service
func NewCertificationAppService(deps CertificationDeps) (CertificationAppService, error) {
	if deps.Dataset == nil || deps.Model == nil || deps.Catalog == nil {
		return nil, errors.ErrConfiguration("dataset, risk model and control catalog are required")
	}
	if len(deps.Producers) == 0 {
		return nil, errors.ErrConfiguration("at least one importance producer is required")
	}
	if err := deps.Policy.Validate(); err != nil {
		return nil, err
	}
	if err := deps.Weights.Validate(); err != nil {
		return nil, err
	}
	if err := deps.Explainer.Validate(); err != nil {
		return nil, err
	}
	if deps.TopN < 1 {
		return nil, errors.ErrConfiguration(fmt.Sprintf("top_n %d must be >= 1", deps.TopN))
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoopLogger()
	}
	if deps.Metrics == nil {
		deps.Metrics = domainService.NoopMetrics{}
	}
	if deps.Tracer == nil {
		deps.Tracer = monitoring.NewNoopTracingManager()
	}
	if deps.SampleRows < 1 {
		deps.SampleRows = constants.DefaultSampleRows
	}
	if deps.ModelName == "" {
		deps.ModelName = string(constants.ModelKindHeuristic)
	}

	log := deps.Logger
	return &certificationAppServiceImpl{
		deps:       deps,
		aggregator: domainService.NewImportanceAggregator(log),
		explainer:  domainService.NewExplainer(deps.Explainer, log, deps.Metrics),
		calibrator: domainService.NewThresholdCalibrator(log),
		evaluator:  domainService.NewAdequacyEvaluator(log, deps.PredictTimeout),
		policy:     deps.Policy,
		renderer:   domainService.NewEvidenceRenderer(deps.Policy),
		now:        time.Now,
		newID:      uuid.New,
		log:        log.WithComponent("CertificationAppService"),
	}, nil
}

// Calibrate implements CertificationAppService
func (s *certificationAppServiceImpl) Calibrate(ctx context.Context) (*dto.CalibrationResult, error) {
	ctx, span := s.deps.Tracer.StartStage(ctx, "certification.calibrate",
		attribute.String("model", s.deps.ModelName),
	)
	defer span.End()
	start := s.now()

	// 1. Load and validate the dataset
	x, y, err := s.deps.Dataset.Load(ctx)
	if err != nil {
		return nil, s.fail(ctx, "failed to load dataset", err)
	}
	if err := x.Validate(); err != nil {
		return nil, s.fail(ctx, "invalid feature matrix", err)
	}
	if err := x.ValidateTarget(y); err != nil {
		return nil, s.fail(ctx, "invalid target vector", err)
	}

	// 2. Fit every importance producer
	vectors := make(map[string]models.ImportanceVector, len(s.deps.Producers))
	for _, p := range s.deps.Producers {
		v, err := s.runProducer(ctx, p, x, y)
		if err != nil {
			return nil, s.fail(ctx, "importance producer failed", err)
		}
		vectors[p.Method()] = v
	}

	// 3. Rank features
	topN := s.deps.TopN
	if topN > x.NumColumns() {
		topN = x.NumColumns()
	}
	ranked, combined, err := s.aggregator.Combine(x.Columns, vectors, s.deps.Weights, topN)
	if err != nil {
		return nil, s.fail(ctx, "failed to combine importance vectors", err)
	}

	// 4. Explain the model over the head of the dataset, restricted to the ranked features
	sample := x.Head(s.deps.SampleRows)
	projected := make([]models.Row, len(sample))
	for i, r := range sample {
		if projected[i], err = r.Project(ranked); err != nil {
			return nil, s.fail(ctx, "failed to project sample rows", err)
		}
	}
	explainCtx, explainSpan := s.deps.Tracer.StartStage(ctx, "certification.explain",
		attribute.Int("rows", len(projected)),
		attribute.Int("features", len(ranked)),
	)
	dist, stats, err := s.explainer.Explain(explainCtx, s.deps.Model, projected)
	explainSpan.End()
	if err != nil {
		return nil, s.fail(ctx, "explanation failed", err)
	}

	// 5. Derive thresholds and publish the calibration
	s.mu.Lock()
	defer s.mu.Unlock()

	result := &dto.CalibrationResult{
		ID:             s.newID(),
		Model:          s.deps.ModelName,
		Rows:           x.NumRows(),
		Columns:        x.Columns,
		RankedFeatures: ranked,
		Combined:       combined,
		Distribution:   dist,
		Thresholds:     s.calibrator.Calibrate(dist, s.policy.ZScore),
		Stats:          stats,
		Policy:         s.policy,
		CalibratedAt:   s.now().UTC(),
	}
	result.Duration = s.now().Sub(start).String()
	s.current = &calibration{result: result, baseline: x.Row(0)}

	s.log.Info(ctx, "calibration completed", logger.Fields{
		"calibration_id": result.ID.String(),
		"rows":           result.Rows,
		"ranked":         len(ranked),
		"t_critical":     result.Thresholds.Critical,
		"t_material":     result.Thresholds.Material,
		"failures":       stats.Failures,
		"duration":       result.Duration,
	})
	return result, nil
}

func (s *certificationAppServiceImpl) runProducer(ctx context.Context, p domainService.ImportanceProducer, x models.FeatureMatrix, y models.TargetVector) (models.ImportanceVector, error) {
	ctx, span := s.deps.Tracer.StartStage(ctx, "certification.importance",
		attribute.String("method", p.Method()),
	)
	defer span.End()
	return p.Importance(ctx, x, y)
}

// Current implements CertificationAppService
func (s *certificationAppServiceImpl) Current(_ context.Context) (*dto.CalibrationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, errors.ErrNotFound("calibration", "current")
	}
	return s.current.result, nil
}

// Assess implements CertificationAppService
func (s *certificationAppServiceImpl) Assess(ctx context.Context, req *dto.AssessmentRequest) (*dto.AssessmentResponse, error) {
	// 1. Validate request payload
	if err := utils.ValidateStruct(req); err != nil {
		s.log.Warn(ctx, "invalid assessment request", logger.Fields{"error": err.Error()})
		return nil, err
	}

	ctx, span := s.deps.Tracer.StartStage(ctx, "certification.assess",
		attribute.String("asset", req.AssetName),
		attribute.String("control", req.ControlID),
	)
	defer span.End()

	// 2. Snapshot the calibration and policy
	s.mu.RLock()
	cal, policy, renderer := s.current, s.policy, s.renderer
	s.mu.RUnlock()
	if cal == nil {
		return nil, errors.ErrInvalidRequest("no calibration available, run a calibration first")
	}

	// 3. Resolve the control and build the asset row
	control, err := s.deps.Catalog.Get(ctx, req.ControlID)
	if err != nil {
		return nil, s.fail(ctx, "failed to resolve control", err)
	}
	row, err := applyOverrides(cal.baseline, req.Features)
	if err != nil {
		return nil, err
	}

	// 4. Measure the gaps
	risk, err := s.evaluator.Evaluate(ctx, s.deps.Model, row, control.DriverFeature, control.SafeValue, policy.SafetyLimit)
	if err != nil {
		return nil, s.fail(ctx, "adequacy evaluation failed", err)
	}

	importance, ok := cal.result.Distribution.Get(control.DriverFeature)
	if !ok {
		s.log.Warn(ctx, "driver feature was not explained, importance taken as 0", logger.Fields{
			"driver":         control.DriverFeature,
			"calibration_id": cal.result.ID.String(),
		})
	}

	// 5. Classify and render
	in, verdict := renderer.Certify(domainService.EvidenceInput{
		AssetName:     req.AssetName,
		ControlName:   control.Name,
		DriverFeature: control.DriverFeature,
		Importance:    importance,
		SafetyLimit:   policy.SafetyLimit,
		Risk:          risk,
	}, cal.result.Thresholds)

	assessment := models.Assessment{
		ID:            s.newID(),
		AssetName:     req.AssetName,
		ControlID:     control.ID,
		ControlName:   control.Name,
		DriverFeature: control.DriverFeature,
		Importance:    importance,
		DriverClass:   in.DriverClass,
		Risk:          risk,
		RiskLevel:     policy.RiskLevels.Classify(risk.InherentRisk),
		Thresholds:    cal.result.Thresholds,
		Policy:        policy,
		Verdict:       verdict,
		EvaluatedAt:   s.now().UTC(),
	}
	s.deps.Metrics.RecordAssessment(verdict.Verdict)
	resp := &dto.AssessmentResponse{Assessment: assessment}

	// 6. Sign and publish
	if s.deps.Signer != nil {
		resp.Signature, resp.Attestation, err = s.deps.Signer.Sign(ctx, &assessment)
		if err != nil {
			return nil, s.fail(ctx, "failed to sign assessment", err)
		}
	}
	if s.deps.Publisher != nil {
		event := &models.EvidenceEvent{
			EventType:   constants.EventTypeAssessmentRendered,
			Assessment:  assessment,
			Signature:   resp.Signature,
			Attestation: resp.Attestation,
			Timestamp:   s.now().UTC(),
		}
		if err := s.deps.Publisher.Publish(ctx, event); err != nil {
			s.log.Warn(ctx, "failed to publish evidence event", logger.Fields{
				"assessment_id": assessment.ID.String(),
				"error":         err.Error(),
			})
		} else {
			resp.Published = true
		}
	}

	s.log.Info(ctx, "assessment rendered", logger.Fields{
		"assessment_id": assessment.ID.String(),
		"asset":         assessment.AssetName,
		"control":       assessment.ControlID,
		"verdict":       string(verdict.Verdict),
		"inherent_risk": risk.InherentRisk,
		"required_gap":  risk.RequiredGap,
		"actual_gap":    risk.ActualGap,
	})
	return resp, nil
}

// Controls implements CertificationAppService
func (s *certificationAppServiceImpl) Controls(ctx context.Context) (*dto.ControlListResponse, error) {
	controls, err := s.deps.Catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.ControlListResponse{Controls: controls, Count: len(controls)}, nil
}

// ApplyPolicy implements CertificationAppService
func (s *certificationAppServiceImpl) ApplyPolicy(ctx context.Context, policy models.Policy) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.policy = policy
	s.renderer = domainService.NewEvidenceRenderer(policy)
	if s.current != nil {
		updated := *s.current.result
		updated.Policy = policy
		updated.Thresholds = s.calibrator.Calibrate(updated.Distribution, policy.ZScore)
		s.current = &calibration{result: &updated, baseline: s.current.baseline}
	}

	s.log.Info(ctx, "certification policy applied", logger.Fields{
		"safety_limit":   policy.SafetyLimit,
		"z_score":        policy.ZScore,
		"moderate_floor": policy.ModerateFloor,
	})
	return nil
}

func (s *certificationAppServiceImpl) fail(ctx context.Context, msg string, err error) error {
	s.deps.Tracer.RecordError(ctx, err)
	if errors.ShouldLogError(err) {
		s.log.Error(ctx, msg, err)
	} else {
		s.log.Warn(ctx, msg, logger.Fields{"error": err.Error()})
	}
	return err
}

// applyOverrides sets each named feature on row. Unknown names are rejected.
func applyOverrides(row models.Row, features map[string]float64) (models.Row, error) {
	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	sort.Strings(names)

	var err error
	for _, name := range names {
		row, err = row.With(name, features[name])
		if err != nil {
			return models.Row{}, errors.ErrInvalidRequest(fmt.Sprintf("unknown feature %q", name)).
				WithMetadata("feature", name).
				WithCause(err)
		}
	}
	return row, nil
}

//Personal.AI order the ending
