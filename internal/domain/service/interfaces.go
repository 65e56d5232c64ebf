// Package service holds the certification pipeline: importance aggregation, model
// explanation, threshold calibration, adequacy evaluation and evidence rendering.
package service

import (
	"context"
	"time"

	"github.com/turtacn/pnet/internal/domain/models"
)

//go:generate mockery --name RiskModel --output mocks --outpkg mocks
// RiskModel is the black-box scorer being explained and certified.
// RiskModel 是被解释和认证的黑盒风险评分模型。
type RiskModel interface {
	// Predict returns a risk score in [0,1] for one feature row.
	// It must honour ctx cancellation; a timed-out call is reported as a failure.
	// Predict 为单个特征行返回 [0,1] 区间的风险分数。
	Predict(ctx context.Context, row models.Row) (float64, error)
}

// PredictFunc adapts a plain function to the RiskModel interface.
type PredictFunc func(ctx context.Context, row models.Row) (float64, error)

// Predict calls f(ctx, row).
func (f PredictFunc) Predict(ctx context.Context, row models.Row) (float64, error) {
	return f(ctx, row)
}

//go:generate mockery --name ImportanceProducer --output mocks --outpkg mocks
// ImportanceProducer fits one importance signal over the feature matrix.
// ImportanceProducer 在特征矩阵上拟合一种特征重要性信号。
type ImportanceProducer interface {
	// Method returns the method id used as the weight key.
	Method() string

	// Importance returns a non-negative score for every column of x.
	// Importance 为 x 的每一列返回非负分数。
	Importance(ctx context.Context, x models.FeatureMatrix, y models.TargetVector) (models.ImportanceVector, error)
}

//go:generate mockery --name DatasetSource --output mocks --outpkg mocks
// DatasetSource supplies the engineered feature matrix and its target.
// DatasetSource 提供经过特征工程的特征矩阵及其目标向量。
type DatasetSource interface {
	Load(ctx context.Context) (models.FeatureMatrix, models.TargetVector, error)
}

//go:generate mockery --name ControlCatalog --output mocks --outpkg mocks
// ControlCatalog resolves mitigating controls by id.
// ControlCatalog 根据 ID 解析缓解控制措施。
type ControlCatalog interface {
	Get(ctx context.Context, id string) (models.Control, error)
	List(ctx context.Context) ([]models.Control, error)
}

//go:generate mockery --name EvidencePublisher --output mocks --outpkg mocks
// EvidencePublisher ships rendered evidence to the audit trail.
// EvidencePublisher 将生成的审计证据发送到审计轨迹。
type EvidencePublisher interface {
	Publish(ctx context.Context, event *models.EvidenceEvent) error
	Close() error
}

//go:generate mockery --name EvidenceSigner --output mocks --outpkg mocks
// EvidenceSigner produces an integrity signature and a signed attestation for an assessment.
// EvidenceSigner 为评估结果生成完整性签名和签名证明。
type EvidenceSigner interface {
	Sign(ctx context.Context, assessment *models.Assessment) (signature string, attestation string, err error)
}

// SecretStore resolves named secrets such as API keys and signing keys.
// SecretStore 按名称解析密钥，例如 API 密钥和签名密钥。
type SecretStore interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// PredictionCache memoizes risk model predictions by row fingerprint.
// PredictionCache 按特征行指纹缓存风险模型预测结果。
type PredictionCache interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, value float64, ttl time.Duration) error
}

// Metrics records pipeline business metrics.
// This abstraction keeps the domain independent of the Prometheus implementation.
// Metrics 记录流水线业务指标。
type Metrics interface {
	// RecordPrediction records one risk model call.
	RecordPrediction(model string, success bool, duration time.Duration)

	// RecordExplainerFailure records a failed or timed-out explainer sample call.
	RecordExplainerFailure()

	// RecordExplainRun records a completed explanation.
	RecordExplainRun(rows, features int, duration time.Duration)

	// RecordAssessment records a rendered verdict.
	RecordAssessment(verdict models.AdequacyVerdict)

	// RecordCacheAccess records a prediction cache hit or miss.
	RecordCacheAccess(cacheType string, hit bool)
}

// NoopMetrics discards every observation.
type NoopMetrics struct{}

func (NoopMetrics) RecordPrediction(string, bool, time.Duration) {}
func (NoopMetrics) RecordExplainerFailure()                      {}
func (NoopMetrics) RecordExplainRun(int, int, time.Duration)     {}
func (NoopMetrics) RecordAssessment(models.AdequacyVerdict)      {}
func (NoopMetrics) RecordCacheAccess(string, bool)               {}

//Personal.AI order the ending
