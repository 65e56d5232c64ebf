// Package constants defines system-wide constants for the P-NET certification service.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Importance Method Constants
// ================================================================================

const (
	// MethodRandomForest identifies the bagged tree-ensemble importance signal
	MethodRandomForest = "random_forest"

	// MethodGradientBoosting identifies the boosted tree-ensemble importance signal
	MethodGradientBoosting = "gradient_boosting"

	// MethodElasticNet identifies the regularized linear importance signal
	MethodElasticNet = "elastic_net"
)

// WeightSumTolerance is the accepted deviation of an importance weight set from 1.0
const WeightSumTolerance = 1e-6

// DefaultTopN is the number of ranked features kept after aggregation
const DefaultTopN = 25

// ================================================================================
// Policy Defaults
// ================================================================================

const (
	// DefaultSafetyLimit is the maximum acceptable risk score
	DefaultSafetyLimit = 0.69

	// DefaultZScore scales the standard deviation in the critical threshold
	DefaultZScore = 1.0

	// DefaultModerateFloor is the minimum gap closure rated Moderate
	DefaultModerateFloor = 0.10

	// RiskLevelCriticalFloor is the inherent risk at or above which an asset is CRITICAL
	RiskLevelCriticalFloor = 0.9

	// RiskLevelHighFloor is the inherent risk at or above which an asset is HIGH
	RiskLevelHighFloor = 0.7

	// RiskLevelMediumFloor is the inherent risk at or above which an asset is MEDIUM
	RiskLevelMediumFloor = 0.4
)

// ================================================================================
// Explainer Defaults
// ================================================================================

const (
	// DefaultSamplesPerFeature is the Monte-Carlo budget per (row, feature) pair
	DefaultSamplesPerFeature = 32

	// DefaultSampleRows is the number of dataset rows handed to the explainer
	DefaultSampleRows = 50

	// DefaultExplainerSeed seeds the perturbation streams
	DefaultExplainerSeed = 42

	// DefaultExplainerWorkers is the number of concurrent attribution workers
	DefaultExplainerWorkers = 1

	// DefaultPredictTimeout bounds a single risk model call
	DefaultPredictTimeout = 5 * time.Second

	// DefaultMaxFailureRate is the tolerated share of failed model calls
	DefaultMaxFailureRate = 1.0
)

// ================================================================================
// Risk Model Identifiers
// ================================================================================

// ModelKind selects the RiskModel implementation
type ModelKind string

const (
	// ModelKindHeuristic is the in-process CVSS heuristic
	ModelKindHeuristic ModelKind = "heuristic"

	// ModelKindOpenAI scores rows through a (fine-tuned) chat completion model
	ModelKindOpenAI ModelKind = "openai"

	// ModelKindGRPC scores rows through a remote gRPC scoring service
	ModelKindGRPC ModelKind = "grpc"
)

// RiskExpertPersona is the system prompt used for LLM-backed scoring
const RiskExpertPersona = "You are a cybersecurity risk expert."

const (
	// ScorerServiceName is the gRPC service exposing a RiskModel
	ScorerServiceName = "pnet.scoring.v1.RiskScorer"

	// ScorerPredictMethod is the full method name of the unary Predict call
	ScorerPredictMethod = "/" + ScorerServiceName + "/Predict"
)

// ================================================================================
// Feature Names
// ================================================================================

const (
	FeatureBaseScore          = "base_score"
	FeatureExploitability     = "exploitability_score"
	FeatureImpact             = "impact_score"
	FeatureDaysSincePublished = "days_since_published"
	FeatureExploitCountLog    = "exploit_count_log"
	FeatureHasPublicExploit   = "has_public_exploit"
	FeatureVendorMicrosoft    = "vendor_microsoft"
	FeatureVendorOracle       = "vendor_oracle"
	FeatureVendorCisco        = "vendor_cisco"
	FeatureAttackVector       = "attack_vector"
)

// ================================================================================
// Error Code Constants
// ================================================================================

// ErrorCode represents the machine-readable class of a failure
type ErrorCode string

const (
	// ErrCodeConfiguration covers malformed weights, mismatched feature domains and out-of-range parameters
	ErrCodeConfiguration ErrorCode = "configuration_error"

	// ErrCodePredictionFailure covers a risk model call that raised or timed out
	ErrCodePredictionFailure ErrorCode = "prediction_failure"

	// ErrCodeExplainerExhausted is raised when too many explainer model calls failed
	ErrCodeExplainerExhausted ErrorCode = "explainer_exhausted"

	// ErrCodeDegenerateInput covers empty feature matrices or target vectors
	ErrCodeDegenerateInput ErrorCode = "degenerate_input"

	// ErrCodeInvalidRequest indicates a malformed API or CLI request
	ErrCodeInvalidRequest ErrorCode = "invalid_request"

	// ErrCodeNotFound indicates an unknown asset, control or calibration
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeInternal indicates an unexpected server-side failure
	ErrCodeInternal ErrorCode = "internal_error"

	// ErrCodeUnavailable indicates a dependency (cache, broker, vault) is unreachable
	ErrCodeUnavailable ErrorCode = "temporarily_unavailable"

	// ErrCodeRateLimited indicates the caller exceeded a request budget
	ErrCodeRateLimited ErrorCode = "rate_limited"
)

// ================================================================================
// Audit Event Type Constants
// ================================================================================

// AuditEventType represents different types of auditable events
type AuditEventType string

const (
	// EventTypeAssessmentRendered is emitted once evidence text has been produced
	EventTypeAssessmentRendered AuditEventType = "assessment_rendered"

	// EventTypeCalibrationCompleted is emitted after thresholds are recalibrated
	EventTypeCalibrationCompleted AuditEventType = "calibration_completed"
)

// ================================================================================
// Cache Key Prefix Constants
// ================================================================================

const (
	// CacheKeyPrefixPrediction is the prefix for memoized risk predictions
	CacheKeyPrefixPrediction = "pnet:prediction:"
)

// ================================================================================
// Vault Path Constants
// ================================================================================

const (
	// VaultSecretPathPrefix is the base path for P-NET secrets in Vault
	VaultSecretPathPrefix = "secret/data/pnet"
)

// ================================================================================
// Service Configuration Constants
// ================================================================================

const (
	// ServiceName identifies this service in tokens, traces and metrics
	ServiceName = "pnet"

	// DefaultServicePort is the default HTTP service port
	DefaultServicePort = 8080

	// DefaultRequestTimeout is the default request timeout (5 seconds)
	DefaultRequestTimeout = 5 * time.Second

	// DefaultShutdownTimeout is the graceful shutdown timeout (30 seconds)
	DefaultShutdownTimeout = 30 * time.Second
)

// ================================================================================
// Logging Constants
// ================================================================================

// LogLevel represents the severity level of log messages
type LogLevel string

const (
	// LogLevelDebug is the most verbose logging level
	LogLevelDebug LogLevel = "debug"

	// LogLevelInfo is the standard informational logging level
	LogLevelInfo LogLevel = "info"

	// LogLevelWarn indicates potential issues
	LogLevelWarn LogLevel = "warn"

	// LogLevelError indicates errors that need attention
	LogLevelError LogLevel = "error"
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey represents keys used in context.Context
type ContextKey string

const (
	// ContextKeyRequestID is the key for request ID in context
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyTraceID is the key for distributed trace ID in context
	ContextKeyTraceID ContextKey = "trace_id"

	// ContextKeyAssessmentID is the key for the assessment being evaluated
	ContextKeyAssessmentID ContextKey = "assessment_id"
)

//Personal.AI order the ending
