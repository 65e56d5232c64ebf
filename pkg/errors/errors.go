// Package errors defines custom error types and error handling utilities for the P-NET certification service.
// This package provides structured error types that map to pipeline failure classes and HTTP status codes.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/turtacn/pnet/pkg/constants"
)

// ================================================================================
// Base Error Interface
// ================================================================================

// PNetError represents a structured error with additional metadata
type PNetError interface {
	error

	// Code returns the failure class
	Code() constants.ErrorCode

	// HTTPStatus returns the HTTP status code
	HTTPStatus() int

	// Description returns a human-readable description
	Description() string

	// Unwrap returns the underlying error for error chain support
	Unwrap() error

	// WithCause adds a cause error to the error chain
	WithCause(cause error) PNetError

	// WithMetadata adds additional context metadata
	WithMetadata(key string, value interface{}) PNetError

	// Metadata returns all metadata
	Metadata() map[string]interface{}
}

// ================================================================================
// Base Error Implementation
// ================================================================================

// baseError is the internal implementation of PNetError
type baseError struct {
	code        constants.ErrorCode
	httpStatus  int
	description string
	message     string
	cause       error
	metadata    map[string]interface{}
}

// Error implements the error interface
func (e *baseError) Error() string {
	msg := e.message
	if msg == "" {
		msg = e.description
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Code returns the failure class
func (e *baseError) Code() constants.ErrorCode {
	return e.code
}

// HTTPStatus returns the HTTP status code
func (e *baseError) HTTPStatus() int {
	return e.httpStatus
}

// Description returns the error description
func (e *baseError) Description() string {
	return e.description
}

// Unwrap returns the underlying cause error
func (e *baseError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause error to the error chain
func (e *baseError) WithCause(cause error) PNetError {
	e.cause = cause
	return e
}

// WithMetadata adds additional context metadata
func (e *baseError) WithMetadata(key string, value interface{}) PNetError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

// Metadata returns all metadata
func (e *baseError) Metadata() map[string]interface{} {
	return e.metadata
}

// ================================================================================
// Error Constructor
// ================================================================================

// NewError creates a new PNetError with the specified parameters
func NewError(code constants.ErrorCode, httpStatus int, description string, message string) PNetError {
	return &baseError{
		code:        code,
		httpStatus:  httpStatus,
		description: description,
		message:     message,
		metadata:    make(map[string]interface{}),
	}
}

// ================================================================================
// Predefined Error Constructors
// ================================================================================

// ErrConfiguration creates a configuration_error. The pipeline does not proceed.
func ErrConfiguration(message string) PNetError {
	return NewError(
		constants.ErrCodeConfiguration,
		http.StatusUnprocessableEntity,
		"The pipeline configuration is malformed: weights, feature domains or numeric parameters are out of range.",
		message,
	)
}

// ErrPredictionFailure creates a prediction_failure error for a single model call
func ErrPredictionFailure(message string) PNetError {
	return NewError(
		constants.ErrCodePredictionFailure,
		http.StatusBadGateway,
		"The risk model failed to produce a prediction or exceeded its timeout.",
		message,
	)
}

// ErrExplainerExhausted creates an explainer_exhausted error
func ErrExplainerExhausted(failures, evaluations int) PNetError {
	return NewError(
		constants.ErrCodeExplainerExhausted,
		http.StatusBadGateway,
		"The explainer exceeded its tolerated rate of failed risk model calls.",
		fmt.Sprintf("explainer exhausted: %d of %d model calls failed", failures, evaluations),
	).WithMetadata("failures", failures).
		WithMetadata("evaluations", evaluations)
}

// ErrDegenerateInput creates a degenerate_input error
func ErrDegenerateInput(message string) PNetError {
	return NewError(
		constants.ErrCodeDegenerateInput,
		http.StatusUnprocessableEntity,
		"The input data is empty or malformed and would produce undefined numbers.",
		message,
	)
}

// ErrInvalidRequest creates an invalid_request error
func ErrInvalidRequest(message string) PNetError {
	return NewError(
		constants.ErrCodeInvalidRequest,
		http.StatusBadRequest,
		"The request is missing a required parameter, includes an invalid parameter value, or is otherwise malformed.",
		message,
	)
}

// ErrNotFound creates a not_found error
func ErrNotFound(resource, id string) PNetError {
	return NewError(
		constants.ErrCodeNotFound,
		http.StatusNotFound,
		"The requested resource was not found.",
		fmt.Sprintf("%s not found: %s", resource, id),
	).WithMetadata("resource", resource).
		WithMetadata("id", id)
}

// ErrInternal creates an internal_error
func ErrInternal(message string) PNetError {
	return NewError(
		constants.ErrCodeInternal,
		http.StatusInternalServerError,
		"The service encountered an unexpected condition that prevented it from fulfilling the request.",
		message,
	)
}

// ErrUnavailable creates a temporarily_unavailable error
func ErrUnavailable(dependency string) PNetError {
	return NewError(
		constants.ErrCodeUnavailable,
		http.StatusServiceUnavailable,
		"A dependency of the service is currently unreachable.",
		fmt.Sprintf("%s is unavailable", dependency),
	).WithMetadata("dependency", dependency)
}

// ErrRateLimited creates a rate_limited error
func ErrRateLimited(message string) PNetError {
	return NewError(
		constants.ErrCodeRateLimited,
		http.StatusTooManyRequests,
		"The request budget for this endpoint is exhausted, retry later.",
		message,
	)
}

// ================================================================================
// Domain-Specific Error Constructors
// ================================================================================

// ErrFeatureDomainMismatch reports a per-method importance vector whose keys differ from the column set
func ErrFeatureDomainMismatch(method string, missing, extra []string) PNetError {
	return ErrConfiguration(fmt.Sprintf("importance vector %q does not match the feature domain", method)).
		WithMetadata("method", method).
		WithMetadata("missing", missing).
		WithMetadata("extra", extra)
}

// ErrUnknownFeature reports a feature name absent from a row schema
func ErrUnknownFeature(name string) PNetError {
	return ErrConfiguration(fmt.Sprintf("unknown feature: %s", name)).
		WithMetadata("feature", name)
}

// ================================================================================
// Error Validation Utilities
// ================================================================================

// AsPNetError finds the first PNetError in the chain
func AsPNetError(err error) (PNetError, bool) {
	var pErr PNetError
	if stderrors.As(err, &pErr) {
		return pErr, true
	}
	return nil, false
}

// IsCode reports whether any error in the chain carries the given code
func IsCode(err error, code constants.ErrorCode) bool {
	pErr, ok := AsPNetError(err)
	return ok && pErr.Code() == code
}

// WrapError wraps a generic error into a PNetError
func WrapError(err error, code constants.ErrorCode, message string) PNetError {
	var httpStatus int

	switch code {
	case constants.ErrCodeInvalidRequest:
		httpStatus = http.StatusBadRequest
	case constants.ErrCodeConfiguration, constants.ErrCodeDegenerateInput:
		httpStatus = http.StatusUnprocessableEntity
	case constants.ErrCodeNotFound:
		httpStatus = http.StatusNotFound
	case constants.ErrCodePredictionFailure, constants.ErrCodeExplainerExhausted:
		httpStatus = http.StatusBadGateway
	case constants.ErrCodeUnavailable:
		httpStatus = http.StatusServiceUnavailable
	case constants.ErrCodeRateLimited:
		httpStatus = http.StatusTooManyRequests
	default:
		httpStatus = http.StatusInternalServerError
	}

	return NewError(code, httpStatus, message, message).WithCause(err)
}

// ================================================================================
// Error Response Builder
// ================================================================================

// ErrorResponse represents the JSON structure for error responses
type ErrorResponse struct {
	Error            string                 `json:"error"`
	ErrorDescription string                 `json:"error_description"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// ToErrorResponse converts a PNetError to an ErrorResponse
func ToErrorResponse(err PNetError) *ErrorResponse {
	return &ErrorResponse{
		Error:            string(err.Code()),
		ErrorDescription: err.Error(),
		Metadata:         err.Metadata(),
	}
}

// ToGenericErrorResponse converts any error to an ErrorResponse and its HTTP status
func ToGenericErrorResponse(err error) (*ErrorResponse, int) {
	if pErr, ok := AsPNetError(err); ok {
		return ToErrorResponse(pErr), pErr.HTTPStatus()
	}

	return &ErrorResponse{
		Error:            string(constants.ErrCodeInternal),
		ErrorDescription: "An unexpected error occurred",
	}, http.StatusInternalServerError
}

// ShouldLogError determines if an error should be logged based on severity
func ShouldLogError(err error) bool {
	if pErr, ok := AsPNetError(err); ok {
		return pErr.HTTPStatus() >= 500
	}
	return true
}

//Personal.AI order the ending
