// Package logger provides the structured logging contract for the P-NET certification service.
// The production implementation is backed by zap (see internal/infrastructure/monitoring).
package logger

import (
	"context"
	"time"
)

// ================================================================================
// Logger Interface
// ================================================================================

// Fields is a set of key-value pairs attached to a log entry
type Fields map[string]interface{}

// Logger defines the interface for structured logging
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, msg string, fields ...Fields)

	// Info logs an informational message
	Info(ctx context.Context, msg string, fields ...Fields)

	// Warn logs a warning message
	Warn(ctx context.Context, msg string, fields ...Fields)

	// Error logs an error message
	Error(ctx context.Context, msg string, err error, fields ...Fields)

	// Fatal logs a fatal message and exits the application
	Fatal(ctx context.Context, msg string, err error, fields ...Fields)

	// WithFields creates a new logger with additional fields
	WithFields(fields Fields) Logger

	// WithComponent creates a new logger for a specific component
	WithComponent(component string) Logger
}

// ================================================================================
// Field Helpers
// ================================================================================

// Merge flattens several field sets into one; later keys win
func Merge(fields ...Fields) Fields {
	out := make(Fields)
	for _, f := range fields {
		for k, v := range f {
			out[k] = v
		}
	}
	return out
}

// Duration renders a duration field in milliseconds
func Duration(key string, d time.Duration) Fields {
	return Fields{key: d.Milliseconds()}
}

// ================================================================================
// No-op Logger
// ================================================================================

type noopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(ctx context.Context, msg string, fields ...Fields)            {}
func (l *noopLogger) Info(ctx context.Context, msg string, fields ...Fields)             {}
func (l *noopLogger) Warn(ctx context.Context, msg string, fields ...Fields)             {}
func (l *noopLogger) Error(ctx context.Context, msg string, err error, fields ...Fields) {}
func (l *noopLogger) Fatal(ctx context.Context, msg string, err error, fields ...Fields) {}
func (l *noopLogger) WithFields(fields Fields) Logger {
	return l
}
func (l *noopLogger) WithComponent(component string) Logger {
	return l
}

//Personal.AI order the ending
