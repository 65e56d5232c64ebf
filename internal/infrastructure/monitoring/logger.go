package monitoring

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/logger"
)

type zapLogger struct {
	*zap.Logger
}

// NewZapLogger builds the production logger. Format "console" switches to the
// human-readable encoder used by the CLI; anything else is JSON.
func NewZapLogger(cfg *config.LogConfig) (logger.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoder := zapcore.NewJSONEncoder(encoderConfig)
	if cfg.Format == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	outputPath := cfg.OutputPath
	if outputPath == "" {
		outputPath = "stdout"
	}
	sink, _, err := zap.Open(outputPath)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, sink, level)
	return &zapLogger{zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))}, nil
}

// NewLoggerFromZap wraps an existing zap logger, e.g. zaptest or an observer core.
func NewLoggerFromZap(l *zap.Logger) logger.Logger {
	return &zapLogger{l}
}

func (l *zapLogger) Debug(ctx context.Context, msg string, fields ...logger.Fields) {
	l.Logger.Debug(msg, l.convertFields(ctx, fields...)...)
}

func (l *zapLogger) Info(ctx context.Context, msg string, fields ...logger.Fields) {
	l.Logger.Info(msg, l.convertFields(ctx, fields...)...)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, fields ...logger.Fields) {
	l.Logger.Warn(msg, l.convertFields(ctx, fields...)...)
}

func (l *zapLogger) Error(ctx context.Context, msg string, err error, fields ...logger.Fields) {
	l.Logger.Error(msg, append(l.convertFields(ctx, fields...), zap.Error(err))...)
}

func (l *zapLogger) Fatal(ctx context.Context, msg string, err error, fields ...logger.Fields) {
	l.Logger.Fatal(msg, append(l.convertFields(ctx, fields...), zap.Error(err))...)
}

func (l *zapLogger) WithFields(fields logger.Fields) logger.Logger {
	return &zapLogger{l.Logger.With(l.convertFields(context.Background(), fields)...)}
}

func (l *zapLogger) WithComponent(component string) logger.Logger {
	return &zapLogger{l.Logger.With(zap.String("component", component))}
}

func (l *zapLogger) convertFields(ctx context.Context, fields ...logger.Fields) []zap.Field {
	zapFields := make([]zap.Field, 0)
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			zapFields = append(zapFields, zap.String("trace_id", sc.TraceID().String()))
		} else if traceID, ok := ctx.Value(constants.ContextKeyTraceID).(string); ok {
			zapFields = append(zapFields, zap.String("trace_id", traceID))
		}
		if requestID, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok {
			zapFields = append(zapFields, zap.String("request_id", requestID))
		}
	}

	for _, f := range fields {
		for k, v := range f {
			zapFields = append(zapFields, zap.Any(k, v))
		}
	}
	return zapFields
}

//Personal.AI order the ending
