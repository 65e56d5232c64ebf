package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/pnet/pkg/constants"
)

// RequestObserver records served requests. *monitoring.Metrics implements it.
type RequestObserver interface {
	ObserveRequest(path, method string, status int, duration time.Duration)
}

// ObservabilityMiddleware returns a Gin middleware that integrates Prometheus metrics and OpenTelemetry tracing.
// Each request runs inside a server span continued from the incoming trace context, and is
// observed under its route template so metric labels stay low-cardinality.
// ObservabilityMiddleware 返回一个集成了 Prometheus 指标和 OpenTelemetry 跟踪的 Gin 中间件。
// 每个请求都在延续自传入追踪上下文的服务端 Span 中运行，并按路由模板记录指标以保持低基数。
func ObservabilityMiddleware(tracer trace.Tracer, observer RequestObserver) gin.HandlerFunc {
	propagator := propagation.TraceContext{}

	return func(c *gin.Context) {
		start := time.Now()

		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+c.FullPath(), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if sc := span.SpanContext(); sc.IsValid() {
			c.Set(string(constants.ContextKeyTraceID), sc.TraceID().String())
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "not_found"
		}
		if observer != nil {
			observer.ObserveRequest(path, c.Request.Method, c.Writer.Status(), time.Since(start))
		}

		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.path", path),
			attribute.Int("http.status_code", c.Writer.Status()),
			attribute.String("http.client_ip", c.ClientIP()),
		)
	}
}

//Personal.AI order the ending
