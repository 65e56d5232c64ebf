package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/turtacn/pnet/internal/application/dto"
	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/infrastructure/monitoring"
	"github.com/turtacn/pnet/internal/interfaces/http/handlers"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// stubService calibrates successfully and has no current calibration.
type stubService struct{}

func (stubService) Calibrate(context.Context) (*dto.CalibrationResult, error) {
	return &dto.CalibrationResult{Model: "heuristic"}, nil
}

func (stubService) Current(context.Context) (*dto.CalibrationResult, error) {
	return nil, errors.ErrNotFound("calibration", "current")
}

func (stubService) Assess(context.Context, *dto.AssessmentRequest) (*dto.AssessmentResponse, error) {
	return nil, errors.ErrInvalidRequest("no calibration has been run")
}

func (stubService) Controls(context.Context) (*dto.ControlListResponse, error) {
	return &dto.ControlListResponse{}, nil
}

func (stubService) ApplyPolicy(context.Context, models.Policy) error { return nil }

func newTestRouter(t *testing.T, calibrationRate float64) *Router {
	t.Helper()
	log := logger.NewNoopLogger()
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	cfg := &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		Environment:     "test",
		CalibrationRate: calibrationRate,
		AllowedOrigins:  []string{"*"},
	}
	svc := stubService{}
	return NewRouter(
		cfg, log,
		handlers.NewHealthHandler(svc, "heuristic", nil, log),
		handlers.NewCertificationHandler(svc, log),
		noop.NewTracerProvider().Tracer("test"), metrics, reg,
	)
}

func serve(r *Router, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.Engine().ServeHTTP(w, req)
	return w
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(t, 0)

	testCases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health/live", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodPost, "/api/v1/calibrations", http.StatusCreated},
		{http.MethodGet, "/api/v1/calibrations/current", http.StatusNotFound},
		{http.MethodGet, "/api/v1/controls", http.StatusOK},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
		{http.MethodGet, "/debug/pprof/", http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := serve(r, tc.method, tc.path)
			assert.Equal(t, tc.status, w.Code)
		})
	}

	w := serve(r, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `pnet_http_requests_total{method="GET",path="/health/live",status="2xx"}`)
	assert.Contains(t, w.Body.String(), `path="not_found"`)
}

func TestRouter_CalibrationRateLimit(t *testing.T) {
	r := newTestRouter(t, 0.001)

	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/api/v1/calibrations").Code)
	w := serve(r, http.MethodPost, "/api/v1/calibrations")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Reads are not limited.
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/v1/calibrations/current").Code)
}

func TestRouter_ProductionDisablesPprof(t *testing.T) {
	t.Cleanup(func() { gin.SetMode(gin.TestMode) })
	log := logger.NewNoopLogger()
	svc := stubService{}
	cfg := &config.ServerConfig{Environment: "production", AllowedOrigins: []string{"*"}}
	r := NewRouter(cfg, log,
		handlers.NewHealthHandler(svc, "heuristic", nil, log),
		handlers.NewCertificationHandler(svc, log),
		noop.NewTracerProvider().Tracer("test"), nil, prometheus.NewRegistry(),
	)

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/debug/pprof/").Code)
}
