package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/pnet/internal/application/dto"
	"github.com/turtacn/pnet/internal/application/service"
	"github.com/turtacn/pnet/pkg/logger"
)

// Checker probes one dependency.
type Checker func(ctx context.Context) error

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	svc      service.CertificationAppService
	model    string
	checkers map[string]Checker
	timeout  time.Duration
	log      logger.Logger
}

// NewHealthHandler creates a new HealthHandler. checkers may be empty.
func NewHealthHandler(svc service.CertificationAppService, model string, checkers map[string]Checker, log logger.Logger) *HealthHandler {
	return &HealthHandler{
		svc:      svc,
		model:    model,
		checkers: checkers,
		timeout:  2 * time.Second,
		log:      log,
	}
}

// LivenessCheck godoc
// @Summary      Liveness Check
// @Tags         health
// @Success      200
// @Router       /health/live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Checks the dependencies and whether a calibration is loaded.
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.HealthResponse
// @Failure      503  {object}  dto.HealthResponse
// @Router       /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := dto.HealthResponse{
		Status:    "healthy",
		Model:     h.model,
		Checks:    h.performChecks(ctx),
		Timestamp: time.Now().UTC().Unix(),
	}
	if _, err := h.svc.Current(ctx); err == nil {
		resp.Calibrated = true
	}

	httpStatus := http.StatusOK
	for name, checkStatus := range resp.Checks {
		if checkStatus != "ok" {
			h.log.Warn(ctx, "health check failed", logger.Fields{"check": name, "status": checkStatus})
			resp.Status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		}
	}
	c.JSON(httpStatus, resp)
}

func (h *HealthHandler) performChecks(ctx context.Context) map[string]string {
	var wg sync.WaitGroup
	checks := make(map[string]string, len(h.checkers))
	mu := &sync.Mutex{}

	wg.Add(len(h.checkers))
	for name, check := range h.checkers {
		go func(name string, check Checker) {
			defer wg.Done()
			status := "ok"
			if err := check(ctx); err != nil {
				status = "error: " + err.Error()
			}
			mu.Lock()
			checks[name] = status
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()
	return checks
}

//Personal.AI order the ending
