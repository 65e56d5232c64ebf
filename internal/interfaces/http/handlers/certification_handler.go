package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/pnet/internal/application/dto"
	"github.com/turtacn/pnet/internal/application/service"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// CertificationHandler handles HTTP requests for calibrations, assessments and controls.
type CertificationHandler struct {
	svc service.CertificationAppService
	log logger.Logger
}

// NewCertificationHandler creates a new CertificationHandler.
func NewCertificationHandler(svc service.CertificationAppService, log logger.Logger) *CertificationHandler {
	return &CertificationHandler{svc: svc, log: log.WithComponent("CertificationHandler")}
}

// Calibrate godoc
// @Summary      Run a calibration
// @Tags         calibrations
// @Produce      json
// @Success      201  {object}  dto.CalibrationResult
// @Router       /api/v1/calibrations [post]
func (h *CertificationHandler) Calibrate(c *gin.Context) {
	result, err := h.svc.Calibrate(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	SendSuccess(c, http.StatusCreated, result)
}

// CurrentCalibration godoc
// @Summary      Current calibration
// @Tags         calibrations
// @Produce      json
// @Success      200  {object}  dto.CalibrationResult
// @Failure      404  {object}  errors.ErrorResponse
// @Router       /api/v1/calibrations/current [get]
func (h *CertificationHandler) CurrentCalibration(c *gin.Context) {
	result, err := h.svc.Current(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	SendSuccess(c, http.StatusOK, result)
}

// Assess godoc
// @Summary      Assess a control against an asset
// @Tags         assessments
// @Accept       json
// @Produce      json
// @Param        request  body  dto.AssessmentRequest  true  "Assessment request"
// @Success      200  {object}  dto.AssessmentResponse
// @Failure      400  {object}  errors.ErrorResponse
// @Router       /api/v1/assessments [post]
func (h *CertificationHandler) Assess(c *gin.Context) {
	var req dto.AssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, errors.ErrInvalidRequest("malformed assessment request").WithCause(err))
		return
	}

	resp, err := h.svc.Assess(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	SendSuccess(c, http.StatusOK, resp)
}

// ListControls godoc
// @Summary      List the control catalog
// @Tags         controls
// @Produce      json
// @Success      200  {object}  dto.ControlListResponse
// @Router       /api/v1/controls [get]
func (h *CertificationHandler) ListControls(c *gin.Context) {
	resp, err := h.svc.Controls(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	SendSuccess(c, http.StatusOK, resp)
}

func (h *CertificationHandler) fail(c *gin.Context, err error) {
	if errors.ShouldLogError(err) {
		h.log.Error(c.Request.Context(), "request failed", err, logger.Fields{"path": c.FullPath()})
	}
	SendError(c, err)
}

//Personal.AI order the ending
