package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware propagates or assigns a request id.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(string(constants.ContextKeyRequestID), id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), constants.ContextKeyRequestID, id))
		c.Next()
	}
}

// LoggingMiddleware logs incoming requests.
func LoggingMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := logger.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
			"request_id": c.GetString(string(constants.ContextKeyRequestID)),
		}
		if c.Writer.Status() >= 500 {
			log.Warn(c.Request.Context(), "Request failed", fields)
			return
		}
		log.Info(c.Request.Context(), "Request processed", fields)
	}
}

// RecoveryMiddleware recovers from panics.
func RecoveryMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic: %v", r)
				log.Error(c.Request.Context(), "Panic recovered", err, logger.Fields{"path": c.Request.URL.Path})
				SendError(c, errors.ErrInternal("unexpected server error"))
				c.Abort()
			}
		}()
		c.Next()
	}
}

// SendError renders err as {error, error_description} with the status derived from its code.
func SendError(c *gin.Context, err error) {
	resp, status := errors.ToGenericErrorResponse(err)
	c.JSON(status, resp)
}

// SendSuccess renders data with status.
func SendSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

//Personal.AI order the ending
