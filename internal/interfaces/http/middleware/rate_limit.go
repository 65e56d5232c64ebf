package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// RateLimitMiddleware throttles the routes it guards with a single token bucket.
// A non-positive rps disables the limit.
// RateLimitMiddleware 使用单个令牌桶限制其保护的路由，rps 非正时不限流。
func RateLimitMiddleware(rps float64, burst int, log logger.Logger) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	retryAfter := strconv.Itoa(int(math.Ceil(1 / rps)))

	return func(c *gin.Context) {
		if !limiter.Allow() {
			log.Warn(c.Request.Context(), "rate limit exceeded", logger.Fields{
				"path":  c.FullPath(),
				"limit": rps,
			})
			c.Header("Retry-After", retryAfter)
			resp, status := errors.ToGenericErrorResponse(errors.ErrRateLimited("too many requests"))
			c.AbortWithStatusJSON(status, resp)
			return
		}
		c.Next()
	}
}

//Personal.AI order the ending
