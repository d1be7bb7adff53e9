package ratelimit

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/value-compass/internal/errors"
)

// IPRateLimitMiddleware enforces the per-minute limit for the client IP.
// Limiter failures never block a request.
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		result, err := rl.AllowIP(c.Request.Context(), ip)
		if err != nil {
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			rl.reject(c, "ip", result)
			return
		}

		c.Next()
	}
}

// SubmissionRateLimitMiddleware enforces the hourly submission limit keyed
// by the :id route parameter.
func (rl *RateLimiter) SubmissionRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		subjectID := c.Param("id")
		if subjectID == "" {
			c.Next()
			return
		}

		result, err := rl.AllowSubmission(c.Request.Context(), subjectID)
		if err != nil {
			slog.Error("Submission rate limit check failed", "subject_id", subjectID, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Subject-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Subject-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			rl.reject(c, "subject", result)
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) reject(c *gin.Context, scope string, result *Result) {
	rl.metrics.RecordRateLimitBlock(scope)

	retryAfter := int(result.RetryAfter.Round(time.Second).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))

	apperrors.Respond(c, apperrors.NewRateLimitError(strconv.Itoa(retryAfter)+"s"))
}
