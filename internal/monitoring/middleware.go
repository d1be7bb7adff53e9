package monitoring

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request id in and out.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key holding the request id.
	RequestIDKey = "request_id"

	maxAnswerBodyBytes = 64 << 10
)

// MonitoringMiddleware assigns a request id, then records metrics and logs
// every request once it completes.
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		metrics.RecordRequest(c.FullPath(), c.Request.Method, statusCode, duration)
		logger.RequestLogger(requestID, c.Request.Method, c.Request.URL.Path, c.ClientIP(), statusCode, duration)

		for _, err := range c.Errors {
			logger.Error("Request error",
				"request_id", requestID,
				"path", c.Request.URL.Path,
				"error", err.Error())
		}

		if duration > 5*time.Second {
			logger.Warn("Slow request", "request_id", requestID, "path", c.Request.URL.Path, "duration_ms", duration.Milliseconds())
		}
	}
}

// SecurityMonitoringMiddleware logs suspicious clients without blocking them.
func SecurityMonitoringMiddleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userAgent := c.GetHeader("User-Agent")

		var reasons []string
		if c.Request.Method == "POST" && c.Request.ContentLength > maxAnswerBodyBytes {
			reasons = append(reasons, "large_request_body")
		}
		if isScannerUserAgent(userAgent) {
			reasons = append(reasons, "suspicious_user_agent")
		}

		if len(reasons) > 0 {
			logger.Warn("Security Event",
				"event", "suspicious_activity_detected",
				"reasons", reasons,
				"ip", c.ClientIP(),
				"user_agent", userAgent,
				"path", c.Request.URL.Path,
				"size_bytes", c.Request.ContentLength)
		}

		c.Next()
	}
}

var scannerAgents = []string{
	"sqlmap",
	"nmap",
	"masscan",
	"zmap",
	"dirbuster",
	"gobuster",
	"nikto",
	"acunetix",
	"nessus",
}

func isScannerUserAgent(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, agent := range scannerAgents {
		if strings.Contains(ua, agent) {
			return true
		}
	}
	return false
}

// RequestID returns the request id assigned by MonitoringMiddleware.
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
