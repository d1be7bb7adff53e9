package monitoring

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{input: "debug", expected: slog.LevelDebug},
		{input: "WARN", expected: slog.LevelWarn},
		{input: "warning", expected: slog.LevelWarn},
		{input: "error", expected: slog.LevelError},
		{input: "", expected: slog.LevelInfo},
		{input: "verbose", expected: slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLevel(tt.input), tt.input)
	}
}

func TestLoggerWritesJSONWithTimestamp(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "info")

	logger.PortraitLogger("subject-1", "submit", 3, 8, 2*time.Millisecond)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Portrait Built", line["msg"])
	assert.Equal(t, "subject-1", line["subject"])
	assert.Contains(t, line, "timestamp")
	assert.NotContains(t, line, "time")

	_, err := time.Parse(time.RFC3339, line["timestamp"].(string))
	assert.NoError(t, err)
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "warn")

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.RequestLogger("r1", "GET", "/x", "127.0.0.1", 404, time.Millisecond)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}

func TestMetricsRecorders(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/api/v1/dimensions", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/v1/dimensions", "GET", 500, 10*time.Millisecond)
	m.RecordPortraitBuilt("submit")
	m.RecordAnswerRejected("out_of_range")
	m.RecordCache(true)
	m.RecordCache(false)
	m.RecordCache(false)
	m.RecordAlignment(70)
	m.RecordRateLimitBlock("ip")
	m.RecordRateLimitDecision("memory")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/v1/dimensions", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.portraitsBuilt.WithLabelValues("submit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answersRejected.WithLabelValues("out_of_range")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitBlocks.WithLabelValues("ip")))

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["request_count"])
	assert.Equal(t, int64(1), stats["error_count"])
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordCache(true)
		m.RecordPortraitBuilt("cli")
		m.RecordAlignment(50)
	})
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.RecordPortraitBuilt("preview")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value_compass_portrait_builds_total{source="preview"} 1`)
}

func TestMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	metrics := NewMetrics()
	router := gin.New()
	router.Use(MonitoringMiddleware(metrics, NewLoggerTo(&buf, "info")))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get(RequestIDHeader))

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requests.WithLabelValues("/ping", "GET", "200")))
	assert.Equal(t, 2, strings.Count(buf.String(), "HTTP Request"))
}

func TestSecurityMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	router := gin.New()
	router.Use(SecurityMonitoringMiddleware(NewLoggerTo(&buf, "info")))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "sqlmap/1.7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, buf.String(), "suspicious_user_agent")

	buf.Reset()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.Zero(t, buf.Len())
}
