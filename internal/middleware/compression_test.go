package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompressionRouter(cm *CompressionMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(cm.Handler())
	r.GET("/big", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": strings.Repeat("compass ", 200)})
	})
	r.GET("/small", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/created", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"data": strings.Repeat("x", 2048)})
	})
	r.GET("/text", func(c *gin.Context) {
		c.Data(http.StatusOK, "image/png", make([]byte, 4096))
	})
	r.GET("/metrics", func(c *gin.Context) {
		c.String(http.StatusOK, strings.Repeat("metric 1\n", 500))
	})
	r.DELETE("/none", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestCompressionHandler(t *testing.T) {
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	r := newCompressionRouter(cm)

	tests := []struct {
		name       string
		method     string
		path       string
		acceptGzip bool
		wantStatus int
		wantGzip   bool
	}{
		{"large json", http.MethodGet, "/big", true, http.StatusOK, true},
		{"client without gzip", http.MethodGet, "/big", false, http.StatusOK, false},
		{"below min size", http.MethodGet, "/small", true, http.StatusOK, false},
		{"status preserved", http.MethodGet, "/created", true, http.StatusCreated, true},
		{"binary content type", http.MethodGet, "/text", true, http.StatusOK, false},
		{"excluded path", http.MethodGet, "/metrics", true, http.StatusOK, false},
		{"no content", http.MethodDelete, "/none", true, http.StatusNoContent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.acceptGzip {
				req.Header.Set("Accept-Encoding", "gzip, deflate")
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if !tt.wantGzip {
				assert.Empty(t, w.Header().Get("Content-Encoding"))
				return
			}

			assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
			assert.Contains(t, w.Header().Values("Vary"), "Accept-Encoding")

			gz, err := gzip.NewReader(w.Body)
			require.NoError(t, err)
			body, err := io.ReadAll(gz)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(body), `{"data":`))
		})
	}
}

func TestCompressionStats(t *testing.T) {
	cm := NewCompressionMiddleware(CompressionConfig{MinSize: 16})
	r := newCompressionRouter(cm)

	for _, path := range []string{"/big", "/small"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", "gzip")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	stats := cm.GetStats()
	assert.Equal(t, int64(2), stats["total_requests"])
	assert.Equal(t, int64(1), stats["compressed_requests"])
	assert.Less(t, stats["compressed_bytes"].(int64), stats["original_bytes"].(int64))
	assert.Greater(t, stats["compression_ratio"].(float64), 0.0)
}

func TestNewCompressionMiddlewareDefaults(t *testing.T) {
	tests := []struct {
		name  string
		level int
		want  int
	}{
		{"unset", 0, gzip.DefaultCompression},
		{"too high", 42, gzip.DefaultCompression},
		{"too low", -3, gzip.DefaultCompression},
		{"huffman only", gzip.HuffmanOnly, gzip.HuffmanOnly},
		{"best speed", gzip.BestSpeed, gzip.BestSpeed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm := NewCompressionMiddleware(CompressionConfig{CompressionLevel: tt.level})
			assert.Equal(t, tt.want, cm.config.CompressionLevel)
			assert.Equal(t, 1024, cm.config.MinSize)
			assert.Equal(t, DefaultCompressionConfig().ContentTypes, cm.config.ContentTypes)
		})
	}
}

func TestZeroConfigShrinksBody(t *testing.T) {
	cm := NewCompressionMiddleware(CompressionConfig{})
	r := newCompressionRouter(cm)

	req := httptest.NewRequest(http.MethodGet, "/big", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	stats := cm.GetStats()
	assert.Less(t, stats["compressed_bytes"].(int64), stats["original_bytes"].(int64))
}
