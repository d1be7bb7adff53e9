package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	MinSize          int      // responses smaller than this are sent as is
	CompressionLevel int      // gzip level, 1-9; 0 selects the default
	ContentTypes     []string // compressible content type prefixes
	ExcludedPaths    []string // path prefixes never compressed
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:          1024,
		CompressionLevel: gzip.DefaultCompression,
		ContentTypes: []string{
			"application/json",
			"text/plain",
		},
		ExcludedPaths: []string{"/metrics", "/swagger/"},
	}
}

// CompressionMiddleware gzips large JSON responses for clients that accept it.
type CompressionMiddleware struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool
}

// NewCompressionMiddleware creates a new compression middleware
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	if config.MinSize <= 0 {
		config.MinSize = DefaultCompressionConfig().MinSize
	}
	// zero is gzip.NoCompression, which only ever grows the body
	if config.CompressionLevel == gzip.NoCompression ||
		config.CompressionLevel < gzip.HuffmanOnly || config.CompressionLevel > gzip.BestCompression {
		config.CompressionLevel = gzip.DefaultCompression
	}
	if len(config.ContentTypes) == 0 {
		config.ContentTypes = DefaultCompressionConfig().ContentTypes
	}

	cm := &CompressionMiddleware{
		config: config,
		stats:  &CompressionStats{},
	}
	cm.pool.New = func() interface{} {
		gz, _ := gzip.NewWriterLevel(io.Discard, cm.config.CompressionLevel)
		return gz
	}
	return cm
}

// Handler returns the gin middleware. The response is buffered so the size
// and content type are known before deciding to compress.
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !clientAcceptsGzip(c.Request) || cm.excluded(c.Request.URL.Path) {
			c.Next()
			return
		}

		bw := &bufferedWriter{ResponseWriter: c.Writer, status: http.StatusOK}
		c.Writer = bw
		c.Next()
		c.Writer = bw.ResponseWriter

		body := bw.buf.Bytes()
		header := bw.ResponseWriter.Header()
		header.Add("Vary", "Accept-Encoding")

		if len(body) < cm.config.MinSize || !cm.shouldCompress(header.Get("Content-Type")) || header.Get("Content-Encoding") != "" {
			cm.stats.RecordRequest(int64(len(body)), int64(len(body)), false)
			bw.ResponseWriter.WriteHeader(bw.status)
			_, _ = bw.ResponseWriter.Write(body)
			return
		}

		var compressed bytes.Buffer
		gz := cm.pool.Get().(*gzip.Writer)
		gz.Reset(&compressed)
		_, err := gz.Write(body)
		if err == nil {
			err = gz.Close()
		}
		cm.pool.Put(gz)
		if err != nil {
			cm.stats.RecordRequest(int64(len(body)), int64(len(body)), false)
			bw.ResponseWriter.WriteHeader(bw.status)
			_, _ = bw.ResponseWriter.Write(body)
			return
		}

		header.Set("Content-Encoding", "gzip")
		header.Set("Content-Length", strconv.Itoa(compressed.Len()))
		cm.stats.RecordRequest(int64(len(body)), int64(compressed.Len()), true)
		bw.ResponseWriter.WriteHeader(bw.status)
		_, _ = bw.ResponseWriter.Write(compressed.Bytes())
	}
}

func clientAcceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

func (cm *CompressionMiddleware) excluded(path string) bool {
	for _, p := range cm.config.ExcludedPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (cm *CompressionMiddleware) shouldCompress(contentType string) bool {
	for _, ct := range cm.config.ContentTypes {
		if strings.HasPrefix(contentType, ct) {
			return true
		}
	}
	return false
}

// bufferedWriter holds the status and body until the handler chain is done.
type bufferedWriter struct {
	gin.ResponseWriter
	buf    bytes.Buffer
	status int
	wrote  bool
}

func (w *bufferedWriter) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
	}
}

func (w *bufferedWriter) WriteHeaderNow() {
	w.wrote = true
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	w.wrote = true
	return w.buf.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.wrote = true
	return w.buf.WriteString(s)
}

func (w *bufferedWriter) Status() int {
	return w.status
}

func (w *bufferedWriter) Size() int {
	return w.buf.Len()
}

func (w *bufferedWriter) Written() bool {
	return w.wrote
}

// CompressionStats tracks compression statistics
type CompressionStats struct {
	TotalRequests      atomic.Int64
	CompressedRequests atomic.Int64
	TotalBytes         atomic.Int64
	CompressedBytes    atomic.Int64
}

// RecordRequest records a request's compression stats
func (cs *CompressionStats) RecordRequest(originalSize, sentSize int64, compressed bool) {
	cs.TotalRequests.Add(1)
	if compressed {
		cs.CompressedRequests.Add(1)
		cs.TotalBytes.Add(originalSize)
		cs.CompressedBytes.Add(sentSize)
	}
}

// GetStats returns current compression statistics. The ratio covers
// compressed responses only.
func (cs *CompressionStats) GetStats() map[string]interface{} {
	total := cs.TotalBytes.Load()
	compressed := cs.CompressedBytes.Load()

	ratio := float64(0)
	if total > 0 {
		ratio = float64(compressed) / float64(total)
	}

	return map[string]interface{}{
		"total_requests":      cs.TotalRequests.Load(),
		"compressed_requests": cs.CompressedRequests.Load(),
		"original_bytes":      total,
		"compressed_bytes":    compressed,
		"compression_ratio":   ratio,
	}
}

// GetStats returns compression statistics
func (cm *CompressionMiddleware) GetStats() map[string]interface{} {
	return cm.stats.GetStats()
}
