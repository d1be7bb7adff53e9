package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ZanzyTHEbar/value-compass/internal/monitoring"
)

// Cache is a size-bounded byte cache whose entries expire after ttl.
type Cache struct {
	lru    *expirable.LRU[string, []byte]
	ttl    time.Duration
	size   int
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a cache holding at most size entries for ttl each.
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 1024
	}
	return &Cache{
		lru:  expirable.NewLRU[string, []byte](size, nil, ttl),
		ttl:  ttl,
		size: size,
	}
}

// Key hashes arbitrary input into a fixed-length cache key.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves an item from the cache
func (c *Cache) Get(key string) ([]byte, bool) {
	data, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return data, ok
}

// Set stores an item in the cache
func (c *Cache) Set(key string, data []byte) {
	c.lru.Add(key, data)
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.lru.Remove(key)
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.lru.Purge()
}

// Size returns the number of live items in the cache
func (c *Cache) Size() int {
	return c.lru.Len()
}

// Stats returns cache statistics
func (c *Cache) Stats() map[string]interface{} {
	return map[string]interface{}{
		"items":       c.lru.Len(),
		"capacity":    c.size,
		"hits":        c.hits.Load(),
		"misses":      c.misses.Load(),
		"ttl_seconds": c.ttl.Seconds(),
	}
}

// Middleware caches successful responses of the given POST routes keyed by
// request path and body. Only use it on routes whose response depends on
// nothing but the body.
func (c *Cache) Middleware(metrics *monitoring.Metrics, paths ...string) gin.HandlerFunc {
	cacheable := make(map[string]bool, len(paths))
	for _, p := range paths {
		cacheable[p] = true
	}

	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodPost || !cacheable[ctx.FullPath()] {
			ctx.Next()
			return
		}

		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			ctx.Next()
			return
		}
		ctx.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		cacheKey := Key(ctx.FullPath(), string(body))

		if cachedData, found := c.Get(cacheKey); found {
			slog.Debug("Cache hit", "key", cacheKey[:8]+"...", "path", ctx.FullPath())
			metrics.RecordCache(true)
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", cachedData)
			ctx.Abort()
			return
		}

		slog.Debug("Cache miss", "key", cacheKey[:8]+"...", "path", ctx.FullPath())
		metrics.RecordCache(false)

		wrapper := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = wrapper
		ctx.Next()

		if ctx.Writer.Status() == http.StatusOK {
			c.Set(cacheKey, wrapper.body.Bytes())
		}
	}
}

// responseWriter wraps gin.ResponseWriter to capture response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
