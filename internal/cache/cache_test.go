package cache

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/value-compass/internal/monitoring"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache(10, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", []byte("v"))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 1, c.Size())

	c.Delete("k")
	_, ok = c.Get("k")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(2), stats["misses"])
	assert.Equal(t, 10, stats["capacity"])
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2, time.Minute)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Get("a")
	c.Set("c", []byte("3"))

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestCacheExpires(t *testing.T) {
	c := NewCache(10, 20*time.Millisecond)
	c.Set("k", []byte("v"))

	assert.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestCacheClear(t *testing.T) {
	c := NewCache(0, time.Minute)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Clear()
	assert.Zero(t, c.Size())
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("a", "b"), Key("a", "b"))
	assert.NotEqual(t, Key("ab", ""), Key("a", "b"))
	assert.Len(t, Key("x"), 64)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(10, time.Minute)
	calls := 0
	router := gin.New()
	router.Use(c.Middleware(monitoring.NewMetrics(), "/preview"))
	router.POST("/preview", func(ctx *gin.Context) {
		calls++
		ctx.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	router.POST("/other", func(ctx *gin.Context) {
		calls++
		ctx.Status(http.StatusOK)
	})

	post := func(path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
		return w
	}

	first := post("/preview", `{"a":1}`)
	second := post("/preview", `{"a":1}`)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	post("/preview", `{"a":2}`)
	assert.Equal(t, 2, calls)

	post("/other", `{"a":1}`)
	post("/other", `{"a":1}`)
	assert.Equal(t, 4, calls)
}
