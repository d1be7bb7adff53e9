package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"

	"github.com/ZanzyTHEbar/value-compass/internal/monitoring"
	"github.com/ZanzyTHEbar/value-compass/internal/resilience"
)

// Config holds rate limiter configuration
type Config struct {
	// RequestsPerMinute is the sustained per-IP rate on the API.
	RequestsPerMinute int
	// Burst is the number of requests an idle client may send at once.
	Burst int
	// SubmissionsPerHour caps answer submissions per subject.
	SubmissionsPerHour int
	// CleanupInterval controls how often idle fallback buckets are dropped.
	CleanupInterval time.Duration
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute:  60,
		Burst:              10,
		SubmissionsPerHour: 30,
		CleanupInterval:    10 * time.Minute,
	}
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type fallbackEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides distributed rate limiting with Redis and an
// in-memory token bucket fallback.
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	breaker      *resilience.CircuitBreaker
	config       Config
	metrics      *monitoring.Metrics

	fallbackLimiters map[string]*fallbackEntry
	fallbackMutex    sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRateLimiter creates a rate limiter. redisClient may be nil or disabled.
// Close must be called to stop the cleanup goroutine.
func NewRateLimiter(redisClient *RedisClient, config Config, metrics *monitoring.Metrics) *RateLimiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = DefaultConfig().Burst
	}
	if config.SubmissionsPerHour <= 0 {
		config.SubmissionsPerHour = DefaultConfig().SubmissionsPerHour
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}

	rl := &RateLimiter{
		redisClient:      redisClient,
		config:           config,
		metrics:          metrics,
		breaker:          resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 3, RecoveryTimeout: 15 * time.Second}),
		fallbackLimiters: make(map[string]*fallbackEntry),
		stop:             make(chan struct{}),
	}

	if redisClient.IsEnabled() {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient.GetClient())
		slog.Info("Redis rate limiter initialized")
	} else {
		slog.Warn("Redis unavailable, using in-memory rate limiting only")
	}

	rl.wg.Add(1)
	go rl.cleanupFallbackLimiters()

	return rl
}

// AllowIP checks the per-minute API limit for an IP address.
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	limit := redis_rate.Limit{
		Rate:   rl.config.RequestsPerMinute,
		Burst:  rl.config.Burst,
		Period: time.Minute,
	}
	return rl.allow(ctx, fmt.Sprintf("ratelimit:ip:%s", ip), limit)
}

// AllowSubmission checks the hourly answer submission limit of a subject.
func (rl *RateLimiter) AllowSubmission(ctx context.Context, subjectID string) (*Result, error) {
	limit := redis_rate.PerHour(rl.config.SubmissionsPerHour)
	return rl.allow(ctx, fmt.Sprintf("ratelimit:subject:%s", subjectID), limit)
}

func (rl *RateLimiter) allow(ctx context.Context, key string, limit redis_rate.Limit) (*Result, error) {
	// An open breaker skips Redis entirely until its recovery timeout.
	if rl.redisLimiter != nil {
		var result *Result
		err := rl.breaker.Call(func() error {
			var err error
			result, err = rl.allowRedis(ctx, key, limit)
			return err
		})
		if err == nil {
			rl.metrics.RecordRateLimitDecision("redis")
			return result, nil
		}
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			slog.Warn("Redis rate limit check failed, using fallback", "key", key, "error", err)
		}
	}

	rl.metrics.RecordRateLimitDecision("memory")
	return rl.allowFallback(key, limit), nil
}

func (rl *RateLimiter) allowRedis(ctx context.Context, key string, limit redis_rate.Limit) (*Result, error) {
	res, err := rl.redisLimiter.Allow(ctx, key, limit)
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		ResetAt:    time.Now().Add(res.ResetAfter),
		RetryAfter: res.RetryAfter,
	}, nil
}

func (rl *RateLimiter) allowFallback(key string, limit redis_rate.Limit) *Result {
	now := time.Now()
	every := limit.Period / time.Duration(limit.Rate)

	rl.fallbackMutex.Lock()
	entry, exists := rl.fallbackLimiters[key]
	if !exists {
		entry = &fallbackEntry{limiter: rate.NewLimiter(rate.Every(every), limit.Burst)}
		rl.fallbackLimiters[key] = entry
	}
	entry.lastSeen = now
	rl.fallbackMutex.Unlock()

	allowed := entry.limiter.AllowN(now, 1)
	tokens := entry.limiter.TokensAt(now)

	remaining := int(tokens)
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Limit:     limit.Rate,
		Remaining: remaining,
		ResetAt:   now.Add(time.Duration(float64(limit.Burst)-tokens) * every),
	}
	if !allowed {
		result.RetryAfter = time.Duration((1 - tokens) * float64(every))
	}
	return result
}

func (rl *RateLimiter) cleanupFallbackLimiters() {
	defer rl.wg.Done()

	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.evictIdle(now)
		}
	}
}

// evictIdle drops buckets untouched for a full cleanup interval. Such a
// bucket has refilled at least partially and recreating it is harmless.
func (rl *RateLimiter) evictIdle(now time.Time) int {
	rl.fallbackMutex.Lock()
	defer rl.fallbackMutex.Unlock()

	removed := 0
	for key, entry := range rl.fallbackLimiters {
		if now.Sub(entry.lastSeen) >= rl.config.CleanupInterval {
			delete(rl.fallbackLimiters, key)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("Cleaned up fallback rate limiters", "removed", removed)
	}
	return removed
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
	rl.wg.Wait()
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.fallbackMutex.Lock()
	fallbackCount := len(rl.fallbackLimiters)
	rl.fallbackMutex.Unlock()

	stats := map[string]interface{}{
		"redis_enabled":       rl.redisClient.IsEnabled(),
		"fallback_limiters":   fallbackCount,
		"requests_per_minute": rl.config.RequestsPerMinute,
		"burst":               rl.config.Burst,
	}
	if rl.redisClient.IsEnabled() {
		stats["redis_pool"] = rl.redisClient.GetPoolStats()
		stats["redis_breaker"] = rl.breaker.Stats()
	}
	return stats
}
