package ranking

import (
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/ZanzyTHEbar/value-compass/internal/cache"
	"github.com/ZanzyTHEbar/value-compass/internal/monitoring"
	"github.com/ZanzyTHEbar/value-compass/internal/portrait"
)

// ResultCache stores ranking results keyed by the exact portrait, country
// and limit that produced them.
type ResultCache struct {
	cache   *cache.Cache
	metrics *monitoring.Metrics
}

// NewResultCache wraps c. A nil c disables caching.
func NewResultCache(c *cache.Cache, metrics *monitoring.Metrics) *ResultCache {
	return &ResultCache{cache: c, metrics: metrics}
}

// cacheKey hashes the portrait entries in dimension order. Any change to a
// position, intensity or confidence yields a new key.
func cacheKey(user portrait.Portrait, country string, limit int) string {
	encoded, err := json.Marshal(user.Entries)
	if err != nil {
		return ""
	}
	return cache.Key("ranking", string(encoded), country, strconv.Itoa(limit))
}

// Get returns a cached result.
func (rc *ResultCache) Get(user portrait.Portrait, country string, limit int) ([]Ranked, bool) {
	if rc == nil || rc.cache == nil {
		return nil, false
	}
	key := cacheKey(user, country, limit)
	if key == "" {
		return nil, false
	}

	data, found := rc.cache.Get(key)
	rc.metrics.RecordCache(found)
	if !found {
		return nil, false
	}

	var ranked []Ranked
	if err := json.Unmarshal(data, &ranked); err != nil {
		slog.Error("Failed to unmarshal cached ranking", "error", err)
		rc.cache.Delete(key)
		return nil, false
	}
	return ranked, true
}

// Set caches a result.
func (rc *ResultCache) Set(user portrait.Portrait, country string, limit int, ranked []Ranked) {
	if rc == nil || rc.cache == nil {
		return
	}
	key := cacheKey(user, country, limit)
	if key == "" {
		return
	}
	data, err := json.Marshal(ranked)
	if err != nil {
		slog.Error("Failed to marshal ranking for cache", "error", err)
		return
	}
	rc.cache.Set(key, data)
}

// InvalidateAll drops every cached ranking, e.g. after the actors change.
func (rc *ResultCache) InvalidateAll() {
	if rc == nil || rc.cache == nil {
		return
	}
	rc.cache.Clear()
}
