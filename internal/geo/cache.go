package geo

import (
	"fmt"
	"sync"
)

// Cache capacity constants.
const (
	// MaxCacheEntries is the soft cap on cached distances.
	MaxCacheEntries = 1000

	// retainedOnEvict is how many of the most recently inserted entries
	// survive an eviction pass.
	retainedOnEvict = MaxCacheEntries / 2
)

// DistanceCache memoizes Haversine distances keyed by the four input
// coordinates rounded to 4 decimal places. Physically distinct but very
// close coordinate pairs may collide on the same key and share a value;
// that is an accepted approximation at this precision.
//
// When an insert would push the cache past MaxCacheEntries, only the most
// recently inserted half is retained before the new entry goes in. This
// approximates LRU using insertion order rather than recency of access.
type DistanceCache struct {
	mu      sync.Mutex
	entries map[string]float64
	order   []string
	hits    uint64
	misses  uint64
}

// CacheStats reports cache occupancy for diagnostics.
type CacheStats struct {
	Size     int
	Capacity int
	Hits     uint64
	Misses   uint64
}

// NewDistanceCache creates an empty distance cache.
func NewDistanceCache() *DistanceCache {
	return &DistanceCache{
		entries: make(map[string]float64),
	}
}

// Distance returns the cached distance for the given coordinates, computing
// and storing it on a miss.
func (c *DistanceCache) Distance(lat1, lon1, lat2, lon2 float64) float64 {
	key := cacheKey(lat1, lon1, lat2, lon2)

	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.entries[key]; ok {
		c.hits++
		return d
	}
	c.misses++

	d := Distance(lat1, lon1, lat2, lon2)
	c.insert(key, d)
	return d
}

// insert stores a new entry, evicting the oldest half first when the cache
// is at capacity. Caller must hold the lock.
func (c *DistanceCache) insert(key string, d float64) {
	if len(c.order) >= MaxCacheEntries {
		retained := c.order[len(c.order)-retainedOnEvict:]
		entries := make(map[string]float64, MaxCacheEntries)
		for _, k := range retained {
			entries[k] = c.entries[k]
		}
		c.entries = entries
		c.order = append(c.order[:0], retained...)
	}

	c.entries[key] = d
	c.order = append(c.order, key)
}

// Clear empties the cache. Called on filter reset and on view teardown to
// bound memory across a session.
func (c *DistanceCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]float64)
	c.order = c.order[:0]
}

// Stats returns the current size and capacity of the cache.
func (c *DistanceCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Size:     len(c.entries),
		Capacity: MaxCacheEntries,
		Hits:     c.hits,
		Misses:   c.misses,
	}
}

// cacheKey builds the lookup key from the four coordinates rounded to
// 4 decimal places.
func cacheKey(lat1, lon1, lat2, lon2 float64) string {
	return fmt.Sprintf("%.4f,%.4f:%.4f,%.4f", lat1, lon1, lat2, lon2)
}
