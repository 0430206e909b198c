package utils

import (
	"math"
	"sync"
	"time"

	"fleetwatch/internal/model"
)

// ReadingCache is a small in-memory TTL cache of the last reading pushed
// per unit. It is thread-safe and used on the ingest hot path to drop
// consecutive unchanged readings.
type ReadingCache struct {
	mu   sync.Mutex
	ttl  time.Duration
	data map[string]entry
}

type entry struct {
	r  model.Reading
	at time.Time
}

// NewReadingCache creates a cache with the given TTL. If ttl <= 0, it
// defaults to 1h.
func NewReadingCache(ttl time.Duration) *ReadingCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ReadingCache{ttl: ttl, data: make(map[string]entry, 64)}
}

// Get returns the cached reading if it exists and hasn't expired.
func (c *ReadingCache) Get(unitID string) (model.Reading, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[unitID]
	if !ok {
		return model.Reading{}, false
	}
	if time.Since(e.at) > c.ttl {
		delete(c.data, unitID)
		return model.Reading{}, false
	}
	return e.r, true
}

// Set stores the reading with the current timestamp.
func (c *ReadingCache) Set(unitID string, r model.Reading) {
	c.mu.Lock()
	c.data[unitID] = entry{r: r, at: time.Now()}
	c.mu.Unlock()
}

// FloatsEqual compares two floats with a small absolute tolerance, enough
// to absorb register decode jitter.
func FloatsEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// ReadingsEqual reports whether two readings carry the same measured
// values, ignoring timestamps.
func ReadingsEqual(a, b model.Reading) bool {
	return FloatsEqual(a.Hum, b.Hum) && FloatsEqual(a.Temp, b.Temp) && a.Battery == b.Battery
}
