package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type entry struct {
	value     interface{}
	writtenAt time.Time
	ttl       time.Duration
}

func (e entry) fresh(now time.Time) bool {
	return now.Sub(e.writtenAt) < e.ttl
}

// TTLCache is an in-memory Cache with per-entry lifetimes and lazy expiry.
// Expired entries are only removed when a lookup observes them or on Clear;
// the key space is bounded by configuration so there is no size limit.
type TTLCache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
	logger  *zap.Logger
}

// TTLConfig holds configuration for TTLCache.
type TTLConfig struct {
	Logger *zap.Logger
	Now    func() time.Time // defaults to time.Now
}

// NewTTLCache creates an empty TTLCache.
func NewTTLCache(cfg *TTLConfig) *TTLCache {
	c := &TTLCache{
		entries: make(map[string]entry),
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	if cfg != nil {
		if cfg.Now != nil {
			c.now = cfg.Now
		}
		if cfg.Logger != nil {
			c.logger = cfg.Logger
		}
	}
	return c
}

// Get retrieves a fresh value. An expired entry is evicted and reported as missing.
func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	e, found := c.entries[key]
	if found && !e.fresh(c.now()) {
		delete(c.entries, key)
		CacheEntries.Set(float64(len(c.entries)))
		c.mu.Unlock()

		CacheExpirationsTotal.Inc()
		CacheMissesTotal.Inc()
		c.logger.Debug("cache-expired", zap.String("key", key))
		return nil, false
	}
	c.mu.Unlock()

	if !found {
		CacheMissesTotal.Inc()
		c.logger.Debug("cache-miss", zap.String("key", key))
		return nil, false
	}

	CacheHitsTotal.Inc()
	c.logger.Debug("cache-hit", zap.String("key", key))
	return e.value, true
}

// Set stores a value, overwriting any existing entry for key.
func (c *TTLCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, writtenAt: c.now(), ttl: ttl}
	CacheEntries.Set(float64(len(c.entries)))
	c.mu.Unlock()

	CacheSetsTotal.Inc()
	c.logger.Debug("cache-set",
		zap.String("key", key),
		zap.Duration("ttl", ttl))
}

// Clear drops every entry in one step.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	dropped := len(c.entries)
	c.entries = make(map[string]entry)
	CacheEntries.Set(0)
	c.mu.Unlock()

	CacheClearsTotal.Inc()
	c.logger.Info("cache-cleared", zap.Int("dropped", dropped))
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
