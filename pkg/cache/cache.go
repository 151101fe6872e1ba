package cache

import "time"

// Cache is the interface for the aggregator's result cache.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns (value, true) if found and fresh, (nil, false) otherwise.
	Get(key string) (interface{}, bool)

	// Set stores a value in the cache with a TTL, replacing any previous entry.
	Set(key string, value interface{}, ttl time.Duration)

	// Clear removes all values from the cache.
	Clear()
}
