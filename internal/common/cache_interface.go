package common

import "time"

// CacheInterface defines the contract for hot-cache implementations.
// The directory service and provider layer only depend on this interface so
// the backend (in-memory or Redis) is a deployment choice.
type CacheInterface interface {
	// Set stores a value in cache with the given key and duration
	Set(key string, value interface{}, duration time.Duration)

	// Get retrieves a value from cache by key
	Get(key string) (interface{}, bool)

	// Delete removes a value from cache by key
	Delete(key string)

	// GetOrSet retrieves a value, or loads and stores it on miss
	GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error)

	// Close closes any underlying connections
	Close() error
}
