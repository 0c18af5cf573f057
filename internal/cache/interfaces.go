package cache

import (
	"context"
	"time"
)

// Store is the durable key-value layer beneath the dataset cache, the
// annotation store and view sessions. Backends: memory, Redis, and the SQL
// stores in the repository package.
type Store interface {
	// Get retrieves a value by key. Returns ErrCacheMiss if not found or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A ttl of zero means the value never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if a live key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Keys lists live keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Clear removes all entries from the store.
	Clear(ctx context.Context) error
}

// Backend is a Store owned by the process: it can be swept, inspected and
// closed.
type Backend interface {
	Store

	// Sweep deletes expired entries and reports how many were removed.
	Sweep(ctx context.Context) (int64, error)

	// GetStats returns backend statistics for the admin endpoint.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	Close() error
}

// Common cache errors
type CacheError string

func (e CacheError) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found in cache.
	ErrCacheMiss CacheError = "cache miss"
)
