package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Sternrassler/coin-price-cache/pkg/price"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache or has expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted.
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrUncacheable indicates an attempt to store an error record.
	ErrUncacheable = errors.New("error records are not cacheable")
)

// Store is a key to price.Record store with per-key TTL.
// Implementations must be safe for concurrent use and atomic per key.
type Store interface {
	// Get returns the record for key, or ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) (price.Record, error)

	// Set replaces the entry for key with record, stamped now and valid for ttl.
	// A non-positive ttl stores nothing.
	Set(ctx context.Context, key string, record price.Record, ttl time.Duration) error
}

func checkCacheable(record price.Record) error {
	if record.IsError {
		return ErrUncacheable
	}
	return nil
}
