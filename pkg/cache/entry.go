package cache

import (
	"time"

	"github.com/Sternrassler/coin-price-cache/pkg/price"
)

// Entry represents a cached price record.
type Entry struct {
	// Key is the normalized coin identifier owning this entry.
	Key string `json:"key"`

	// Record is the cached quote.
	Record price.Record `json:"record"`

	// CachedAt is when the entry was stored.
	CachedAt time.Time `json:"cached_at"`

	// Expires is CachedAt + TTL.
	Expires time.Time `json:"expires"`
}

// newEntry stamps record at now with the given TTL.
func newEntry(key string, record price.Record, now time.Time, ttl time.Duration) *Entry {
	return &Entry{
		Key:      key,
		Record:   record,
		CachedAt: now,
		Expires:  now.Add(ttl),
	}
}

// IsExpired returns true once now has reached the entry's expiry.
func (e *Entry) IsExpired(now time.Time) bool {
	return !now.Before(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL(now time.Time) time.Duration {
	ttl := e.Expires.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}
