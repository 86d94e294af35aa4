package cache

import (
	"strings"
)

// KeyPrefix namespaces every Redis key written by this package.
const KeyPrefix = "price"

// CacheKey identifies a cached record in a shared key space.
type CacheKey struct {
	// Tier is the owning cache tier (e.g. "edge", "consumer").
	Tier string

	// CoinID is the normalized coin identifier, used verbatim.
	CoinID string
}

// String generates a deterministic key string.
// Format: price:tier:coinID
//
// Example:
//
//	price:consumer:bitcoin
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	if tier := strings.TrimSpace(k.Tier); tier != "" {
		parts = append(parts, tier)
	}
	parts = append(parts, k.CoinID)

	return strings.Join(parts, ":")
}
