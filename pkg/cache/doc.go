// Package cache provides the price stores used by both tiers.
//
// A Store maps a normalized coin identifier to a price.Record with a per-key
// TTL. Two implementations are provided:
//
//   - MemoryStore keeps entries in process memory. The edge service uses it
//     as its price cache.
//   - RedisStore keeps entries in Redis. The consumer tier uses it so that
//     short-lived consumer processes share one cache substrate.
//
// Both stores follow the same rules:
//
//   - An entry is readable only while now - CachedAt < TTL. Expired entries
//     are reported as ErrCacheMiss and evicted lazily on read.
//   - Set replaces any existing entry for the key (last write wins, no merge).
//   - Error records are rejected with ErrUncacheable.
//
// # Basic Usage
//
//	store := cache.NewMemoryStore("edge")
//
//	if err := store.Set(ctx, "bitcoin", record, 60*time.Second); err != nil {
//		return err
//	}
//
//	record, err := store.Get(ctx, "bitcoin")
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Cache miss - fetch from upstream
//	}
//
// # Metrics
//
//   - price_cache_hits_total{tier} - Cache hits
//   - price_cache_misses_total{tier} - Cache misses (absent or expired)
//   - price_cache_evictions_total{tier} - Expired entries removed
//   - price_cache_entries{tier} - Entries held by a MemoryStore
//   - price_cache_errors_total{tier,operation} - Store operation errors
package cache
