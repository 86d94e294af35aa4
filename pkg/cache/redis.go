package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/coin-price-cache/pkg/price"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis. Redis expires keys on its own; the
// stored Expires stamp is checked on read as well so that clock skew between
// Redis and this process never yields a stale read.
type RedisStore struct {
	redis *redis.Client
	tier  string
	now   func() time.Time
}

// NewRedisStore creates a new store with Redis backend.
func NewRedisStore(redisClient *redis.Client, tier string) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis: redisClient,
		tier:  tier,
		now:   time.Now,
	}
}

func (s *RedisStore) key(coinID string) string {
	return CacheKey{Tier: s.tier, CoinID: coinID}.String()
}

// Get retrieves a record by key.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
func (s *RedisStore) Get(ctx context.Context, key string) (price.Record, error) {
	redisKey := s.key(key)

	data, err := s.redis.Get(ctx, redisKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.WithLabelValues(s.tier).Inc()
			return price.Record{}, ErrCacheMiss
		}
		CacheErrors.WithLabelValues(s.tier, "get").Inc()
		return price.Record{}, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues(s.tier, "get").Inc()
		return price.Record{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	// A stale entry is left for Redis to expire; deleting it here could race
	// with a concurrent Set of a fresh value under the same key.
	if entry.IsExpired(s.now()) {
		CacheMisses.WithLabelValues(s.tier).Inc()
		return price.Record{}, ErrCacheMiss
	}

	CacheHits.WithLabelValues(s.tier).Inc()
	return entry.Record, nil
}

// Set stores record under key with TTL. The key is removed from Redis
// automatically when it expires.
func (s *RedisStore) Set(ctx context.Context, key string, record price.Record, ttl time.Duration) error {
	if err := checkCacheable(record); err != nil {
		CacheErrors.WithLabelValues(s.tier, "set").Inc()
		return err
	}
	if ttl <= 0 {
		// Already expired, don't cache
		return nil
	}

	entry := newEntry(key, record, s.now(), ttl)

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues(s.tier, "set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.redis.Set(ctx, s.key(key), data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues(s.tier, "set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

// SetClock overrides the time source (for testing).
func (s *RedisStore) SetClock(now func() time.Time) {
	s.now = now
}
