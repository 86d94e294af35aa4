package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/coin-price-cache/pkg/price"
)

// MemoryStore is an in-process Store. Entries do not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	tier    string
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store labelled with tier for metrics.
func NewMemoryStore(tier string) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		tier:    tier,
		now:     time.Now,
	}
}

// Get retrieves a record by key.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
func (m *MemoryStore) Get(_ context.Context, key string) (price.Record, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		CacheMisses.WithLabelValues(m.tier).Inc()
		return price.Record{}, ErrCacheMiss
	}

	if entry.IsExpired(m.now()) {
		m.evict(key, entry)
		CacheMisses.WithLabelValues(m.tier).Inc()
		return price.Record{}, ErrCacheMiss
	}

	CacheHits.WithLabelValues(m.tier).Inc()
	return entry.Record, nil
}

// Set stores record under key for ttl, replacing any existing entry.
func (m *MemoryStore) Set(_ context.Context, key string, record price.Record, ttl time.Duration) error {
	if err := checkCacheable(record); err != nil {
		CacheErrors.WithLabelValues(m.tier, "set").Inc()
		return err
	}
	if ttl <= 0 {
		return nil
	}

	entry := newEntry(key, record, m.now(), ttl)

	m.mu.Lock()
	m.entries[key] = entry
	size := len(m.entries)
	m.mu.Unlock()

	CacheEntries.WithLabelValues(m.tier).Set(float64(size))
	return nil
}

// evict removes key only if it still holds the expired entry observed by the
// caller, so a concurrent Set is never undone.
func (m *MemoryStore) evict(key string, expired *Entry) {
	m.mu.Lock()
	if current, ok := m.entries[key]; ok && current == expired {
		delete(m.entries, key)
		CacheEvictions.WithLabelValues(m.tier).Inc()
	}
	size := len(m.entries)
	m.mu.Unlock()

	CacheEntries.WithLabelValues(m.tier).Set(float64(size))
}

// Sweep removes all expired entries and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	now := m.now()

	m.mu.Lock()
	removed := 0
	for key, entry := range m.entries {
		if entry.IsExpired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	size := len(m.entries)
	m.mu.Unlock()

	if removed > 0 {
		CacheEvictions.WithLabelValues(m.tier).Add(float64(removed))
	}
	CacheEntries.WithLabelValues(m.tier).Set(float64(size))
	return removed
}

// StartJanitor runs Sweep every interval until ctx is cancelled.
func (m *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}

// Len returns the number of physically stored entries, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// SetClock overrides the time source (for testing).
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.now = now
}
