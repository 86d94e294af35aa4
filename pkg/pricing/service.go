// Package pricing implements the cache-or-fetch orchestrator shared by both
// tiers. The edge service runs it over an in-memory store and the pricing
// provider; the consumer tier runs it over its own store and the edge
// service's JSON contract.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/coin-price-cache/pkg/cache"
	"github.com/Sternrassler/coin-price-cache/pkg/logging"
	"github.com/Sternrassler/coin-price-cache/pkg/price"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_fetches_total",
		Help: "Total fetches issued to a tier's source by outcome",
	}, []string{"tier", "outcome"})

	coalescedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_fetch_coalesced_total",
		Help: "Total lookups served by a fetch shared with concurrent callers",
	}, []string{"tier"})
)

// DefaultTTL is the cache lifetime used by both tiers unless configured.
const DefaultTTL = 60 * time.Second

// ErrEmptyCoinID is returned for identifiers that are blank after normalization.
var ErrEmptyCoinID = errors.New("coin id is required")

// Fetcher retrieves a fresh record for a normalized coin id.
type Fetcher interface {
	FetchPrice(ctx context.Context, coinID string) (price.Record, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, coinID string) (price.Record, error)

// FetchPrice calls f.
func (f FetcherFunc) FetchPrice(ctx context.Context, coinID string) (price.Record, error) {
	return f(ctx, coinID)
}

// Config holds the orchestrator configuration.
type Config struct {
	// Tier labels logs and metrics (e.g. "edge", "consumer").
	Tier string

	// TTL is the lifetime of entries written by this service.
	TTL time.Duration

	// FailureKind is reported for every failure other than NotFound.
	FailureKind price.Kind

	// Coalesce shares one fetch among concurrent misses for the same key.
	Coalesce bool

	// FetchTimeout bounds a shared fetch, which runs detached from any single
	// caller's context. Zero leaves the bound to the Fetcher.
	FetchTimeout time.Duration
}

// DefaultConfig returns the configuration for a tier with the default TTL.
func DefaultConfig(tier string, failureKind price.Kind) Config {
	return Config{
		Tier:        tier,
		TTL:         DefaultTTL,
		FailureKind: failureKind,
		Coalesce:    true,
	}
}

// Service serves records from a Store and falls back to a Fetcher on miss.
type Service struct {
	store   cache.Store
	fetcher Fetcher
	config  Config
	group   singleflight.Group
	logger  zerolog.Logger
}

// New creates a new Service.
func New(store cache.Store, fetcher Fetcher, cfg Config) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("ttl must be > 0 (got %s)", cfg.TTL)
	}
	if cfg.FailureKind == "" || cfg.FailureKind == price.KindNotFound {
		return nil, fmt.Errorf("failure kind must be set and differ from %s", price.KindNotFound)
	}
	if cfg.Tier == "" {
		cfg.Tier = "default"
	}

	return &Service{
		store:   store,
		fetcher: fetcher,
		config:  cfg,
		logger:  logging.NewLogger("pricing").With().Str("tier", cfg.Tier).Logger(),
	}, nil
}

// GetPrice returns the cached record for coinID, fetching and caching it on miss.
// Failures are *price.Error of kind NotFound or the configured FailureKind and
// never touch the cache.
func (s *Service) GetPrice(ctx context.Context, coinID string) (price.Record, error) {
	key := price.NormalizeCoinID(coinID)
	if key == "" {
		return price.Record{}, ErrEmptyCoinID
	}

	record, err := s.store.Get(ctx, key)
	if err == nil {
		s.logger.Debug().Str("coin_id", key).Msg("Returning from cache")
		return record, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn().Err(err).Str("coin_id", key).Msg("Cache get error, treating as miss")
	}

	s.logger.Debug().Str("coin_id", key).Msg("No cache entry, fetching from source")

	if !s.config.Coalesce {
		return s.fetchAndStore(ctx, key)
	}
	return s.fetchShared(ctx, key)
}

// Refresh fetches coinID unconditionally, bypassing the cached value, and
// writes the result through to the cache on success.
func (s *Service) Refresh(ctx context.Context, coinID string) (price.Record, error) {
	key := price.NormalizeCoinID(coinID)
	if key == "" {
		return price.Record{}, ErrEmptyCoinID
	}

	s.logger.Debug().Str("coin_id", key).Msg("Forced refresh")
	return s.fetchAndStore(ctx, key)
}

// fetchShared joins or starts the single in-flight fetch for key.
func (s *Service) fetchShared(ctx context.Context, key string) (price.Record, error) {
	ch := s.group.DoChan(key, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if s.config.FetchTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, s.config.FetchTimeout)
			defer cancel()
		}
		return s.fetchAndStore(fetchCtx, key)
	})

	select {
	case <-ctx.Done():
		// The shared fetch keeps running and reports its own outcome.
		s.logger.Debug().Err(ctx.Err()).Str("coin_id", key).Msg("Caller left before shared fetch finished")
		return price.Record{}, &price.Error{Kind: s.config.FailureKind, CoinID: key, Err: ctx.Err()}
	case res := <-ch:
		if res.Shared {
			coalescedTotal.WithLabelValues(s.config.Tier).Inc()
		}
		if res.Err != nil {
			return price.Record{}, res.Err
		}
		return res.Val.(price.Record), nil
	}
}

// fetchAndStore performs one fetch and caches only a validated success.
func (s *Service) fetchAndStore(ctx context.Context, key string) (price.Record, error) {
	record, err := s.fetcher.FetchPrice(ctx, key)
	if err != nil {
		return price.Record{}, s.failure(key, err)
	}

	if verr := record.Validate(); verr != nil {
		return price.Record{}, s.failure(key, &price.Error{
			Kind: price.KindInvalidPayload, CoinID: key, Message: verr.Error(),
		})
	}

	fetchesTotal.WithLabelValues(s.config.Tier, "success").Inc()

	if err := s.store.Set(ctx, key, record, s.config.TTL); err != nil {
		s.logger.Warn().Err(err).Str("coin_id", key).Msg("Failed to cache record")
	} else {
		s.logger.Info().
			Str("coin_id", key).
			Dur("ttl", s.config.TTL).
			Msg("Cache saved")
	}

	return record, nil
}

// failure maps a fetch error onto the tier's taxonomy.
func (s *Service) failure(key string, err error) error {
	kind := s.config.FailureKind
	if errors.Is(err, price.ErrNotFound) {
		kind = price.KindNotFound
	}

	fetchesTotal.WithLabelValues(s.config.Tier, string(kind)).Inc()

	s.logger.Warn().
		Err(err).
		Str("coin_id", key).
		Str("error_class", string(kind)).
		Msg("Fetch failed, cache left unchanged")

	return &price.Error{Kind: kind, CoinID: key, Err: err}
}
