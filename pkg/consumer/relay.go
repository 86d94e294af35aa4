// Package consumer implements the consumer tier: a relay that caches the
// edge service's answers with its own TTL, turns failures into error views
// and serves the widget's refresh action.
package consumer

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/coin-price-cache/pkg/cache"
	"github.com/Sternrassler/coin-price-cache/pkg/logging"
	"github.com/Sternrassler/coin-price-cache/pkg/price"
	"github.com/Sternrassler/coin-price-cache/pkg/pricing"
	"github.com/rs/zerolog"
)

// Tier labels the consumer tier in logs, metrics and cache keys.
const Tier = "consumer"

// DefaultActionURL is the path the widget posts refresh actions to.
const DefaultActionURL = "/action?action=" + ActionGetPrice

// Config holds the relay configuration.
type Config struct {
	// CoinID is the coin the widget shows.
	CoinID string

	// ActionURL is handed to the widget for refresh actions.
	ActionURL string

	// TTL is the consumer cache lifetime.
	TTL time.Duration

	// RefreshInterval is the passive timer period. It is independent of TTL.
	RefreshInterval time.Duration
}

// DefaultConfig returns a configuration for coinID with 60s TTL and interval.
func DefaultConfig(coinID string) Config {
	return Config{
		CoinID:          coinID,
		ActionURL:       DefaultActionURL,
		TTL:             pricing.DefaultTTL,
		RefreshInterval: 60 * time.Second,
	}
}

// WidgetContext is the initial state handed to the widget.
type WidgetContext struct {
	Ticker    View   `json:"cryptoPriceTicker"`
	CoinID    string `json:"coinId"`
	ActionURL string `json:"actionUrl"`
}

// Relay serves prices to the presentation layer from the consumer cache,
// falling back to the edge service.
type Relay struct {
	service *pricing.Service
	config  Config
	logger  zerolog.Logger
}

// NewRelay creates a relay over store that fetches through fetcher.
func NewRelay(store cache.Store, fetcher pricing.Fetcher, cfg Config) (*Relay, error) {
	if price.NormalizeCoinID(cfg.CoinID) == "" {
		return nil, fmt.Errorf("coin id is required")
	}
	if cfg.RefreshInterval <= 0 {
		return nil, fmt.Errorf("refresh interval must be > 0 (got %s)", cfg.RefreshInterval)
	}
	if cfg.ActionURL == "" {
		cfg.ActionURL = DefaultActionURL
	}

	svcCfg := pricing.DefaultConfig(Tier, price.KindUnreachable)
	svcCfg.TTL = cfg.TTL
	service, err := pricing.New(store, fetcher, svcCfg)
	if err != nil {
		return nil, err
	}

	return &Relay{
		service: service,
		config:  cfg,
		logger:  logging.NewLogger("relay").With().Str("tier", Tier).Logger(),
	}, nil
}

// Fetch is the passive path: cached view when fresh, otherwise one fetch
// from the edge. On failure it returns the error view together with the error.
func (r *Relay) Fetch(ctx context.Context, coinID string) (View, error) {
	record, err := r.service.GetPrice(ctx, coinID)
	return r.present(coinID, record, err)
}

// ForceRefresh always fetches from the edge, writing through to the cache
// on success. Failures leave the cache untouched.
func (r *Relay) ForceRefresh(ctx context.Context, coinID string) (View, error) {
	record, err := r.service.Refresh(ctx, coinID)
	return r.present(coinID, record, err)
}

func (r *Relay) present(coinID string, record price.Record, err error) (View, error) {
	if err != nil {
		r.logger.Warn().Err(err).Str("coin_id", coinID).Msg("Showing error record")
		return ErrorRecord(coinID, err), err
	}
	return NewView(record), nil
}

// Render returns the widget's initial context for the configured coin.
func (r *Relay) Render(ctx context.Context) WidgetContext {
	view, _ := r.Fetch(ctx, r.config.CoinID)
	return WidgetContext{
		Ticker:    view,
		CoinID:    r.config.CoinID,
		ActionURL: r.config.ActionURL,
	}
}

// Watch runs the passive path for the configured coin every
// RefreshInterval and hands each view to fn, until ctx is done.
func (r *Relay) Watch(ctx context.Context, fn func(View)) error {
	ticker := time.NewTicker(r.config.RefreshInterval)
	defer ticker.Stop()

	r.logger.Info().
		Str("coin_id", r.config.CoinID).
		Dur("interval", r.config.RefreshInterval).
		Msg("Passive refresh started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			view, _ := r.Fetch(ctx, r.config.CoinID)
			fn(view)
		}
	}
}

// Config returns the relay configuration.
func (r *Relay) Config() Config {
	return r.config
}
