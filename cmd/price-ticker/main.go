package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/coin-price-cache/pkg/cache"
	"github.com/Sternrassler/coin-price-cache/pkg/config"
	"github.com/Sternrassler/coin-price-cache/pkg/consumer"
	"github.com/Sternrassler/coin-price-cache/pkg/logging"
	"github.com/Sternrassler/coin-price-cache/pkg/widget"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const shutdownTimeout = 5 * time.Second

type options struct {
	envFile  string
	coinID   string
	edgeURL  string
	addr     string
	interval time.Duration
	ttl      time.Duration
	redisURL string
	noWidget bool

	flags *pflag.FlagSet
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("price-ticker", pflag.ContinueOnError)
	fs.StringVar(&opts.envFile, "env-file", ".env", "file to preload environment variables from")
	fs.StringVarP(&opts.coinID, "coin", "c", "", "coin id to show (overrides COIN_ID)")
	fs.StringVar(&opts.edgeURL, "api", "", "price API base URL (overrides PRICE_API_URL)")
	fs.StringVar(&opts.addr, "addr", "", "action endpoint listen address (overrides CONSUMER_ADDR)")
	fs.DurationVarP(&opts.interval, "interval", "i", 0, "passive refresh interval (overrides REFRESH_INTERVAL)")
	fs.DurationVar(&opts.ttl, "ttl", 0, "consumer cache TTL (overrides CONSUMER_CACHE_TTL)")
	fs.StringVar(&opts.redisURL, "redis", "", "Redis address or URL for the consumer cache (overrides REDIS_URL)")
	fs.BoolVar(&opts.noWidget, "no-widget", false, "serve the action endpoint without drawing the ticker")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.flags = fs
	return opts, nil
}

func (o *options) apply(cfg *config.Consumer) {
	if o.flags.Changed("coin") {
		cfg.CoinID = o.coinID
	}
	if o.flags.Changed("api") {
		cfg.EdgeURL = o.edgeURL
	}
	if o.flags.Changed("addr") {
		cfg.Addr = o.addr
	}
	if o.flags.Changed("interval") {
		cfg.RefreshInterval = o.interval
	}
	if o.flags.Changed("ttl") {
		cfg.CacheTTL = o.ttl
	}
	if o.flags.Changed("redis") {
		cfg.RedisURL = o.redisURL
	}
}

func loadConfig(args []string) (config.Consumer, *options, error) {
	opts, err := parseFlags(args)
	if err != nil {
		return config.Consumer{}, nil, err
	}
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return config.Consumer{}, nil, err
	}

	cfg, err := config.LoadConsumer()
	if err != nil {
		return config.Consumer{}, nil, err
	}
	opts.apply(&cfg)
	return cfg, opts, cfg.Validate()
}

// newStore returns the Redis store when configured, the in-memory store otherwise.
func newStore(ctx context.Context, cfg config.Consumer) (cache.Store, func(), error) {
	redisOpts, err := cfg.RedisOptions()
	if err != nil {
		return nil, nil, err
	}

	if redisOpts == nil {
		store := cache.NewMemoryStore(consumer.Tier)
		store.StartJanitor(ctx, cfg.CacheTTL)
		log.Info().Msg("Using in-memory consumer cache")
		return store, func() {}, nil
	}

	client := redis.NewClient(redisOpts)
	store := cache.NewRedisStore(client, consumer.Tier)
	if err := store.Ping(ctx); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", redisOpts.Addr, err)
	}
	log.Info().Str("addr", redisOpts.Addr).Msg("Connected to Redis")
	return store, func() { client.Close() }, nil
}

func newRelay(store cache.Store, cfg config.Consumer) (*consumer.Relay, error) {
	edgeClient, err := consumer.NewEdgeClient(consumer.EdgeConfig{
		BaseURL: cfg.EdgeURL,
		Timeout: cfg.EdgeTimeout,
	})
	if err != nil {
		return nil, err
	}

	relayCfg := consumer.DefaultConfig(cfg.CoinID)
	relayCfg.TTL = cfg.CacheTTL
	relayCfg.RefreshInterval = cfg.RefreshInterval
	return consumer.NewRelay(store, edgeClient, relayCfg)
}

// newMux serves the action endpoint and the widget's initial context.
func newMux(relay *consumer.Relay) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/action", consumer.NewActionHandler(relay))
	mux.HandleFunc("GET /widget", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := json.NewEncoder(w).Encode(relay.Render(r.Context())); err != nil {
			log.Warn().Err(err).Msg("Failed to write widget context")
		}
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	})
	return mux
}

func main() {
	cfg, opts, err := loadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Setup(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create consumer cache")
	}
	defer closeStore()

	relay, err := newRelay(store, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create relay")
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(relay),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("coin_id", cfg.CoinID).Msg("Serving action endpoint")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Action endpoint failed")
			stop()
		}
	}()

	if !opts.noWidget {
		renderer := widget.New(os.Stdout)
		initial := relay.Render(ctx)
		renderer.Render(initial.Ticker, time.Now())

		go relay.Watch(ctx, func(v consumer.View) {
			if err := renderer.Render(v, time.Now()); err != nil {
				log.Warn().Err(err).Msg("Failed to draw ticker")
			}
		})
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
