package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/coin-price-cache/pkg/cache"
	"github.com/Sternrassler/coin-price-cache/pkg/config"
	"github.com/Sternrassler/coin-price-cache/pkg/edge"
	"github.com/Sternrassler/coin-price-cache/pkg/logging"
	"github.com/Sternrassler/coin-price-cache/pkg/price"
	"github.com/Sternrassler/coin-price-cache/pkg/pricing"
	"github.com/Sternrassler/coin-price-cache/pkg/upstream"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const (
	version         = "0.1.0"
	shutdownTimeout = 10 * time.Second
)

type options struct {
	envFile  string
	port     string
	ttl      time.Duration
	logLevel string
	pretty   bool

	flags *pflag.FlagSet
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("price-api", pflag.ContinueOnError)
	fs.StringVar(&opts.envFile, "env-file", ".env", "file to preload environment variables from")
	fs.StringVarP(&opts.port, "port", "p", "", "listen port (overrides PORT)")
	fs.DurationVar(&opts.ttl, "ttl", 0, "edge cache TTL (overrides EDGE_CACHE_TTL)")
	fs.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	fs.BoolVar(&opts.pretty, "pretty", false, "human-readable logs (overrides LOG_PRETTY)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.flags = fs
	return opts, nil
}

// apply overrides cfg with the flags given on the command line.
func (o *options) apply(cfg *config.Edge) {
	if o.flags.Changed("port") {
		cfg.Port = o.port
	}
	if o.flags.Changed("ttl") {
		cfg.CacheTTL = o.ttl
	}
	if o.flags.Changed("log-level") {
		cfg.Log.Level = logging.LogLevel(o.logLevel)
	}
	if o.flags.Changed("pretty") {
		cfg.Log.Pretty = o.pretty
	}
}

func loadConfig(args []string) (config.Edge, error) {
	opts, err := parseFlags(args)
	if err != nil {
		return config.Edge{}, err
	}
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return config.Edge{}, err
	}

	cfg, err := config.LoadEdge()
	if err != nil {
		return config.Edge{}, err
	}
	opts.apply(&cfg)
	return cfg, cfg.Validate()
}

// newServer wires the provider client, edge cache and HTTP handler.
func newServer(cfg config.Edge) (*http.Server, *cache.MemoryStore, error) {
	upstreamCfg := cfg.UpstreamConfig()
	upstreamCfg.UserAgent = "coin-price-cache/" + version
	client, err := upstream.New(upstreamCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create provider client: %w", err)
	}

	store := cache.NewMemoryStore("edge")

	serviceCfg := pricing.DefaultConfig("edge", price.KindUnavailable)
	serviceCfg.TTL = cfg.CacheTTL
	serviceCfg.FetchTimeout = cfg.UpstreamTimeout
	service, err := pricing.New(store, client, serviceCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create price service: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           edge.NewHandler(service),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server, store, nil
}

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Setup(cfg.Log)

	server, store, err := newServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SweepInterval > 0 {
		store.StartJanitor(ctx, cfg.SweepInterval)
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Dur("ttl", cfg.CacheTTL).
			Dur("upstream_timeout", cfg.UpstreamTimeout).
			Msg("Starting price API")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
