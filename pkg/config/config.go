// Package config loads the edge service and consumer configuration from the
// environment, optionally preloaded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/coin-price-cache/pkg/logging"
	"github.com/Sternrassler/coin-price-cache/pkg/pricing"
	"github.com/Sternrassler/coin-price-cache/pkg/upstream"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// Edge holds the edge service configuration.
type Edge struct {
	Port string

	// Provider
	UpstreamURL     string
	APIKey          string
	APIKeyHeader    string
	Currency        string
	UpstreamTimeout time.Duration

	// Caching
	CacheTTL      time.Duration
	SweepInterval time.Duration

	Log logging.Config
}

// Consumer holds the consumer tier configuration.
type Consumer struct {
	Addr string

	// Edge service
	EdgeURL     string
	EdgeTimeout time.Duration

	// Widget
	CoinID          string
	RefreshInterval time.Duration

	// Caching; RedisURL empty selects the in-memory store.
	CacheTTL time.Duration
	RedisURL string

	Log logging.Config
}

// LoadDotEnv loads variables from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadEdge reads the edge configuration from the environment and validates it.
func LoadEdge() (Edge, error) {
	var errs []error

	cfg := Edge{
		Port:         getEnv("PORT", "3000"),
		UpstreamURL:  os.Getenv("COINGECKO_API_URL"),
		APIKey:       os.Getenv("COINGECKO_API_KEY"),
		APIKeyHeader: getEnv("COINGECKO_API_KEY_HEADER", upstream.DefaultAPIKeyHeader),
		Currency:     getEnv("PRICE_CURRENCY", upstream.DefaultCurrency),
		Log:          loadLog("price-api", &errs),
	}
	cfg.UpstreamTimeout = getDuration("UPSTREAM_TIMEOUT", upstream.DefaultTimeout, &errs)
	cfg.CacheTTL = getDuration("EDGE_CACHE_TTL", pricing.DefaultTTL, &errs)
	cfg.SweepInterval = getDuration("EDGE_SWEEP_INTERVAL", 5*time.Minute, &errs)

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	return cfg, errors.Join(errs...)
}

// Validate reports every missing or invalid setting.
func (c Edge) Validate() error {
	var errs []error
	if c.UpstreamURL == "" {
		errs = append(errs, fmt.Errorf("COINGECKO_API_URL is required"))
	} else if err := validateURL(c.UpstreamURL); err != nil {
		errs = append(errs, fmt.Errorf("COINGECKO_API_URL: %w", err))
	}
	if c.APIKey == "" {
		errs = append(errs, fmt.Errorf("COINGECKO_API_KEY is required"))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, fmt.Errorf("UPSTREAM_TIMEOUT must be > 0"))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("EDGE_CACHE_TTL must be > 0"))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT must be numeric (got %q)", c.Port))
	}
	return errors.Join(errs...)
}

// UpstreamConfig builds the provider client configuration.
func (c Edge) UpstreamConfig() upstream.Config {
	cfg := upstream.DefaultConfig(c.UpstreamURL, c.APIKey)
	cfg.APIKeyHeader = c.APIKeyHeader
	cfg.Currency = c.Currency
	cfg.Timeout = c.UpstreamTimeout
	return cfg
}

// Addr is the listen address.
func (c Edge) Addr() string {
	return ":" + c.Port
}

// LoadConsumer reads the consumer configuration from the environment and validates it.
func LoadConsumer() (Consumer, error) {
	var errs []error

	cfg := Consumer{
		Addr:     getEnv("CONSUMER_ADDR", ":8081"),
		EdgeURL:  getEnv("PRICE_API_URL", "http://localhost:3000"),
		CoinID:   getEnv("COIN_ID", "bitcoin"),
		RedisURL: os.Getenv("REDIS_URL"),
		Log:      loadLog("price-ticker", &errs),
	}
	cfg.EdgeTimeout = getDuration("EDGE_TIMEOUT", 10*time.Second, &errs)
	cfg.RefreshInterval = getDuration("REFRESH_INTERVAL", 60*time.Second, &errs)
	cfg.CacheTTL = getDuration("CONSUMER_CACHE_TTL", pricing.DefaultTTL, &errs)

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	return cfg, errors.Join(errs...)
}

// Validate reports every missing or invalid setting.
func (c Consumer) Validate() error {
	var errs []error
	if err := validateURL(c.EdgeURL); err != nil {
		errs = append(errs, fmt.Errorf("PRICE_API_URL: %w", err))
	}
	if strings.TrimSpace(c.CoinID) == "" {
		errs = append(errs, fmt.Errorf("COIN_ID is required"))
	}
	if c.EdgeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("EDGE_TIMEOUT must be > 0"))
	}
	if c.RefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("REFRESH_INTERVAL must be > 0"))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("CONSUMER_CACHE_TTL must be > 0"))
	}
	return errors.Join(errs...)
}

// RedisOptions returns client options for RedisURL, which may be a
// redis:// URL or a bare host:port. Returns nil when RedisURL is empty.
func (c Consumer) RedisOptions() (*redis.Options, error) {
	if c.RedisURL == "" {
		return nil, nil
	}
	if strings.Contains(c.RedisURL, "://") {
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("REDIS_URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: c.RedisURL}, nil
}

func loadLog(service string, errs *[]error) logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Service = service
	cfg.Level = logging.LogLevel(getEnv("LOG_LEVEL", string(logging.LevelInfo)))
	cfg.Pretty = getBool("LOG_PRETTY", false, errs)
	return cfg
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https (got %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration accepts Go durations ("90s", "2m") or plain seconds ("60").
func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, value))
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool, errs *[]error) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid boolean %q", key, value))
		return defaultValue
	}
	return b
}
