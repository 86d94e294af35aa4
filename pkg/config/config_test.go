package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setEdgeEnv(t *testing.T) {
	t.Helper()
	t.Setenv("COINGECKO_API_URL", "https://pro-api.coingecko.com/api/v3/coins/")
	t.Setenv("COINGECKO_API_KEY", "secret")
}

func TestLoadEdge_Defaults(t *testing.T) {
	setEdgeEnv(t)

	cfg, err := LoadEdge()
	if err != nil {
		t.Fatalf("LoadEdge failed: %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want 3000", cfg.Port)
	}
	if cfg.CacheTTL != 60*time.Second {
		t.Errorf("CacheTTL = %v, want 60s", cfg.CacheTTL)
	}
	if cfg.UpstreamTimeout <= 0 {
		t.Errorf("UpstreamTimeout = %v, want > 0", cfg.UpstreamTimeout)
	}
	if cfg.APIKeyHeader != "x-cg-pro-api-key" {
		t.Errorf("APIKeyHeader = %q", cfg.APIKeyHeader)
	}
	if cfg.Addr() != ":3000" {
		t.Errorf("Addr = %q, want :3000", cfg.Addr())
	}

	up := cfg.UpstreamConfig()
	if up.BaseURL != cfg.UpstreamURL || up.APIKey != "secret" || up.Timeout != cfg.UpstreamTimeout {
		t.Errorf("UpstreamConfig = %+v", up)
	}
}

func TestLoadEdge_FailsFast(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing url",
			env:     map[string]string{"COINGECKO_API_URL": "", "COINGECKO_API_KEY": "k"},
			wantErr: "COINGECKO_API_URL is required",
		},
		{
			name:    "missing key",
			env:     map[string]string{"COINGECKO_API_URL": "https://x.test/coins/", "COINGECKO_API_KEY": ""},
			wantErr: "COINGECKO_API_KEY is required",
		},
		{
			name: "zero timeout",
			env: map[string]string{
				"COINGECKO_API_URL": "https://x.test/coins/", "COINGECKO_API_KEY": "k", "UPSTREAM_TIMEOUT": "0",
			},
			wantErr: "UPSTREAM_TIMEOUT must be > 0",
		},
		{
			name: "bad ttl",
			env: map[string]string{
				"COINGECKO_API_URL": "https://x.test/coins/", "COINGECKO_API_KEY": "k", "EDGE_CACHE_TTL": "soon",
			},
			wantErr: `EDGE_CACHE_TTL: invalid duration "soon"`,
		},
		{
			name:    "bad url scheme",
			env:     map[string]string{"COINGECKO_API_URL": "ftp://x.test/", "COINGECKO_API_KEY": "k"},
			wantErr: "scheme must be http or https",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadEdge()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadEdge_Durations(t *testing.T) {
	setEdgeEnv(t)
	t.Setenv("EDGE_CACHE_TTL", "90")
	t.Setenv("UPSTREAM_TIMEOUT", "2500ms")

	cfg, err := LoadEdge()
	if err != nil {
		t.Fatalf("LoadEdge failed: %v", err)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("CacheTTL = %v, want 90s", cfg.CacheTTL)
	}
	if cfg.UpstreamTimeout != 2500*time.Millisecond {
		t.Errorf("UpstreamTimeout = %v, want 2.5s", cfg.UpstreamTimeout)
	}
}

func TestLoadConsumer_Defaults(t *testing.T) {
	cfg, err := LoadConsumer()
	if err != nil {
		t.Fatalf("LoadConsumer failed: %v", err)
	}

	if cfg.CoinID != "bitcoin" {
		t.Errorf("CoinID = %q, want bitcoin", cfg.CoinID)
	}
	if cfg.EdgeURL != "http://localhost:3000" {
		t.Errorf("EdgeURL = %q", cfg.EdgeURL)
	}
	if cfg.CacheTTL != 60*time.Second || cfg.RefreshInterval != 60*time.Second {
		t.Errorf("CacheTTL = %v, RefreshInterval = %v", cfg.CacheTTL, cfg.RefreshInterval)
	}

	opts, err := cfg.RedisOptions()
	if err != nil || opts != nil {
		t.Errorf("RedisOptions = %v, %v; want nil, nil without REDIS_URL", opts, err)
	}
}

func TestLoadConsumer_IndependentKnobs(t *testing.T) {
	t.Setenv("CONSUMER_CACHE_TTL", "30s")
	t.Setenv("REFRESH_INTERVAL", "5m")
	t.Setenv("COIN_ID", "ethereum")

	cfg, err := LoadConsumer()
	if err != nil {
		t.Fatalf("LoadConsumer failed: %v", err)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("CacheTTL = %v, want 30s", cfg.CacheTTL)
	}
	if cfg.RefreshInterval != 5*time.Minute {
		t.Errorf("RefreshInterval = %v, want 5m", cfg.RefreshInterval)
	}
	if cfg.CoinID != "ethereum" {
		t.Errorf("CoinID = %q, want ethereum", cfg.CoinID)
	}
}

func TestConsumer_RedisOptions(t *testing.T) {
	tests := []struct {
		name     string
		redisURL string
		wantAddr string
		wantDB   int
	}{
		{"host and port", "localhost:6379", "localhost:6379", 0},
		{"url with db", "redis://cache.internal:6380/2", "cache.internal:6380", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := Consumer{RedisURL: tt.redisURL}.RedisOptions()
			if err != nil {
				t.Fatalf("RedisOptions failed: %v", err)
			}
			if opts.Addr != tt.wantAddr || opts.DB != tt.wantDB {
				t.Errorf("opts = %s db %d, want %s db %d", opts.Addr, opts.DB, tt.wantAddr, tt.wantDB)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PRICE_TEST_FROM_FILE=file\nPRICE_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("PRICE_TEST_PRESET", "env")
	t.Setenv("PRICE_TEST_FROM_FILE", "")
	os.Unsetenv("PRICE_TEST_FROM_FILE")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}

	if got := os.Getenv("PRICE_TEST_FROM_FILE"); got != "file" {
		t.Errorf("PRICE_TEST_FROM_FILE = %q, want file", got)
	}
	if got := os.Getenv("PRICE_TEST_PRESET"); got != "env" {
		t.Errorf("existing variable overridden: %q", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}
