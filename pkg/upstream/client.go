// Package upstream provides the pricing provider client. It issues exactly one
// bounded read request per lookup and classifies every failure; retries are
// left to the caller.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/coin-price-cache/pkg/price"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Prometheus metrics for provider requests.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_upstream_requests_total",
		Help: "Total pricing provider requests by status",
	}, []string{"status"})

	upstreamRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "price_upstream_request_duration_seconds",
		Help:    "Pricing provider request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	upstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_upstream_errors_total",
		Help: "Total pricing provider errors by class",
	}, []string{"class"})
)

const (
	// DefaultAPIKeyHeader carries the provider credential.
	DefaultAPIKeyHeader = "x-cg-pro-api-key"

	// DefaultCurrency is the single reference currency requested.
	DefaultCurrency = "usd"

	// DefaultTimeout bounds every provider request.
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 1 << 20
)

// minimalQuery restricts the provider response to market data only.
var minimalQuery = url.Values{
	"localization":   []string{"false"},
	"tickers":        []string{"false"},
	"market_data":    []string{"true"},
	"community_data": []string{"false"},
	"developer_data": []string{"false"},
	"sparkline":      []string{"false"},
}

// Client fetches current prices from a CoinGecko-compatible provider.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the coin endpoint prefix; the coin id is appended to it.
	// Example: "https://pro-api.coingecko.com/api/v3/coins/"
	BaseURL string

	// APIKey is the provider credential (REQUIRED).
	APIKey string

	// APIKeyHeader is the header carrying APIKey.
	APIKeyHeader string

	// Currency selects market_data.current_price.<currency>.
	Currency string

	// Timeout bounds each request (REQUIRED, must be > 0).
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string
}

// DefaultConfig returns a configuration with the provider defaults filled in.
func DefaultConfig(baseURL, apiKey string) Config {
	return Config{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		APIKeyHeader: DefaultAPIKeyHeader,
		Currency:     DefaultCurrency,
		Timeout:      DefaultTimeout,
		UserAgent:    "coin-price-cache/1.0",
	}
}

// New creates a new provider client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = DefaultAPIKeyHeader
	}
	cfg.Currency = strings.ToLower(strings.TrimSpace(cfg.Currency))
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: log.With().Str("component", "upstream").Logger(),
	}, nil
}

// coinResponse is the subset of the provider payload we read.
type coinResponse struct {
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	MarketData *struct {
		CurrentPrice map[string]json.RawMessage `json:"current_price"`
	} `json:"market_data"`
}

// FetchPrice performs one request for coinID and returns a validated record.
//
// Failures are *price.Error values of kind KindNotFound (provider 404),
// KindInvalidPayload (well-formed response without a usable price) or
// KindUpstream (transport error, timeout, non-2xx status, malformed JSON).
func (c *Client) FetchPrice(ctx context.Context, coinID string) (price.Record, error) {
	startTime := time.Now()
	defer func() {
		upstreamRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	req, err := c.newRequest(ctx, coinID)
	if err != nil {
		return price.Record{}, c.fail(coinID, ErrorClassClient, &price.Error{
			Kind: price.KindUpstream, CoinID: coinID, Message: "create request", Err: err,
		})
	}

	c.logger.Debug().Str("coin_id", coinID).Msg("Requesting price from provider")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		upstreamRequestsTotal.WithLabelValues("network_error").Inc()
		return price.Record{}, c.fail(coinID, ErrorClassNetwork, &price.Error{
			Kind: price.KindUpstream, CoinID: coinID, Message: "request failed", Err: err,
		})
	}
	defer resp.Body.Close()

	upstreamRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotFound {
		return price.Record{}, c.fail(coinID, ErrorClassClient, &price.Error{
			Kind: price.KindNotFound, CoinID: coinID, StatusCode: resp.StatusCode,
		})
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return price.Record{}, c.fail(coinID, classifyStatus(resp.StatusCode), &price.Error{
			Kind: price.KindUpstream, CoinID: coinID, StatusCode: resp.StatusCode, Message: resp.Status,
		})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return price.Record{}, c.fail(coinID, ErrorClassNetwork, &price.Error{
			Kind: price.KindUpstream, CoinID: coinID, StatusCode: resp.StatusCode, Message: "read body", Err: err,
		})
	}

	record, err := c.decode(coinID, body)
	if err != nil {
		class := ErrorClassPayload
		if errors.Is(err, price.ErrUpstream) {
			class = ErrorClassMalformed
		}
		return price.Record{}, c.fail(coinID, class, err)
	}

	c.logger.Debug().
		Str("coin_id", coinID).
		Str("price", record.Price.String()).
		Dur("duration", time.Since(startTime)).
		Msg("Provider returned price")

	return record, nil
}

func (c *Client) newRequest(ctx context.Context, coinID string) (*http.Request, error) {
	endpoint := c.config.BaseURL + url.PathEscape(coinID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	for key, values := range minimalQuery {
		for _, v := range values {
			q.Set(key, v)
		}
	}
	req.URL.RawQuery = q.Encode()

	req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	return req, nil
}

// decode turns a 2xx body into a validated record.
func (c *Client) decode(coinID string, body []byte) (price.Record, error) {
	var payload coinResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return price.Record{}, &price.Error{
			Kind: price.KindUpstream, CoinID: coinID, Message: "malformed json", Err: err,
		}
	}

	if payload.MarketData == nil || payload.MarketData.CurrentPrice == nil {
		return price.Record{}, &price.Error{
			Kind: price.KindInvalidPayload, CoinID: coinID, Message: "market_data.current_price missing",
		}
	}

	// Only the configured currency is decoded; other entries may hold anything.
	raw, ok := payload.MarketData.CurrentPrice[c.config.Currency]
	if !ok || string(raw) == "null" {
		return price.Record{}, &price.Error{
			Kind: price.KindInvalidPayload, CoinID: coinID,
			Message: fmt.Sprintf("market_data.current_price.%s missing", c.config.Currency),
		}
	}

	var value decimal.Decimal
	if err := json.Unmarshal(raw, &value); err != nil {
		return price.Record{}, &price.Error{
			Kind: price.KindInvalidPayload, CoinID: coinID,
			Message: fmt.Sprintf("market_data.current_price.%s is not numeric", c.config.Currency),
			Err:     err,
		}
	}

	record := price.Record{
		Name:   payload.Name,
		Symbol: payload.Symbol,
		Price:  value,
	}
	if err := record.Validate(); err != nil {
		return price.Record{}, &price.Error{
			Kind: price.KindInvalidPayload, CoinID: coinID, Message: err.Error(),
		}
	}
	return record, nil
}

// fail records metrics and logs for a classified failure.
func (c *Client) fail(coinID string, class ErrorClass, err error) error {
	upstreamErrorsTotal.WithLabelValues(string(class)).Inc()

	c.logger.Warn().
		Err(err).
		Str("coin_id", coinID).
		Str("error_class", string(class)).
		Msg("Provider request failed")

	return &Error{Class: class, Err: err}
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}
