package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/coin-price-cache/pkg/logging"
	"github.com/Sternrassler/coin-price-cache/pkg/price"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// MsgInvalidData is reported when the edge answers with an unusable body.
	MsgInvalidData = "Invalid data"

	// MsgUnreachable is reported when the edge cannot be reached.
	MsgUnreachable = "Price service unreachable"

	// routeMissPrefix marks the edge's catch-all 404, which means the
	// configured URL is wrong rather than the coin unknown.
	routeMissPrefix = "Not Found: "

	maxBodyBytes = 64 << 10
)

// EdgeConfig configures the client for the edge service's JSON contract.
type EdgeConfig struct {
	// BaseURL is the edge service root, e.g. http://localhost:3000.
	BaseURL string

	// Timeout bounds every request (required).
	Timeout time.Duration
}

// EdgeClient fetches records from the edge service. It implements
// pricing.Fetcher for the consumer tier.
type EdgeClient struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

type edgePrice struct {
	Name   string           `json:"name"`
	Symbol string           `json:"symbol"`
	Price  *decimal.Decimal `json:"price"`
}

type edgeError struct {
	Error string `json:"error"`
}

// NewEdgeClient creates a client for the edge service.
func NewEdgeClient(cfg EdgeConfig) (*EdgeClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("edge base url is required")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("edge timeout must be > 0 (got %s)", cfg.Timeout)
	}

	return &EdgeClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.NewLogger("edge-client"),
	}, nil
}

// FetchPrice calls GET /price/{coinId} on the edge service.
//
// A 404 carrying the edge's "not found" message yields KindNotFound. Every
// other failure yields KindUnreachable with a user-facing Message.
func (c *EdgeClient) FetchPrice(ctx context.Context, coinID string) (price.Record, error) {
	endpoint := c.baseURL + "/price/" + url.PathEscape(coinID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return price.Record{}, unreachable(coinID, 0, MsgUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("coin_id", coinID).Msg("Edge request failed")
		return price.Record{}, unreachable(coinID, 0, MsgUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return price.Record{}, unreachable(coinID, resp.StatusCode, MsgUnreachable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return price.Record{}, c.statusError(coinID, resp.StatusCode, body)
	}

	var payload edgePrice
	if err := json.Unmarshal(body, &payload); err != nil || payload.Price == nil ||
		payload.Name == "" || payload.Symbol == "" {
		c.logger.Warn().
			Str("coin_id", coinID).
			Str("body", truncate(body, 200)).
			Msg("Invalid data from edge")
		return price.Record{}, unreachable(coinID, resp.StatusCode, MsgInvalidData, err)
	}

	return price.Record{
		Name:   payload.Name,
		Symbol: payload.Symbol,
		Price:  *payload.Price,
	}, nil
}

func (c *EdgeClient) statusError(coinID string, status int, body []byte) error {
	var payload edgeError
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == "" {
		payload.Error = MsgInvalidData
	}

	c.logger.Warn().
		Str("coin_id", coinID).
		Int("status_code", status).
		Str("error", payload.Error).
		Msg("Edge returned an error")

	if status == http.StatusNotFound && !strings.HasPrefix(payload.Error, routeMissPrefix) {
		return &price.Error{
			Kind: price.KindNotFound, CoinID: coinID, StatusCode: status, Message: payload.Error,
		}
	}
	return unreachable(coinID, status, payload.Error, nil)
}

func unreachable(coinID string, status int, msg string, err error) error {
	return &price.Error{
		Kind: price.KindUnreachable, CoinID: coinID, StatusCode: status, Message: msg, Err: err,
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
