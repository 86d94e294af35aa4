// Package testutil provides testing utilities for the price cache.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// CoinsPath is the path prefix the mock serves coin documents under.
const CoinsPath = "/api/v3/coins/"

// MockResponse defines the behavior for a mock provider response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockProvider is a configurable CoinGecko-like pricing provider for testing.
// Unknown coin ids answer 404 like the real provider.
type MockProvider struct {
	server    *httptest.Server
	mu        sync.RWMutex
	responses map[string]MockResponse

	// Tracking
	RequestCount      int
	requestsByCoin    map[string]int
	LastRequestHeader http.Header
	LastQuery         string
}

// NewMockProvider creates a new mock provider server.
func NewMockProvider() *MockProvider {
	mock := &MockProvider{
		responses:      make(map[string]MockResponse),
		requestsByCoin: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		coinID := strings.TrimPrefix(r.URL.Path, CoinsPath)

		mock.mu.Lock()
		mock.RequestCount++
		mock.requestsByCoin[coinID]++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastQuery = r.URL.RawQuery
		resp, exists := mock.responses[coinID]
		mock.mu.Unlock()

		if !exists {
			resp = NewNotFoundResponse()
		}

		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockProvider) URL() string {
	return m.server.URL
}

// BaseURL returns the coin endpoint prefix to configure an upstream client with.
func (m *MockProvider) BaseURL() string {
	return m.server.URL + CoinsPath
}

// Close shuts down the mock server.
func (m *MockProvider) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.requestsByCoin = make(map[string]int)
	m.LastRequestHeader = nil
	m.LastQuery = ""
}

// SetResponse configures the response for a coin id.
func (m *MockProvider) SetResponse(coinID string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[coinID] = resp
}

// SetCoin configures a healthy quote for a coin id.
func (m *MockProvider) SetCoin(coinID, name, symbol string, usd float64) {
	m.SetResponse(coinID, NewCoinResponse(name, symbol, usd))
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockProvider) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetCoinRequestCount returns the number of requests made for one coin id.
func (m *MockProvider) GetCoinRequestCount(coinID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestsByCoin[coinID]
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockProvider) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader
}

// GetLastQuery returns the raw query of the most recent request.
func (m *MockProvider) GetLastQuery() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

func jsonHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json; charset=utf-8"}
}

// NewCoinResponse creates a 200 OK coin document with a USD price.
func NewCoinResponse(name, symbol string, usd float64) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body: fmt.Sprintf(`{"id":%q,"name":%q,"symbol":%q,"market_data":{"current_price":{"usd":%v,"eur":%v}}}`,
			strings.ToLower(name), name, symbol, usd, usd*0.9),
		Headers: jsonHeaders(),
	}
}

// NewMissingPriceResponse creates a 200 OK coin document without market_data.current_price.usd.
func NewMissingPriceResponse(name, symbol string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"name":%q,"symbol":%q,"market_data":{"current_price":{"eur":1}}}`, name, symbol),
		Headers:    jsonHeaders(),
	}
}

// NewNotFoundResponse creates the provider's 404 for an unknown coin id.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error":"coin not found"}`,
		Headers:    jsonHeaders(),
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    jsonHeaders(),
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"status":{"error_code":429,"error_message":"You've exceeded the Rate Limit."}}`,
		Headers:    jsonHeaders(),
	}
}

// NewMalformedResponse creates a 200 OK response whose body is not JSON.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `<html>maintenance</html>`,
	}
}
