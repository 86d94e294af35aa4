// Package edge serves the edge service's public JSON contract over HTTP.
//
//	GET /price/{coinId}  200 {"name","symbol","price"}
//	                     404 {"error":"Crypto id '<id>' not found."}
//	                     500 {"error":"Failed to fetch data from the provider."}
//	anything else        404 {"error":"Not Found: <METHOD> <path>"}
//	panics               500 {"error":"Something went wrong!"}
package edge

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Sternrassler/coin-price-cache/pkg/logging"
	"github.com/Sternrassler/coin-price-cache/pkg/metrics"
	"github.com/Sternrassler/coin-price-cache/pkg/price"
	"github.com/Sternrassler/coin-price-cache/pkg/pricing"
	"github.com/rs/zerolog"
)

const (
	// MsgProviderFailure is returned for every failure other than NotFound.
	MsgProviderFailure = "Failed to fetch data from the provider."

	// MsgInternal is returned when a handler panics.
	MsgInternal = "Something went wrong!"
)

// PriceResponse is the success body of GET /price/{coinId}.
type PriceResponse struct {
	Name   string      `json:"name"`
	Symbol string      `json:"symbol"`
	Price  json.Number `json:"price"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewPriceResponse converts a record to its wire form. The price is
// emitted as a JSON number with the record's exact decimal digits.
func NewPriceResponse(record price.Record) PriceResponse {
	return PriceResponse{
		Name:   record.Name,
		Symbol: record.Symbol,
		Price:  json.Number(record.Price.String()),
	}
}

// Handler is the edge service's HTTP handler.
type Handler struct {
	service *pricing.Service
	mux     *http.ServeMux
	handler http.Handler
	logger  zerolog.Logger
}

// NewHandler creates the edge handler around service.
func NewHandler(service *pricing.Service) *Handler {
	h := &Handler{
		service: service,
		mux:     http.NewServeMux(),
		logger:  logging.NewLogger("edge"),
	}

	h.mux.HandleFunc("/price/{coinId}", h.handlePrice)
	h.mux.HandleFunc("GET /health", healthHandler)
	h.mux.Handle("GET /metrics", metrics.Handler())
	h.mux.HandleFunc("/", notFoundHandler)

	h.handler = requestID(h.logger, instrument(recoverer(h.mux)))
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) handlePrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		notFoundHandler(w, r)
		return
	}

	coinID := r.PathValue("coinId")
	logger := zerolog.Ctx(r.Context())

	record, err := h.service.GetPrice(r.Context(), coinID)
	if err != nil {
		switch {
		case errors.Is(err, price.ErrNotFound), errors.Is(err, pricing.ErrEmptyCoinID):
			logger.Debug().Str("coin_id", coinID).Msg("Unknown coin id")
			writeError(w, http.StatusNotFound, fmt.Sprintf("Crypto id '%s' not found.", coinID))
		default:
			logger.Warn().Err(err).Str("coin_id", coinID).Msg("Price lookup failed")
			writeError(w, http.StatusInternalServerError, MsgProviderFailure)
		}
		return
	}

	writeJSON(w, http.StatusOK, NewPriceResponse(record))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("Not Found: %s %s", r.Method, r.URL.RequestURI()))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger := logging.NewLogger("edge")
		logger.Error().Err(err).Msg("Failed to write response")
	}
}
