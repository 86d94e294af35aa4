package consumer

import (
	"encoding/json"
	"net/http"

	"github.com/Sternrassler/coin-price-cache/pkg/logging"
	"github.com/rs/zerolog"
)

// ActionGetPrice is the only action the endpoint serves.
const ActionGetPrice = "get_crypto_price"

const (
	msgMissingCoinID = "Coin ID is missing."
	msgUnknownAction = "Unknown action."
)

// Envelope is the action endpoint's response body. Data holds a View on
// success and a message string on failure.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ActionHandler serves the widget's refresh action. It reads the form
// fields action, coinId and force ("1" selects the force-refresh path).
type ActionHandler struct {
	relay  *Relay
	logger zerolog.Logger
}

// NewActionHandler creates the action endpoint for relay.
func NewActionHandler(relay *Relay) *ActionHandler {
	return &ActionHandler{
		relay:  relay,
		logger: logging.NewLogger("action"),
	}
}

// ServeHTTP implements http.Handler.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET, POST")
		h.writeEnvelope(w, http.StatusMethodNotAllowed, Envelope{Data: "Method not allowed."})
		return
	}

	if action := r.FormValue("action"); action != ActionGetPrice {
		h.logger.Debug().Str("action", action).Msg("Unknown action")
		h.writeEnvelope(w, http.StatusBadRequest, Envelope{Data: msgUnknownAction})
		return
	}

	coinID := SanitizeText(r.FormValue("coinId"))
	if coinID == "" {
		h.writeEnvelope(w, http.StatusOK, Envelope{Data: msgMissingCoinID})
		return
	}

	lookup := h.relay.Fetch
	if r.FormValue("force") == "1" {
		lookup = h.relay.ForceRefresh
	}

	view, err := lookup(r.Context(), coinID)
	if err != nil {
		h.writeEnvelope(w, http.StatusOK, Envelope{Data: view.ErrorMessage})
		return
	}
	h.writeEnvelope(w, http.StatusOK, Envelope{Success: true, Data: view})
}

func (h *ActionHandler) writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to write action response")
	}
}
