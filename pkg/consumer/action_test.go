package consumer

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Sternrassler/coin-price-cache/pkg/price"
	"github.com/rs/zerolog"
)

func postAction(t *testing.T, h http.Handler, form url.Values) (int, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/action", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)
	return w.Code, strings.TrimSpace(w.Body.String())
}

func TestActionHandler(t *testing.T) {
	unreachable := &price.Error{Kind: price.KindUnreachable, CoinID: "bitcoin", Message: "Failed to fetch data from the provider."}

	tests := []struct {
		name       string
		fetcher    *scriptedFetcher
		form       url.Values
		wantStatus int
		wantBody   string
	}{
		{
			name:       "success",
			fetcher:    &scriptedFetcher{record: btc("65000")},
			form:       url.Values{"action": {ActionGetPrice}, "coinId": {"bitcoin"}},
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true,"data":{"name":"Bitcoin","symbol":"btc","price":"65,000.00","error":false}}`,
		},
		{
			name:       "failure",
			fetcher:    &scriptedFetcher{err: unreachable},
			form:       url.Values{"action": {ActionGetPrice}, "coinId": {"bitcoin"}},
			wantStatus: http.StatusOK,
			wantBody:   `{"success":false,"data":"Failed to fetch data from the provider."}`,
		},
		{
			name:       "missing coin id",
			fetcher:    &scriptedFetcher{record: btc("65000")},
			form:       url.Values{"action": {ActionGetPrice}},
			wantStatus: http.StatusOK,
			wantBody:   `{"success":false,"data":"Coin ID is missing."}`,
		},
		{
			name:       "blank coin id",
			fetcher:    &scriptedFetcher{record: btc("65000")},
			form:       url.Values{"action": {ActionGetPrice}, "coinId": {"  <b></b> "}},
			wantStatus: http.StatusOK,
			wantBody:   `{"success":false,"data":"Coin ID is missing."}`,
		},
		{
			name:       "unknown action",
			fetcher:    &scriptedFetcher{record: btc("65000")},
			form:       url.Values{"action": {"delete_everything"}, "coinId": {"bitcoin"}},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"data":"Unknown action."}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay, _, _ := newTestRelay(t, tt.fetcher)

			status, body := postAction(t, NewActionHandler(relay), tt.form)

			if status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", status, tt.wantStatus)
			}
			if body != tt.wantBody {
				t.Errorf("Body = %s, want %s", body, tt.wantBody)
			}
		})
	}
}

func TestActionHandler_Force(t *testing.T) {
	fetcher := &scriptedFetcher{record: btc("65000")}
	relay, _, _ := newTestRelay(t, fetcher)
	h := NewActionHandler(relay)

	form := url.Values{"action": {ActionGetPrice}, "coinId": {"bitcoin"}}
	postAction(t, h, form)
	postAction(t, h, form)
	if fetcher.Calls() != 1 {
		t.Fatalf("Expected 1 edge call for passive lookups, got %d", fetcher.Calls())
	}

	form.Set("force", "1")
	postAction(t, h, form)
	if fetcher.Calls() != 2 {
		t.Errorf("Expected force to call the edge, got %d calls", fetcher.Calls())
	}
}

func TestActionHandler_ActionFromQuery(t *testing.T) {
	relay, _, _ := newTestRelay(t, &scriptedFetcher{record: btc("65000")})

	req := httptest.NewRequest(http.MethodPost, DefaultActionURL, strings.NewReader("coinId=bitcoin"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	NewActionHandler(relay).ServeHTTP(w, req)

	if !strings.HasPrefix(w.Body.String(), `{"success":true`) {
		t.Errorf("Body = %s", w.Body.String())
	}
}

func TestActionHandler_MethodNotAllowed(t *testing.T) {
	relay, _, _ := newTestRelay(t, &scriptedFetcher{record: btc("65000")})

	req := httptest.NewRequest(http.MethodDelete, "/action", nil)
	w := httptest.NewRecorder()

	NewActionHandler(relay).ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want 405", w.Code)
	}
}

// brokenPipeWriter accepts headers but fails every body write.
type brokenPipeWriter struct {
	*httptest.ResponseRecorder
}

func (brokenPipeWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestActionHandler_LogsWriteFailure(t *testing.T) {
	relay, _, _ := newTestRelay(t, &scriptedFetcher{record: btc("65000")})

	buf := &bytes.Buffer{}
	h := NewActionHandler(relay)
	h.logger = zerolog.New(buf)

	req := httptest.NewRequest(http.MethodGet, DefaultActionURL+"&coinId=bitcoin", nil)
	w := brokenPipeWriter{httptest.NewRecorder()}

	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", w.Code)
	}
	if !strings.Contains(buf.String(), "Failed to write action response") {
		t.Errorf("Expected write failure to be logged, got %q", buf.String())
	}
}
