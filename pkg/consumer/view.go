package consumer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/Sternrassler/coin-price-cache/pkg/price"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrorSymbol is the symbol shown on an error record.
const ErrorSymbol = "ERR"

var errorRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "price_relay_error_records_total",
	Help: "Total error records shown in place of a price, by reason",
}, []string{"reason"})

// View is a record as presented to users: text sanitized and the price
// formatted for display. Error views are never cached.
type View struct {
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Price        string `json:"price"`
	Error        bool   `json:"error"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewView presents a successful record.
func NewView(record price.Record) View {
	return View{
		Name:   SanitizeText(record.Name),
		Symbol: SanitizeText(record.Symbol),
		Price:  price.FormatPrice(record.Price),
	}
}

// ErrorRecord maps a failed lookup for coinID to the error view shown in
// place of the price. It is the only place error views are built.
func ErrorRecord(coinID string, err error) View {
	reason := string(price.KindOf(err))
	if reason == "" {
		reason = "unknown"
	}
	errorRecordsTotal.WithLabelValues(reason).Inc()

	return View{
		Name:         SanitizeText(coinID) + ": Error",
		Symbol:       ErrorSymbol,
		Price:        price.NotAvailable,
		Error:        true,
		ErrorMessage: ErrorMessage(err),
	}
}

// ErrorMessage returns the user-facing message for a failed lookup: the
// first message carried in the error chain, or one derived from its kind.
func ErrorMessage(err error) string {
	var pe *price.Error
	for e := err; errors.As(e, &pe); e = pe.Err {
		if pe.Message != "" {
			return pe.Message
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Price service timed out"
	case errors.Is(err, price.ErrNotFound):
		return fmt.Sprintf("Crypto id '%s' not found.", price.NormalizeCoinID(coinIDOf(err)))
	case errors.Is(err, price.ErrUnreachable):
		return MsgUnreachable
	case err != nil:
		return err.Error()
	}
	return ""
}

func coinIDOf(err error) string {
	var pe *price.Error
	if errors.As(err, &pe) {
		return pe.CoinID
	}
	return ""
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// SanitizeText makes provider text safe to show: invalid UTF-8 and tags are
// removed, control characters become spaces and whitespace is collapsed.
func SanitizeText(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = tagPattern.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
