// Package price defines the price record shared by both cache tiers, the
// coin identifier normalization applied on every call path, and the error
// taxonomy used to classify failed lookups.
package price

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NotAvailable is the placeholder shown instead of a price on error records.
const NotAvailable = "N/A"

// Record is a single price quote for one coin.
type Record struct {
	// Name is the display name (e.g. "Bitcoin").
	Name string `json:"name"`

	// Symbol is the ticker symbol (e.g. "btc").
	Symbol string `json:"symbol"`

	// Price is denominated in the provider's reference currency.
	Price decimal.Decimal `json:"price"`

	// IsError marks a synthesized error record. Error records are never cached.
	IsError bool `json:"is_error,omitempty"`
}

// Validate reports whether r is a usable quote: non-empty name and symbol
// and a strictly positive price. Error records never validate.
func (r Record) Validate() error {
	if r.IsError {
		return fmt.Errorf("error record is not a quote")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if !r.Price.IsPositive() {
		return fmt.Errorf("price must be positive (got %s)", r.Price.String())
	}
	return nil
}

// Equal reports whether two records carry the same quote.
func (r Record) Equal(other Record) bool {
	return r.Name == other.Name &&
		r.Symbol == other.Symbol &&
		r.Price.Equal(other.Price) &&
		r.IsError == other.IsError
}

// NormalizeCoinID trims and lowercases a coin identifier. Both tiers key
// their caches by the normalized form, so callers differing only by case or
// surrounding whitespace share one entry.
func NormalizeCoinID(coinID string) string {
	return strings.ToLower(strings.TrimSpace(coinID))
}
