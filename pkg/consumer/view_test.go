package consumer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Sternrassler/coin-price-cache/pkg/price"
	"github.com/shopspring/decimal"
)

func TestNewView(t *testing.T) {
	view := NewView(price.Record{Name: "Bitcoin", Symbol: "btc", Price: decimal.NewFromInt(65000)})

	want := View{Name: "Bitcoin", Symbol: "btc", Price: "65,000.00"}
	if view != want {
		t.Errorf("NewView = %+v, want %+v", view, want)
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Bitcoin", "Bitcoin"},
		{"  Bitcoin  ", "Bitcoin"},
		{"Bit<script>alert(1)</script>coin", "Bitalert(1)coin"},
		{"<b>Ether</b>", "Ether"},
		{"line\nbreak\ttab", "line break tab"},
		{"many    spaces", "many spaces"},
		{"bad\xffutf8", "badutf8"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestErrorRecord(t *testing.T) {
	err := &price.Error{
		Kind: price.KindUnreachable, CoinID: "bitcoin",
		Err: &price.Error{Kind: price.KindUnreachable, CoinID: "bitcoin", Message: "Failed to fetch data from the provider."},
	}

	view := ErrorRecord("bitcoin", err)

	want := View{
		Name:         "bitcoin: Error",
		Symbol:       "ERR",
		Price:        "N/A",
		Error:        true,
		ErrorMessage: "Failed to fetch data from the provider.",
	}
	if view != want {
		t.Errorf("ErrorRecord = %+v, want %+v", view, want)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nested message",
			err:  &price.Error{Kind: price.KindUnreachable, Err: fmt.Errorf("wrap: %w", &price.Error{Message: "Invalid data"})},
			want: "Invalid data",
		},
		{
			name: "timeout",
			err:  &price.Error{Kind: price.KindUnreachable, Err: context.DeadlineExceeded},
			want: "Price service timed out",
		},
		{
			name: "not found without message",
			err:  &price.Error{Kind: price.KindNotFound, CoinID: "dogecoin"},
			want: "Crypto id 'dogecoin' not found.",
		},
		{
			name: "unreachable without message",
			err:  &price.Error{Kind: price.KindUnreachable, CoinID: "dogecoin"},
			want: MsgUnreachable,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: "boom",
		},
		{
			name: "nil",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.want {
				t.Errorf("ErrorMessage = %q, want %q", got, tt.want)
			}
		})
	}
}
