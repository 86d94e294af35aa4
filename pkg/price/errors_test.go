package price

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"not found matches sentinel", &Error{Kind: KindNotFound, CoinID: "x"}, ErrNotFound, true},
		{"not found is not unavailable", &Error{Kind: KindNotFound, CoinID: "x"}, ErrUnavailable, false},
		{"wrapped upstream", fmt.Errorf("fetch: %w", &Error{Kind: KindUpstream}), ErrUpstream, true},
		{"cause is reachable", &Error{Kind: KindUpstream, Err: io.ErrUnexpectedEOF}, io.ErrUnexpectedEOF, true},
		{"unknown kind", &Error{Kind: "other"}, ErrUpstream, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "not found",
			err:      &Error{Kind: KindNotFound, CoinID: "dogecoin2", StatusCode: 404},
			expected: "not_found: dogecoin2 (status 404)",
		},
		{
			name:     "with message and cause",
			err:      &Error{Kind: KindUpstream, CoinID: "bitcoin", Message: "request failed", Err: io.EOF},
			expected: "upstream: bitcoin: request failed: EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"typed", &Error{Kind: KindInvalidPayload}, KindInvalidPayload},
		{"wrapped typed", fmt.Errorf("x: %w", &Error{Kind: KindUnreachable}), KindUnreachable},
		{"bare sentinel", fmt.Errorf("x: %w", ErrNotFound), KindNotFound},
		{"unclassified", io.EOF, ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}
