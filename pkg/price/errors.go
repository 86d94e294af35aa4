package price

import (
	"errors"
	"fmt"
)

// Kind classifies a failed price lookup.
type Kind string

const (
	// KindNotFound means the provider does not know the coin identifier.
	KindNotFound Kind = "not_found"

	// KindInvalidPayload means the provider answered without a usable price.
	KindInvalidPayload Kind = "invalid_payload"

	// KindUpstream means a transport or non-2xx failure talking to the provider.
	KindUpstream Kind = "upstream"

	// KindUnavailable is the edge tier's generic availability failure.
	KindUnavailable Kind = "unavailable"

	// KindUnreachable means the edge service itself could not be used.
	KindUnreachable Kind = "unreachable"
)

// Sentinel errors, one per Kind. A *Error matches the sentinel of its kind
// with errors.Is.
var (
	ErrNotFound       = errors.New("coin not found")
	ErrInvalidPayload = errors.New("invalid price payload")
	ErrUpstream       = errors.New("upstream request failed")
	ErrUnavailable    = errors.New("price unavailable")
	ErrUnreachable    = errors.New("price service unreachable")
)

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindInvalidPayload:
		return ErrInvalidPayload
	case KindUpstream:
		return ErrUpstream
	case KindUnavailable:
		return ErrUnavailable
	case KindUnreachable:
		return ErrUnreachable
	default:
		return nil
	}
}

// Error is a classified lookup failure with context.
type Error struct {
	Kind       Kind
	CoinID     string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.CoinID)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the Kind of err, or "" when err is not a classified failure.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	for _, k := range []Kind{KindNotFound, KindInvalidPayload, KindUpstream, KindUnavailable, KindUnreachable} {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return ""
}
