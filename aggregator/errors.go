package aggregator

import (
	"errors"
	"fmt"
)

// Reason classifies why an adapter produced no data.
type Reason string

const (
	ReasonTransport     Reason = "transport"
	ReasonStatus        Reason = "status"
	ReasonMalformed     Reason = "malformed"
	ReasonTimeout       Reason = "timeout"
	ReasonNotConfigured Reason = "not_configured"
	ReasonCircuitOpen   Reason = "circuit_open"
	ReasonPanic         Reason = "panic"
	ReasonInvalidRecord Reason = "invalid_record"
)

// ErrFallbackExhausted means a fallback generator returned nothing. Generators
// are required to be total, so this is always a defect.
var ErrFallbackExhausted = errors.New("fallback generator produced no records")

// AdapterError reports a single provider failure. It is recoverable: the
// aggregator records it and carries on with the other providers.
type AdapterError struct {
	Provider string
	Reason   Reason
	Err      error
}

func (e *AdapterError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Reason, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError builds an AdapterError.
func NewAdapterError(provider string, reason Reason, err error) *AdapterError {
	return &AdapterError{Provider: provider, Reason: reason, Err: err}
}

// ErrNotConfigured is wrapped by adapters invoked without credentials.
var ErrNotConfigured = errors.New("provider not configured")

// asAdapterError normalizes anything an adapter returned into an AdapterError
// attributed to provider.
func asAdapterError(provider string, err error) *AdapterError {
	var ae *AdapterError
	if errors.As(err, &ae) {
		if ae.Provider == "" {
			return &AdapterError{Provider: provider, Reason: ae.Reason, Err: ae.Err}
		}
		return ae
	}
	if errors.Is(err, ErrNotConfigured) {
		return NewAdapterError(provider, ReasonNotConfigured, err)
	}
	return NewAdapterError(provider, ReasonTransport, err)
}
