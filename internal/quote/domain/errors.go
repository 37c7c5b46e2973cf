package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest aborts a comparison before any adapter is invoked.
var ErrInvalidRequest = errors.New("invalid ride request")

// FailureCode classifies provider-local failures so the controller can
// choose between simulation and non-viability.
type FailureCode string

const (
	FailureAccessDenied FailureCode = "access_denied"
	FailureUnavailable  FailureCode = "unavailable"
	FailureNoCoverage   FailureCode = "no_coverage"
)

// ProviderError is the typed outcome adapters return instead of raising
// unguarded faults. It never propagates past the resilience controller.
type ProviderError struct {
	Provider string
	Code     FailureCode
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Code, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err with a provider name and failure code.
func NewProviderError(provider string, code FailureCode, err error) *ProviderError {
	return &ProviderError{Provider: provider, Code: code, Err: err}
}

// AsProviderError extracts a ProviderError if err carries one.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
