package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/example/farescout/internal/quote/domain"
)

// classifyStatus maps an estimate endpoint status code onto the failure
// taxonomy shared by all live adapters.
func classifyStatus(provider string, status int) *domain.ProviderError {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.NewProviderError(provider, domain.FailureAccessDenied, fmt.Errorf("status %d", status))
	case status == http.StatusNotFound:
		return domain.NewProviderError(provider, domain.FailureNoCoverage, fmt.Errorf("status %d", status))
	default:
		return domain.NewProviderError(provider, domain.FailureUnavailable, fmt.Errorf("status %d", status))
	}
}

// classifyTransport maps transport-level failures, including the adapter's
// own timeout, onto FailureUnavailable.
func classifyTransport(provider string, err error) *domain.ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewProviderError(provider, domain.FailureUnavailable, fmt.Errorf("timeout: %w", err))
	}
	return domain.NewProviderError(provider, domain.FailureUnavailable, err)
}
