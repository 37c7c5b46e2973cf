package provider

import (
	"context"

	"github.com/example/farescout/internal/quote/domain"
)

// Adapter is the uniform capability through which each ride-hailing
// provider's pricing endpoint is reached. Implementations apply their own
// request timeout and report failures as *domain.ProviderError rather than
// panicking or blocking indefinitely.
type Adapter interface {
	// Name returns the unique provider identifier.
	Name() string

	// Live reports whether the adapter can reach a real pricing endpoint.
	// Simulation-only providers return false and are always priced through
	// their heuristic.
	Live() bool

	// Quote attempts to fetch a provider-shaped estimate for the request.
	Quote(ctx context.Context, req domain.RideRequest) (domain.RawQuote, error)
}
