package provider

import (
	"context"
	"errors"

	"github.com/example/farescout/internal/quote/domain"
)

const metroCabName = "metrocab"

// MetroCab is a permanently simulation-only provider: it has no pricing
// endpoint, so every quote attempt reports unavailable and the controller
// prices it through its heuristic instead.
type MetroCab struct{}

// NewMetroCab constructs the adapter.
func NewMetroCab() MetroCab { return MetroCab{} }

// Name implements Adapter.
func (MetroCab) Name() string { return metroCabName }

// Live implements Adapter.
func (MetroCab) Live() bool { return false }

// Quote implements Adapter.
func (MetroCab) Quote(context.Context, domain.RideRequest) (domain.RawQuote, error) {
	return domain.RawQuote{}, domain.NewProviderError(metroCabName, domain.FailureUnavailable, errors.New("no live pricing endpoint"))
}
