// Package normalize converts provider-shaped quotes into the common
// estimate record the decision engine ranks.
package normalize

import (
	"fmt"
	"math"
	"strings"

	"github.com/example/farescout/internal/quote/domain"
)

// Normalizer converts raw quotes into the comparison currency, rounding
// half-up to whole cents. It never fails: malformed quotes become
// non-viable estimates so one bad provider cannot abort a comparison.
type Normalizer struct {
	currency string
	rates    map[string]float64
}

// New builds a Normalizer for the given comparison currency. rates maps a
// provider currency onto its comparison-currency multiplier; the
// comparison currency itself is always accepted at 1.0.
func New(currency string, rates map[string]float64) *Normalizer {
	normalized := make(map[string]float64, len(rates)+1)
	for code, rate := range rates {
		normalized[strings.ToUpper(code)] = rate
	}
	currency = strings.ToUpper(currency)
	normalized[currency] = 1.0
	return &Normalizer{currency: currency, rates: normalized}
}

// Currency returns the comparison currency code.
func (n *Normalizer) Currency() string { return n.currency }

// Normalize produces a live-tagged estimate from a raw quote. Negative or
// zero amounts and unknown currencies yield a non-viable record.
func (n *Normalizer) Normalize(raw domain.RawQuote) domain.NormalizedEstimate {
	estimate := domain.NormalizedEstimate{
		Provider: raw.Provider,
		Product:  raw.Product,
		Currency: n.currency,
		Source:   domain.SourceLive,
	}
	if raw.Duration > 0 {
		d := raw.Duration
		estimate.Duration = &d
	}

	if raw.Amount <= 0 {
		estimate.Note = fmt.Sprintf("rejected: non-positive amount %.2f", raw.Amount)
		return estimate
	}

	rate, ok := n.rates[strings.ToUpper(raw.Currency)]
	if !ok {
		estimate.Note = fmt.Sprintf("rejected: no conversion rate for %q", raw.Currency)
		return estimate
	}

	cents := raw.Amount
	if !raw.MinorUnits {
		cents *= 100
	}
	estimate.AmountCents = roundHalfUp(cents * rate)
	estimate.Viable = true
	return estimate
}

// roundHalfUp rounds a non-negative cent amount half-up to the smallest
// currency unit.
func roundHalfUp(cents float64) int64 {
	return int64(math.Floor(cents + 0.5))
}
