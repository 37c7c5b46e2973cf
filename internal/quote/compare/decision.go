package compare

import (
	"github.com/example/farescout/internal/quote/domain"
)

// Candidate pairs an estimate with the registry priority of its provider.
// Candidates must be supplied in registry order; index position is the
// final tie-break.
type Candidate struct {
	Estimate domain.NormalizedEstimate
	Priority int
}

// Decide selects the cheapest viable estimate. Ties are broken by
// preferring live over simulated sources, then higher registry priority,
// then first appearance. A nil return is the no-viable-provider outcome.
func Decide(candidates []Candidate) *domain.NormalizedEstimate {
	var winner *Candidate
	for i := range candidates {
		c := &candidates[i]
		if !c.Estimate.Viable {
			continue
		}
		if winner == nil || beats(c, winner) {
			winner = c
		}
	}
	if winner == nil {
		return nil
	}
	est := winner.Estimate
	return &est
}

// beats reports whether a strictly outranks b. Equal candidates keep b,
// preserving first-appearance order.
func beats(a, b *Candidate) bool {
	if a.Estimate.AmountCents != b.Estimate.AmountCents {
		return a.Estimate.AmountCents < b.Estimate.AmountCents
	}
	if a.Estimate.Source != b.Estimate.Source {
		return a.Estimate.Source == domain.SourceLive
	}
	return a.Priority > b.Priority
}
