// Package compare houses the fallback-resilient comparison pipeline: the
// controller that drives every provider to a terminal outcome and the
// decision engine that ranks the results.
package compare

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/example/farescout/internal/quote/domain"
	"github.com/example/farescout/internal/quote/normalize"
	"github.com/example/farescout/internal/quote/provider"
)

// Config defines the controller's timeout budgets.
type Config struct {
	// ProviderTimeout bounds a single adapter attempt.
	ProviderTimeout time.Duration
	// RequestTimeout bounds the whole comparison; providers still pending
	// at the deadline fall back to simulation.
	RequestTimeout time.Duration
}

// Controller drives each configured provider to a terminal per-request
// state (live, simulated, or non-viable), then hands the joined set to the
// decision engine. One misbehaving provider never aborts a comparison.
type Controller struct {
	registry   *provider.Registry
	normalizer *normalize.Normalizer
	logger     *zap.Logger
	tracer     trace.Tracer
	clock      domain.Clock
	cfg        Config
}

// New constructs a Controller.
func New(registry *provider.Registry, normalizer *normalize.Normalizer, logger *zap.Logger, clock domain.Clock, cfg Config) *Controller {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 3 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 8 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Controller{
		registry:   registry,
		normalizer: normalizer,
		logger:     logger,
		tracer:     otel.Tracer("farescout.compare"),
		clock:      clock,
		cfg:        cfg,
	}
}

// Compare runs one full comparison. It validates the request, fans out one
// attempt per provider, joins all outcomes, and selects the winner. Only
// an invalid request or caller cancellation returns an error.
func (c *Controller) Compare(ctx context.Context, req domain.RideRequest) (domain.ComparisonResult, error) {
	if err := req.Validate(); err != nil {
		return domain.ComparisonResult{}, err
	}

	ctx, span := c.tracer.Start(ctx, "quote.compare")
	defer span.End()
	started := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	entries := c.registry.Entries()
	estimates := make([]domain.NormalizedEstimate, len(entries))
	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry provider.Entry) {
			defer wg.Done()
			estimates[i] = c.attempt(reqCtx, entry, req)
		}(i, entry)
	}
	wg.Wait()

	// The per-request deadline is absorbed by simulation; only the
	// caller walking away aborts the comparison.
	if err := ctx.Err(); err != nil {
		return domain.ComparisonResult{}, err
	}

	candidates := make([]Candidate, len(entries))
	for i := range entries {
		candidates[i] = Candidate{Estimate: estimates[i], Priority: entries[i].Priority}
		providerOutcomes.WithLabelValues(estimates[i].Provider, outcomeLabel(estimates[i])).Inc()
	}
	winner := Decide(candidates)

	comparisonDuration.Observe(time.Since(started).Seconds())
	if winner == nil {
		c.logger.Info("no viable provider", zap.String("request_id", req.ID.String()))
	}

	return domain.ComparisonResult{
		RequestID:   req.ID,
		Estimates:   estimates,
		Winner:      winner,
		GeneratedAt: c.clock.Now(),
	}, nil
}

// attempt drives a single provider through the per-request state machine:
// live success, fallback simulation, or non-viable. Adapter panics are
// contained here and treated as unavailable.
func (c *Controller) attempt(ctx context.Context, entry provider.Entry, req domain.RideRequest) (est domain.NormalizedEstimate) {
	name := entry.Adapter.Name()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("adapter fault contained",
				zap.String("provider", name),
				zap.Any("panic", r))
			est = c.simulate(entry, req, "recovered adapter fault")
		}
	}()

	if !entry.Adapter.Live() {
		return c.simulate(entry, req, "simulation-only provider")
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.ProviderTimeout)
	defer cancel()

	raw, err := entry.Adapter.Quote(attemptCtx, req)
	if err == nil {
		return c.normalizer.Normalize(raw)
	}

	pe, ok := domain.AsProviderError(err)
	if !ok {
		pe = domain.NewProviderError(name, domain.FailureUnavailable, err)
	}

	if pe.Code == domain.FailureNoCoverage {
		return domain.NormalizedEstimate{
			Provider: name,
			Currency: c.normalizer.Currency(),
			Source:   domain.SourceLive,
			Note:     fmt.Sprintf("no coverage: %v", pe.Err),
		}
	}

	c.logger.Info("falling back to simulated estimate",
		zap.String("provider", name),
		zap.String("code", string(pe.Code)),
		zap.Error(pe.Err))
	return c.simulate(entry, req, string(pe.Code))
}

func (c *Controller) simulate(entry provider.Entry, req domain.RideRequest, reason string) domain.NormalizedEstimate {
	cents, duration := entry.Heuristic.Simulate(req)
	est := domain.NormalizedEstimate{
		Provider:    entry.Adapter.Name(),
		AmountCents: cents,
		Currency:    c.normalizer.Currency(),
		Source:      domain.SourceSimulated,
		Viable:      true,
		Note:        "simulated: " + reason,
	}
	if duration > 0 {
		est.Duration = &duration
	}
	return est
}

func outcomeLabel(est domain.NormalizedEstimate) string {
	if !est.Viable {
		return "non_viable"
	}
	return string(est.Source)
}
