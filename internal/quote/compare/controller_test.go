package compare_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/farescout/internal/quote/compare"
	"github.com/example/farescout/internal/quote/domain"
	"github.com/example/farescout/internal/quote/normalize"
	"github.com/example/farescout/internal/quote/provider"
)

type stubAdapter struct {
	name     string
	live     bool
	quote    domain.RawQuote
	err      error
	panicMsg string
	block    bool
	calls    atomic.Int32
}

func (s *stubAdapter) Name() string { return s.name }
func (s *stubAdapter) Live() bool   { return s.live }

func (s *stubAdapter) Quote(ctx context.Context, _ domain.RideRequest) (domain.RawQuote, error) {
	s.calls.Add(1)
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.block {
		<-ctx.Done()
		return domain.RawQuote{}, ctx.Err()
	}
	if s.err != nil {
		return domain.RawQuote{}, s.err
	}
	return s.quote, nil
}

type fixedHeuristic struct {
	cents    int64
	duration time.Duration
}

func (f fixedHeuristic) Simulate(domain.RideRequest) (int64, time.Duration) {
	return f.cents, f.duration
}

type fixedClock struct{ at time.Time }

func (f fixedClock) Now() time.Time { return f.at }

func validRide() domain.RideRequest {
	return domain.RideRequest{
		ID:      uuid.New(),
		Pickup:  domain.GeoPoint{Lat: 40.7128, Lng: -74.0060},
		Dropoff: domain.GeoPoint{Lat: 40.6413, Lng: -73.7781},
		Class:   domain.ClassStandard,
	}
}

func newController(t *testing.T, entries ...provider.Entry) *compare.Controller {
	t.Helper()
	reg, err := provider.NewRegistry(entries...)
	require.NoError(t, err)
	return compare.New(reg, normalize.New("USD", nil), zap.NewNop(), fixedClock{at: time.Unix(1700000000, 0).UTC()}, compare.Config{
		ProviderTimeout: 50 * time.Millisecond,
		RequestTimeout:  200 * time.Millisecond,
	})
}

func TestCompareSimulatedFallbackCanWin(t *testing.T) {
	liveQuote := domain.RawQuote{Provider: "rideco", Product: "RideX", Currency: "USD", Amount: 18.50}
	a := &stubAdapter{name: "rideco", live: true, quote: liveQuote}
	b := &stubAdapter{name: "lynk", live: true, err: domain.NewProviderError("lynk", domain.FailureAccessDenied, errors.New("status 401"))}

	c := newController(t,
		provider.Entry{Adapter: a, Priority: 2, Heuristic: fixedHeuristic{cents: 1600}},
		provider.Entry{Adapter: b, Priority: 1, Heuristic: fixedHeuristic{cents: 1600}},
	)
	result, err := c.Compare(context.Background(), validRide())
	require.NoError(t, err)
	require.Len(t, result.Estimates, 2)

	require.NotNil(t, result.Winner)
	require.Equal(t, "lynk", result.Winner.Provider)
	require.Equal(t, int64(1600), result.Winner.AmountCents)
	require.Equal(t, domain.SourceSimulated, result.Winner.Source)
	require.Contains(t, result.Winner.Note, "access_denied")

	require.Equal(t, domain.SourceLive, result.Estimates[0].Source)
	require.Equal(t, int64(1850), result.Estimates[0].AmountCents)
}

func TestCompareNoCoverageEverywhereIsNonViable(t *testing.T) {
	a := &stubAdapter{name: "rideco", live: true, err: domain.NewProviderError("rideco", domain.FailureNoCoverage, errors.New("status 404"))}
	b := &stubAdapter{name: "lynk", live: true, err: domain.NewProviderError("lynk", domain.FailureNoCoverage, errors.New("status 404"))}

	c := newController(t,
		provider.Entry{Adapter: a, Priority: 2, Heuristic: fixedHeuristic{cents: 1600}},
		provider.Entry{Adapter: b, Priority: 1, Heuristic: fixedHeuristic{cents: 1500}},
	)
	result, err := c.Compare(context.Background(), validRide())
	require.NoError(t, err)
	require.Nil(t, result.Winner)
	require.False(t, result.Viable())
	require.Len(t, result.Estimates, 2)
	for _, est := range result.Estimates {
		require.False(t, est.Viable)
		require.Contains(t, est.Note, "no coverage")
	}
}

func TestCompareOutagesFallBackToSimulation(t *testing.T) {
	a := &stubAdapter{name: "rideco", live: true, err: domain.NewProviderError("rideco", domain.FailureUnavailable, errors.New("status 503"))}
	b := &stubAdapter{name: "lynk", live: true, err: domain.NewProviderError("lynk", domain.FailureUnavailable, errors.New("status 502"))}

	c := newController(t,
		provider.Entry{Adapter: a, Priority: 2, Heuristic: fixedHeuristic{cents: 1700}},
		provider.Entry{Adapter: b, Priority: 1, Heuristic: fixedHeuristic{cents: 1400}},
	)
	result, err := c.Compare(context.Background(), validRide())
	require.NoError(t, err)
	require.NotNil(t, result.Winner)
	require.Equal(t, "lynk", result.Winner.Provider)
	for _, est := range result.Estimates {
		require.True(t, est.Viable)
		require.Equal(t, domain.SourceSimulated, est.Source)
	}
}

func TestComparePanicIsContained(t *testing.T) {
	a := &stubAdapter{name: "rideco", live: true, panicMsg: "nil map write"}
	b := &stubAdapter{name: "lynk", live: true, quote: domain.RawQuote{Provider: "lynk", Currency: "USD", Amount: 2100, MinorUnits: true}}

	c := newController(t,
		provider.Entry{Adapter: a, Priority: 2, Heuristic: fixedHeuristic{cents: 1900}},
		provider.Entry{Adapter: b, Priority: 1, Heuristic: fixedHeuristic{cents: 1500}},
	)
	result, err := c.Compare(context.Background(), validRide())
	require.NoError(t, err)
	require.Equal(t, domain.SourceSimulated, result.Estimates[0].Source)
	require.Contains(t, result.Estimates[0].Note, "recovered adapter fault")
	require.NotNil(t, result.Winner)
	require.Equal(t, "rideco", result.Winner.Provider)
}

func TestCompareSimulationOnlyProviderSkipsAttempt(t *testing.T) {
	a := &stubAdapter{name: "metrocab", live: false}

	c := newController(t, provider.Entry{Adapter: a, Priority: 0, Heuristic: fixedHeuristic{cents: 1200, duration: 9 * time.Minute}})
	result, err := c.Compare(context.Background(), validRide())
	require.NoError(t, err)
	require.Equal(t, int32(0), a.calls.Load())
	require.NotNil(t, result.Winner)
	require.Equal(t, domain.SourceSimulated, result.Winner.Source)
	require.Equal(t, int64(1200), result.Winner.AmountCents)
	require.NotNil(t, result.Winner.Duration)
	require.Equal(t, 9*time.Minute, *result.Winner.Duration)
}

func TestCompareSlowProviderFallsBackToSimulation(t *testing.T) {
	a := &stubAdapter{name: "rideco", live: true, block: true}

	c := newController(t, provider.Entry{Adapter: a, Priority: 1, Heuristic: fixedHeuristic{cents: 1800}})
	result, err := c.Compare(context.Background(), validRide())
	require.NoError(t, err)
	require.NotNil(t, result.Winner)
	require.Equal(t, domain.SourceSimulated, result.Winner.Source)
}

func TestCompareIsDeterministicForFixedInputs(t *testing.T) {
	a := &stubAdapter{name: "rideco", live: true, quote: domain.RawQuote{Provider: "rideco", Product: "RideX", Currency: "USD", Amount: 18.50}}
	b := &stubAdapter{name: "lynk", live: true, err: domain.NewProviderError("lynk", domain.FailureUnavailable, errors.New("status 503"))}

	c := newController(t,
		provider.Entry{Adapter: a, Priority: 2, Heuristic: fixedHeuristic{cents: 1600}},
		provider.Entry{Adapter: b, Priority: 1, Heuristic: fixedHeuristic{cents: 1600}},
	)
	req := validRide()
	first, err := c.Compare(context.Background(), req)
	require.NoError(t, err)
	second, err := c.Compare(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestCompareCallerCancellation(t *testing.T) {
	a := &stubAdapter{name: "rideco", live: true, block: true}

	c := newController(t, provider.Entry{Adapter: a, Priority: 1, Heuristic: fixedHeuristic{cents: 1800}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Compare(ctx, validRide())
	require.ErrorIs(t, err, context.Canceled)
}

func TestCompareInvalidRequestNeverContactsProviders(t *testing.T) {
	a := &stubAdapter{name: "rideco", live: true}

	c := newController(t, provider.Entry{Adapter: a, Priority: 1, Heuristic: fixedHeuristic{cents: 1800}})
	req := validRide()
	req.Pickup.Lat = 91

	_, err := c.Compare(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	require.Equal(t, int32(0), a.calls.Load())
}
