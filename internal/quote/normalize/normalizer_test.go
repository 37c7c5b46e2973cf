package normalize_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/farescout/internal/quote/domain"
	"github.com/example/farescout/internal/quote/normalize"
)

func TestNormalizeMajorUnits(t *testing.T) {
	n := normalize.New("USD", nil)
	est := n.Normalize(domain.RawQuote{
		Provider: "rideco",
		Product:  "RideX",
		Currency: "USD",
		Amount:   18.50,
		Duration: 12 * time.Minute,
	})
	require.True(t, est.Viable)
	require.Equal(t, int64(1850), est.AmountCents)
	require.Equal(t, "USD", est.Currency)
	require.Equal(t, domain.SourceLive, est.Source)
	require.NotNil(t, est.Duration)
	require.Equal(t, 12*time.Minute, *est.Duration)
}

func TestNormalizeMinorUnits(t *testing.T) {
	n := normalize.New("USD", nil)
	est := n.Normalize(domain.RawQuote{Provider: "lynk", Currency: "usd", Amount: 1600, MinorUnits: true})
	require.True(t, est.Viable)
	require.Equal(t, int64(1600), est.AmountCents)
}

func TestNormalizeConvertsCurrencyRoundingHalfUp(t *testing.T) {
	n := normalize.New("USD", map[string]float64{"EUR": 1.08})

	// 10.05 EUR * 1.08 = 1085.4 cents -> 1085
	est := n.Normalize(domain.RawQuote{Provider: "rideco", Currency: "EUR", Amount: 10.05})
	require.Equal(t, int64(1085), est.AmountCents)

	// 12.50 EUR * 1.08 = 1350 cents exactly
	est = n.Normalize(domain.RawQuote{Provider: "rideco", Currency: "EUR", Amount: 12.50})
	require.Equal(t, int64(1350), est.AmountCents)
}

func TestNormalizeRoundsExactHalfUp(t *testing.T) {
	n := normalize.New("USD", map[string]float64{"XTS": 0.5})
	// 25 minor units * 0.5 = 12.5 cents -> 13
	est := n.Normalize(domain.RawQuote{Provider: "lynk", Currency: "XTS", Amount: 25, MinorUnits: true})
	require.Equal(t, int64(13), est.AmountCents)
}

func TestNormalizeRejectsMalformedQuotes(t *testing.T) {
	n := normalize.New("USD", nil)

	est := n.Normalize(domain.RawQuote{Provider: "rideco", Currency: "USD", Amount: -4})
	require.False(t, est.Viable)
	require.Contains(t, est.Note, "non-positive")
	require.Equal(t, int64(0), est.AmountCents)

	est = n.Normalize(domain.RawQuote{Provider: "rideco", Currency: "ZZZ", Amount: 10})
	require.False(t, est.Viable)
	require.Contains(t, est.Note, "no conversion rate")
}
