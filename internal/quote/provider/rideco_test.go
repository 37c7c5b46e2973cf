package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/farescout/internal/quote/domain"
	"github.com/example/farescout/internal/quote/provider"
)

var testRide = domain.RideRequest{
	Pickup:  domain.GeoPoint{Lat: 40.7128, Lng: -74.0060},
	Dropoff: domain.GeoPoint{Lat: 40.6413, Lng: -73.7781},
	Class:   domain.ClassStandard,
}

func TestRideCoQuoteSelectsRequestedProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/estimates/price", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.Equal(t, "40.712800", r.URL.Query().Get("start_latitude"))
		require.Equal(t, "-73.778100", r.URL.Query().Get("end_longitude"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"prices":[
			{"display_name":"RideXL","low_estimate":31.0,"high_estimate":38.0,"currency_code":"USD","duration":900},
			{"display_name":"RideX","low_estimate":18.5,"high_estimate":24.0,"currency_code":"USD","duration":840}
		]}`))
	}))
	defer srv.Close()

	a := provider.NewRideCo(provider.RideCoConfig{BaseURL: srv.URL, Token: "secret"})
	raw, err := a.Quote(context.Background(), testRide)
	require.NoError(t, err)
	require.Equal(t, "rideco", raw.Provider)
	require.Equal(t, "RideX", raw.Product)
	require.Equal(t, 18.5, raw.Amount)
	require.False(t, raw.MinorUnits)
	require.Equal(t, 14*time.Minute, raw.Duration)
}

func TestRideCoQuoteWithoutTokenSkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	a := provider.NewRideCo(provider.RideCoConfig{BaseURL: srv.URL})
	_, err := a.Quote(context.Background(), testRide)

	perr, ok := domain.AsProviderError(err)
	require.True(t, ok)
	require.Equal(t, domain.FailureAccessDenied, perr.Code)
	require.False(t, called)
}

func TestRideCoQuoteStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		code   domain.FailureCode
	}{
		{http.StatusUnauthorized, domain.FailureAccessDenied},
		{http.StatusForbidden, domain.FailureAccessDenied},
		{http.StatusNotFound, domain.FailureNoCoverage},
		{http.StatusInternalServerError, domain.FailureUnavailable},
		{http.StatusBadGateway, domain.FailureUnavailable},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		a := provider.NewRideCo(provider.RideCoConfig{BaseURL: srv.URL, Token: "secret"})
		_, err := a.Quote(context.Background(), testRide)
		srv.Close()

		perr, ok := domain.AsProviderError(err)
		require.True(t, ok, "status %d", tc.status)
		require.Equal(t, tc.code, perr.Code, "status %d", tc.status)
		require.Equal(t, "rideco", perr.Provider)
	}
}

func TestRideCoQuoteEmptyPriceListIsNoCoverage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prices":[]}`))
	}))
	defer srv.Close()

	a := provider.NewRideCo(provider.RideCoConfig{BaseURL: srv.URL, Token: "secret"})
	_, err := a.Quote(context.Background(), testRide)

	perr, ok := domain.AsProviderError(err)
	require.True(t, ok)
	require.Equal(t, domain.FailureNoCoverage, perr.Code)
}

func TestRideCoQuoteTimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	a := provider.NewRideCo(provider.RideCoConfig{BaseURL: srv.URL, Token: "secret", Timeout: 20 * time.Millisecond})
	_, err := a.Quote(context.Background(), testRide)

	perr, ok := domain.AsProviderError(err)
	require.True(t, ok)
	require.Equal(t, domain.FailureUnavailable, perr.Code)
}
