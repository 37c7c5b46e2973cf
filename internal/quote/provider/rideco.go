package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/example/farescout/internal/quote/domain"
)

const ridecoName = "rideco"

// ridecoProducts maps vehicle classes onto RideCo product display names.
var ridecoProducts = map[domain.VehicleClass]string{
	domain.ClassStandard: "RideX",
	domain.ClassXL:       "RideXL",
	domain.ClassPremium:  "RideBlack",
	domain.ClassShared:   "RidePool",
}

// RideCoConfig holds the pre-validated credentials and limits for RideCo.
type RideCoConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// RideCo fetches price estimates from the RideCo price endpoint. Responses
// carry per-product low/high estimates in major currency units.
type RideCo struct {
	cfg    RideCoConfig
	client *http.Client
}

// NewRideCo constructs the adapter. A zero timeout defaults to 3s.
func NewRideCo(cfg RideCoConfig) *RideCo {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &RideCo{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// Name implements Adapter.
func (a *RideCo) Name() string { return ridecoName }

// Live implements Adapter. RideCo is live-capable when a token is present.
func (a *RideCo) Live() bool { return true }

type ridecoPrice struct {
	DisplayName  string  `json:"display_name"`
	LowEstimate  float64 `json:"low_estimate"`
	HighEstimate float64 `json:"high_estimate"`
	CurrencyCode string  `json:"currency_code"`
	Duration     int     `json:"duration"`
}

type ridecoPriceResponse struct {
	Prices []ridecoPrice `json:"prices"`
}

// Quote fetches the price list and selects the product matching the
// requested class. The low estimate is what enters the comparison.
func (a *RideCo) Quote(ctx context.Context, req domain.RideRequest) (domain.RawQuote, error) {
	if a.cfg.Token == "" {
		return domain.RawQuote{}, domain.NewProviderError(ridecoName, domain.FailureAccessDenied, fmt.Errorf("no server token configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("start_latitude", formatCoord(req.Pickup.Lat))
	q.Set("start_longitude", formatCoord(req.Pickup.Lng))
	q.Set("end_latitude", formatCoord(req.Dropoff.Lat))
	q.Set("end_longitude", formatCoord(req.Dropoff.Lng))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+"/v1/estimates/price?"+q.Encode(), nil)
	if err != nil {
		return domain.RawQuote{}, domain.NewProviderError(ridecoName, domain.FailureUnavailable, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.Token)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return domain.RawQuote{}, classifyTransport(ridecoName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.RawQuote{}, classifyStatus(ridecoName, resp.StatusCode)
	}

	var payload ridecoPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.RawQuote{}, domain.NewProviderError(ridecoName, domain.FailureUnavailable, fmt.Errorf("decode: %w", err))
	}

	product := ridecoProducts[req.Class]
	for _, price := range payload.Prices {
		if price.DisplayName != product {
			continue
		}
		return domain.RawQuote{
			Provider: ridecoName,
			Product:  price.DisplayName,
			Currency: price.CurrencyCode,
			Amount:   price.LowEstimate,
			Duration: time.Duration(price.Duration) * time.Second,
		}, nil
	}
	return domain.RawQuote{}, domain.NewProviderError(ridecoName, domain.FailureNoCoverage, fmt.Errorf("no %s product for this trip", product))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
