package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/example/farescout/internal/quote/domain"
)

const lynkName = "lynk"

var lynkRideTypes = map[domain.VehicleClass]string{
	domain.ClassStandard: "lynk",
	domain.ClassXL:       "lynk_xl",
	domain.ClassPremium:  "lynk_lux",
	domain.ClassShared:   "lynk_line",
}

// LynkConfig holds the pre-validated credentials and limits for Lynk.
type LynkConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Lynk fetches cost estimates from the Lynk cost endpoint. Amounts come
// back in minor currency units.
type Lynk struct {
	cfg    LynkConfig
	client *http.Client
}

// NewLynk constructs the adapter. A zero timeout defaults to 3s.
func NewLynk(cfg LynkConfig) *Lynk {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &Lynk{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// Name implements Adapter.
func (a *Lynk) Name() string { return lynkName }

// Live implements Adapter.
func (a *Lynk) Live() bool { return true }

type lynkCostEstimate struct {
	RideType        string `json:"ride_type"`
	CostCentsMin    int64  `json:"estimated_cost_cents_min"`
	CostCentsMax    int64  `json:"estimated_cost_cents_max"`
	Currency        string `json:"currency"`
	DurationSeconds int    `json:"estimated_duration_seconds"`
}

type lynkCostResponse struct {
	CostEstimates []lynkCostEstimate `json:"cost_estimates"`
}

// Quote fetches cost estimates and selects the ride type matching the
// requested class.
func (a *Lynk) Quote(ctx context.Context, req domain.RideRequest) (domain.RawQuote, error) {
	if a.cfg.Token == "" {
		return domain.RawQuote{}, domain.NewProviderError(lynkName, domain.FailureAccessDenied, fmt.Errorf("no access token configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	rideType := lynkRideTypes[req.Class]
	q := url.Values{}
	q.Set("start_lat", formatCoord(req.Pickup.Lat))
	q.Set("start_lng", formatCoord(req.Pickup.Lng))
	q.Set("end_lat", formatCoord(req.Dropoff.Lat))
	q.Set("end_lng", formatCoord(req.Dropoff.Lng))
	q.Set("ride_type", rideType)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+"/v1/cost?"+q.Encode(), nil)
	if err != nil {
		return domain.RawQuote{}, domain.NewProviderError(lynkName, domain.FailureUnavailable, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.Token)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return domain.RawQuote{}, classifyTransport(lynkName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.RawQuote{}, classifyStatus(lynkName, resp.StatusCode)
	}

	var payload lynkCostResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.RawQuote{}, domain.NewProviderError(lynkName, domain.FailureUnavailable, fmt.Errorf("decode: %w", err))
	}

	for _, estimate := range payload.CostEstimates {
		if estimate.RideType != rideType {
			continue
		}
		return domain.RawQuote{
			Provider:   lynkName,
			Product:    estimate.RideType,
			Currency:   estimate.Currency,
			Amount:     float64(estimate.CostCentsMin),
			MinorUnits: true,
			Duration:   time.Duration(estimate.DurationSeconds) * time.Second,
		}, nil
	}
	return domain.RawQuote{}, domain.NewProviderError(lynkName, domain.FailureNoCoverage, fmt.Errorf("ride type %s not offered for this trip", rideType))
}
