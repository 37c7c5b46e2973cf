package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/farescout/internal/geocode"
	"github.com/example/farescout/internal/quote/domain"
)

// gateway resolves free-text places to coordinates and forwards the
// comparison to the quote service. All decision logic stays behind that
// service; this layer only translates and presents.
type gateway struct {
	geocoder geocode.Geocoder
	quotes   *quoteClient
	logger   *zap.Logger
}

type estimatePayload struct {
	Pickup       string `json:"pickup"`
	Dropoff      string `json:"dropoff"`
	VehicleClass string `json:"vehicle_class"`
}

type estimateResponse struct {
	Pickup       domain.GeoPoint         `json:"pickup"`
	Dropoff      domain.GeoPoint         `json:"dropoff"`
	VehicleClass string                  `json:"vehicle_class"`
	Result       domain.ComparisonResult `json:"result"`
}

func (g *gateway) estimate(w http.ResponseWriter, r *http.Request) {
	var payload estimatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, status, err := g.run(r.Context(), payload)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// estimateText renders the comparison as a plain-text report, mirroring
// the JSON endpoint for terminal use.
func (g *gateway) estimateText(w http.ResponseWriter, r *http.Request) {
	payload := estimatePayload{
		Pickup:       r.URL.Query().Get("pickup"),
		Dropoff:      r.URL.Query().Get("dropoff"),
		VehicleClass: r.URL.Query().Get("vehicle_class"),
	}
	resp, status, err := g.run(r.Context(), payload)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(formatText(payload, resp.Result)))
}

func (g *gateway) run(ctx context.Context, payload estimatePayload) (estimateResponse, int, error) {
	if strings.TrimSpace(payload.Pickup) == "" || strings.TrimSpace(payload.Dropoff) == "" {
		return estimateResponse{}, http.StatusBadRequest, errors.New("pickup and dropoff are required")
	}
	if payload.VehicleClass == "" {
		payload.VehicleClass = string(domain.ClassStandard)
	}

	pickup, err := g.geocoder.Geocode(ctx, payload.Pickup)
	if err != nil {
		return estimateResponse{}, geocodeStatus(err), fmt.Errorf("pickup: %w", err)
	}
	dropoff, err := g.geocoder.Geocode(ctx, payload.Dropoff)
	if err != nil {
		return estimateResponse{}, geocodeStatus(err), fmt.Errorf("dropoff: %w", err)
	}

	result, err := g.quotes.Compare(ctx, pickup, dropoff, payload.VehicleClass)
	if err != nil {
		g.logger.Error("quote service call failed", zap.Error(err))
		return estimateResponse{}, http.StatusBadGateway, err
	}
	return estimateResponse{
		Pickup:       pickup,
		Dropoff:      dropoff,
		VehicleClass: payload.VehicleClass,
		Result:       result,
	}, http.StatusOK, nil
}

func geocodeStatus(err error) int {
	if errors.Is(err, geocode.ErrNotFound) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

// quoteClient is the thin HTTP client for the quote service.
type quoteClient struct {
	baseURL string
	client  *http.Client
}

func newQuoteClient(baseURL string, timeout time.Duration) *quoteClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &quoteClient{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

func (c *quoteClient) Compare(ctx context.Context, pickup, dropoff domain.GeoPoint, class string) (domain.ComparisonResult, error) {
	body, err := json.Marshal(map[string]any{
		"pickup":        pickup,
		"dropoff":       dropoff,
		"vehicle_class": class,
	})
	if err != nil {
		return domain.ComparisonResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/quotes/compare", bytes.NewReader(body))
	if err != nil {
		return domain.ComparisonResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.ComparisonResult{}, fmt.Errorf("quote service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.ComparisonResult{}, fmt.Errorf("quote service status %d", resp.StatusCode)
	}

	var result domain.ComparisonResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.ComparisonResult{}, fmt.Errorf("quote service decode: %w", err)
	}
	return result, nil
}

func formatText(payload estimatePayload, result domain.ComparisonResult) string {
	var b strings.Builder
	b.WriteString("FARESCOUT RESULTS\n")
	b.WriteString("=================\n")
	fmt.Fprintf(&b, "Pickup:  %s\n", payload.Pickup)
	fmt.Fprintf(&b, "Dropoff: %s\n", payload.Dropoff)
	fmt.Fprintf(&b, "Class:   %s\n\n", payload.VehicleClass)

	if len(result.Estimates) == 0 {
		b.WriteString("No estimates available.\n")
		return b.String()
	}

	b.WriteString("Estimates:\n")
	for _, est := range result.Estimates {
		if !est.Viable {
			note := ""
			if est.Note != "" {
				note = " (" + est.Note + ")"
			}
			fmt.Fprintf(&b, "- %-8s | not available%s\n", strings.ToUpper(est.Provider), note)
			continue
		}
		eta := "?"
		if est.Duration != nil {
			eta = fmt.Sprintf("%d min", int(est.Duration.Minutes()))
		}
		fmt.Fprintf(&b, "- %-8s | %s %s | %s | ETA %s\n",
			strings.ToUpper(est.Provider), formatCents(est.AmountCents), est.Currency, est.Source, eta)
	}

	if result.Winner != nil {
		fmt.Fprintf(&b, "\nCheapest: %s at %s %s (%s)\n",
			strings.ToUpper(result.Winner.Provider), formatCents(result.Winner.AmountCents),
			result.Winner.Currency, result.Winner.Source)
	} else {
		b.WriteString("\nNo provider can serve this trip.\n")
	}
	return b.String()
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
