// Package geocode resolves free-text places to coordinates. It is a
// collaborator of the comparison core, which only ever sees resolved
// GeoPoints.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/example/farescout/internal/quote/domain"
)

// ErrNotFound indicates the place could not be resolved.
var ErrNotFound = errors.New("place not found")

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (domain.GeoPoint, error)
}

// NominatimClient geocodes through the OpenStreetMap Nominatim search API.
type NominatimClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewNominatimClient constructs a client. Nominatim requires an
// identifying User-Agent on every request.
func NewNominatimClient(baseURL, userAgent string, timeout time.Duration) *NominatimClient {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	if userAgent == "" {
		userAgent = "farescout/1.0"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NominatimClient{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves the given place to its best-ranked coordinate.
func (c *NominatimClient) Geocode(ctx context.Context, place string) (domain.GeoPoint, error) {
	q := url.Values{}
	q.Set("q", place)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.GeoPoint{}, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("nominatim decode: %w", err)
	}
	if len(results) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("%w: %q", ErrNotFound, place)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("nominatim latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("nominatim longitude: %w", err)
	}

	point := domain.GeoPoint{Lat: lat, Lng: lng}
	if err := point.Validate(); err != nil {
		return domain.GeoPoint{}, err
	}
	return point, nil
}
