package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks the coordinate is within geographic bounds.
func (p GeoPoint) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range", ErrInvalidRequest, p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: longitude %f out of range", ErrInvalidRequest, p.Lng)
	}
	return nil
}

// VehicleClass enumerates the ride categories riders can request.
type VehicleClass string

const (
	ClassStandard VehicleClass = "standard"
	ClassPremium  VehicleClass = "premium"
	ClassShared   VehicleClass = "shared"
	ClassXL       VehicleClass = "xl"
)

// ParseVehicleClass maps user input onto a known class.
func ParseVehicleClass(s string) (VehicleClass, error) {
	switch VehicleClass(s) {
	case ClassStandard, ClassPremium, ClassShared, ClassXL:
		return VehicleClass(s), nil
	default:
		return "", fmt.Errorf("%w: unknown vehicle class %q", ErrInvalidRequest, s)
	}
}

// RideRequest describes one comparison request. It is built once by the
// caller and read-only inside the pipeline.
type RideRequest struct {
	ID      uuid.UUID
	Pickup  GeoPoint
	Dropoff GeoPoint
	Class   VehicleClass
}

// Validate gates a request before any provider is contacted.
func (r RideRequest) Validate() error {
	if err := r.Pickup.Validate(); err != nil {
		return fmt.Errorf("pickup: %w", err)
	}
	if err := r.Dropoff.Validate(); err != nil {
		return fmt.Errorf("dropoff: %w", err)
	}
	if _, err := ParseVehicleClass(string(r.Class)); err != nil {
		return err
	}
	return nil
}

// RawQuote is what a provider adapter produced before normalization.
// Amounts stay in the provider's own currency and scale; only the
// normalization step interprets them.
type RawQuote struct {
	Provider   string
	Product    string
	Currency   string
	Amount     float64
	MinorUnits bool
	Duration   time.Duration
}

// SourceTag marks how an estimate was obtained.
type SourceTag string

const (
	SourceLive      SourceTag = "live"
	SourceSimulated SourceTag = "simulated"
)

// NormalizedEstimate is the common estimate record the decision engine
// ranks. Amounts are fixed-point cents in the comparison currency.
type NormalizedEstimate struct {
	Provider    string         `json:"provider"`
	Product     string         `json:"product,omitempty"`
	AmountCents int64          `json:"amount_cents"`
	Currency    string         `json:"currency"`
	Duration    *time.Duration `json:"duration,omitempty"`
	Source      SourceTag      `json:"source"`
	Viable      bool           `json:"viable"`
	Note        string         `json:"note,omitempty"`
}

// ComparisonResult carries the full considered set plus the winner. A nil
// winner is the no-viable-provider outcome, not an error. The value is
// request-scoped; nothing survives past the caller.
type ComparisonResult struct {
	RequestID   uuid.UUID            `json:"request_id"`
	Estimates   []NormalizedEstimate `json:"estimates"`
	Winner      *NormalizedEstimate  `json:"winner,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// Viable reports whether any provider produced a usable estimate.
func (c ComparisonResult) Viable() bool { return c.Winner != nil }

// ComparisonEvent is the audit record published after each comparison.
type ComparisonEvent struct {
	RequestID uuid.UUID         `json:"request_id"`
	Class     VehicleClass      `json:"vehicle_class"`
	Outcomes  map[string]string `json:"outcomes"`
	Winner    string            `json:"winner,omitempty"`
	Source    SourceTag         `json:"winner_source,omitempty"`
	At        time.Time         `json:"at"`
}

// EventPublisher forwards comparison events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event ComparisonEvent) error
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
