package provider

import (
	"math"
	"time"

	"github.com/example/farescout/internal/quote/domain"
)

// Heuristic prices a request without contacting the provider. The returned
// amount is in comparison-currency cents.
type Heuristic interface {
	Simulate(req domain.RideRequest) (cents int64, duration time.Duration)
}

// ClassRate holds the fallback pricing table entry for one vehicle class.
type ClassRate struct {
	BaseCents  int64
	PerKMCents int64
}

// TableHeuristic estimates fares from haversine distance and a per-class
// rate table. A confidence discount below 1.0 keeps simulated prices
// distinguishable from live quotes in close rankings.
type TableHeuristic struct {
	Rates       map[domain.VehicleClass]ClassRate
	AvgSpeedKMH float64
	Discount    float64
}

// NewTableHeuristic builds a heuristic with documented defaults: city-scale
// base fares, a 35 km/h average speed, and a 0.90 confidence discount.
func NewTableHeuristic(discount float64) TableHeuristic {
	if discount <= 0 || discount > 1 {
		discount = 0.90
	}
	return TableHeuristic{
		Rates: map[domain.VehicleClass]ClassRate{
			domain.ClassStandard: {BaseCents: 250, PerKMCents: 160},
			domain.ClassShared:   {BaseCents: 200, PerKMCents: 110},
			domain.ClassPremium:  {BaseCents: 550, PerKMCents: 290},
			domain.ClassXL:       {BaseCents: 400, PerKMCents: 220},
		},
		AvgSpeedKMH: 35,
		Discount:    discount,
	}
}

// Simulate implements Heuristic.
func (h TableHeuristic) Simulate(req domain.RideRequest) (int64, time.Duration) {
	rate, ok := h.Rates[req.Class]
	if !ok {
		rate = h.Rates[domain.ClassStandard]
	}
	km := haversineKM(req.Pickup, req.Dropoff)
	raw := float64(rate.BaseCents) + km*float64(rate.PerKMCents)
	cents := int64(math.Floor(raw*h.Discount + 0.5))

	speed := h.AvgSpeedKMH
	if speed <= 0 {
		speed = 35
	}
	duration := time.Duration(km/speed*3600) * time.Second
	return cents, duration
}

func haversineKM(a, b domain.GeoPoint) float64 {
	const earthRadiusKM = 6371.0
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dlat := toRadians(b.Lat - a.Lat)
	dlng := toRadians(b.Lng - a.Lng)

	sinDlat := math.Sin(dlat / 2)
	sinDlng := math.Sin(dlng / 2)
	h := sinDlat*sinDlat + math.Cos(lat1)*math.Cos(lat2)*sinDlng*sinDlng
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKM * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
