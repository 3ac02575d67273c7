package traveltime

import (
	"context"
	"fmt"

	"github.com/anupsamy/squadup/internal/core/domain"
	"github.com/anupsamy/squadup/internal/pkg/geospatial"
	"github.com/anupsamy/squadup/internal/pkg/metrics"
)

// Average door-to-door speeds in km/h.
var defaultSpeeds = map[domain.TravelMode]float64{
	domain.TravelModeDriving:   40,
	domain.TravelModeWalking:   5,
	domain.TravelModeBicycling: 15,
	domain.TravelModeTransit:   25,
}

// detourFactor stretches the great-circle distance toward a road distance.
const detourFactor = 1.3

// Estimator derives travel times from great-circle distance and a per-mode
// speed. It needs no network and never reports a destination unreachable.
type Estimator struct {
	speeds map[domain.TravelMode]float64
}

// NewEstimator returns an Estimator with default speeds.
func NewEstimator() *Estimator {
	return &Estimator{speeds: defaultSpeeds}
}

// TravelTime implements ports.TravelTimeOracle.
func (e *Estimator) TravelTime(_ context.Context, origin domain.GeoPoint, mode domain.TravelMode, destination domain.GeoPoint) (float64, error) {
	if !origin.Valid() || !destination.Valid() {
		return 0, fmt.Errorf("estimate: %w: coordinates out of range", domain.ErrInvalidArgument)
	}
	speed, ok := e.speeds[mode]
	if !ok {
		return 0, fmt.Errorf("estimate: %w: travel mode %q", domain.ErrInvalidArgument, mode)
	}

	km := geospatial.Haversine(origin.Lat, origin.Lng, destination.Lat, destination.Lng) / 1000 * detourFactor
	metrics.OracleCalls.WithLabelValues("estimator", string(mode), "ok").Inc()
	return km / speed * 60, nil
}
