// Package meetpoint computes fair meeting points for a group of members.
//
// SphericalMidpoint averages member locations on the unit sphere, which keeps
// the result sane across the antimeridian and near the poles. Optimizer refines
// that seed using travel times reported by a ports.TravelTimeOracle.
package meetpoint

import (
	"fmt"
	"math"

	"github.com/anupsamy/squadup/internal/core/domain"
	"github.com/anupsamy/squadup/internal/pkg/geospatial"
)

// SphericalMidpoint returns the geographic midpoint of points.
//
// For (near-)antipodal inputs the averaged vector collapses towards zero and
// the result is defined but meaningless.
func SphericalMidpoint(points []domain.GeoPoint) (domain.GeoPoint, error) {
	if len(points) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("spherical midpoint: %w: no points", domain.ErrInvalidArgument)
	}

	var sum geospatial.Vector
	for _, p := range points {
		sum = sum.Add(geospatial.ToVector(p.Lat, p.Lng), 1)
	}
	lat, lng := sum.Scale(1 / float64(len(points))).LatLon()

	return domain.GeoPoint{Lat: lat, Lng: lng}.Normalize(), nil
}

// WeightedSphericalMidpoint is SphericalMidpoint with a weight per point.
// Points with a zero weight are ignored.
func WeightedSphericalMidpoint(points []domain.GeoPoint, weights []float64) (domain.GeoPoint, error) {
	if len(points) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("weighted midpoint: %w: no points", domain.ErrInvalidArgument)
	}
	if len(points) != len(weights) {
		return domain.GeoPoint{}, fmt.Errorf("weighted midpoint: %w: %d points, %d weights",
			domain.ErrInvalidArgument, len(points), len(weights))
	}

	var (
		sum   geospatial.Vector
		total float64
	)
	for i, p := range points {
		w := weights[i]
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return domain.GeoPoint{}, fmt.Errorf("weighted midpoint: %w: bad weight %v at %d",
				domain.ErrInvalidArgument, w, i)
		}
		sum = sum.Add(geospatial.ToVector(p.Lat, p.Lng), w)
		total += w
	}
	if total <= 0 {
		return domain.GeoPoint{}, fmt.Errorf("weighted midpoint: %w: total weight is zero", domain.ErrInvalidArgument)
	}

	lat, lng := sum.Scale(1 / total).LatLon()
	return domain.GeoPoint{Lat: lat, Lng: lng}.Normalize(), nil
}

// allSame reports whether every point is within toleranceMeters of the first.
func allSame(points []domain.GeoPoint, toleranceMeters float64) bool {
	for _, p := range points[1:] {
		if distanceMeters(points[0], p) >= toleranceMeters {
			return false
		}
	}
	return true
}

func distanceMeters(a, b domain.GeoPoint) float64 {
	return geospatial.Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}
