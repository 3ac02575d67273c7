package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}

// StepToward moves from the first point toward the second along the great
// circle by fraction of the distance between them. fraction is clamped to [0, 1].
// The returned longitude may fall outside [-180, 180]; callers normalize.
func StepToward(lat1, lon1, lat2, lon2, fraction float64) (lat, lon float64) {
	fraction = math.Max(0, math.Min(1, fraction))
	from := orb.Point{lon1, lat1}
	to := orb.Point{lon2, lat2}

	dist := geo.DistanceHaversine(from, to)
	if dist == 0 || fraction == 0 {
		return lat1, lon1
	}

	p := geo.PointAtBearingAndDistance(from, geo.Bearing(from, to), dist*fraction)
	return p.Lat(), p.Lon()
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
