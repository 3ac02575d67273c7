package geospatial

import "math"

// Vector is a point on the unit sphere in earth-centred cartesian coordinates.
type Vector struct {
	X, Y, Z float64
}

// ToVector converts degrees to a unit vector.
func ToVector(lat, lon float64) Vector {
	phi, lambda := toRad(lat), toRad(lon)
	return Vector{
		X: math.Cos(phi) * math.Cos(lambda),
		Y: math.Cos(phi) * math.Sin(lambda),
		Z: math.Sin(phi),
	}
}

// LatLon converts a (not necessarily unit) vector back to degrees.
// A zero vector yields (0, 0): atan2(0, 0) is 0.
func (v Vector) LatLon() (lat, lon float64) {
	hyp := math.Sqrt(v.X*v.X + v.Y*v.Y)
	return toDeg(math.Atan2(v.Z, hyp)), toDeg(math.Atan2(v.Y, v.X))
}

// Add returns v + w scaled by weight.
func (v Vector) Add(w Vector, weight float64) Vector {
	return Vector{X: v.X + w.X*weight, Y: v.Y + w.Y*weight, Z: v.Z + w.Z*weight}
}

// Scale returns v multiplied by s.
func (v Vector) Scale(s float64) Vector {
	return Vector{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}
