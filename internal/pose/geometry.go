package pose

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// magnitudeEpsilon keeps AngleAt finite for zero-length rays.
const magnitudeEpsilon = 1e-9

// AngleAt returns the angle in degrees at vertex b between the rays b→a and b→c,
// measured in the image plane. The result is always in [0, 180] and the
// function is symmetric in a and c.
func AngleAt(a, b, c Landmark) float64 {
	ba := r2.Sub(a.plane(), b.plane())
	bc := r2.Sub(c.plane(), b.plane())

	mag := r2.Norm(ba) * r2.Norm(bc)
	cos := r2.Dot(ba, bc) / math.Max(mag, magnitudeEpsilon)
	// Rounding can push the ratio just past ±1.
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi
}

// Midpoint returns the landmark halfway between a and b.
// Visibility is the lower of the two.
func Midpoint(a, b Landmark) Landmark {
	return Landmark{
		X:          (a.X + b.X) / 2,
		Y:          (a.Y + b.Y) / 2,
		Z:          (a.Z + b.Z) / 2,
		Visibility: math.Min(a.Visibility, b.Visibility),
	}
}

// MeanX returns the average horizontal position of the given landmarks.
func MeanX(points ...Landmark) float64 {
	if len(points) == 0 {
		return 0
	}
	xs := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
	}
	return stat.Mean(xs, nil)
}

// Distance returns the Euclidean distance between a and b in the image plane.
func Distance(a, b Landmark) float64 {
	return r2.Norm(r2.Sub(a.plane(), b.plane()))
}

func (l Landmark) plane() r2.Vec {
	return r2.Vec{X: l.X, Y: l.Y}
}
