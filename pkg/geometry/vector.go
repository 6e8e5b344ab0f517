package geometry

import "math"

// Vector3 is a position in the raw track frame. X and Y lie in the track plane, Z is elevation.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (a Vector3) DistanceTo(b Vector3) float64 {
	return b.Sub(a).Magnitude()
}

func (a Vector3) Sub(b Vector3) Vector3 {
	return Vector3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func (a Vector3) Add(b Vector3) Vector3 {
	return Vector3{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}

func (a Vector3) Mul(f float64) Vector3 {
	return Vector3{X: a.X * f, Y: a.Y * f, Z: a.Z * f}
}

func (a Vector3) Magnitude() float64 {
	return math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
}

func (a Vector3) Normalize() Vector3 {
	m := a.Magnitude()

	if m == 0 {
		return Vector3{}
	}

	return a.Mul(1 / m)
}

// IsFinite reports whether no component is NaN or infinite.
func (a Vector3) IsFinite() bool {
	return isFinite(a.X) && isFinite(a.Y) && isFinite(a.Z)
}

// Planar drops the elevation component.
func (a Vector3) Planar() Point {
	return Point{X: a.X, Y: a.Y}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
