// Package geometry holds the small amount of planar maths the lap comparison needs.
package geometry

import "math"

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rotate multiplies the row vector p by the matrix
//
//	[ cos θ  sin θ ]
//	[-sin θ  cos θ ]
//
// which is the convention circuit rotation angles are published in. Rotate(p, 0) is p and
// Rotate(Rotate(p, θ), -θ) is p, up to floating point error.
func Rotate(p Point, angle float64) Point {
	sin, cos := math.Sincos(angle)

	return Point{
		X: p.X*cos - p.Y*sin,
		Y: p.X*sin + p.Y*cos,
	}
}

// Radians converts a circuit rotation in degrees to radians.
func Radians(degrees float64) float64 {
	return degrees / 180 * math.Pi
}
