package comparison

import (
	"math"

	"justapengu.in/lapcompare/pkg/geometry"
	"justapengu.in/lapcompare/pkg/telemetry"
)

// Normalize returns a copy of samples with each planar position rotated by the track angle
// (radians). Elevation, distance, timestamps and channels are left as they are. Both laps of a
// comparison must be normalised with the same angle.
func Normalize(samples []telemetry.Sample, angle float64) ([]telemetry.Sample, error) {
	const op = "normalize"

	if len(samples) == 0 {
		return nil, invalidInput(op, "lap has no samples")
	}

	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return nil, invalidInput(op, "track angle %f is not finite", angle)
	}

	out := make([]telemetry.Sample, len(samples))

	for i, sample := range samples {
		rotated := geometry.Rotate(sample.Position.Planar(), angle)

		out[i] = sample
		out[i].Position.X = rotated.X
		out[i].Position.Y = rotated.Y
	}

	return out, nil
}
