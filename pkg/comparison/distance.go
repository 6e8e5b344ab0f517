package comparison

import (
	"justapengu.in/lapcompare/pkg/telemetry"
)

// AddDistance returns a copy of samples with Distance set to the cumulative path length from
// the first sample. Each step is the straight line distance between consecutive raw positions,
// elevation included. Distance is zero at index 0 and never decreases.
func AddDistance(samples []telemetry.Sample) ([]telemetry.Sample, error) {
	const op = "add distance"

	if len(samples) == 0 {
		return nil, invalidInput(op, "lap has no samples")
	}

	out := make([]telemetry.Sample, len(samples))

	for i, sample := range samples {
		if !sample.Position.IsFinite() {
			return nil, invalidInput(op, "sample %d has a non-finite position %+v", i, sample.Position)
		}

		out[i] = sample

		if i == 0 {
			out[i].Distance = 0
			continue
		}

		out[i].Distance = out[i-1].Distance + samples[i-1].Position.DistanceTo(sample.Position)
	}

	return out, nil
}
