package comparison

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"justapengu.in/lapcompare/pkg/telemetry"
)

// fullThrottle is the throttle channel value at and above which the pedal counts as flat out.
const fullThrottle = 99

// SegmentStats summarises the channels of one segment of a lap.
type SegmentStats struct {
	Distance     float64 `json:"distance"`
	MeanSpeed    float64 `json:"meanSpeed"`
	MinSpeed     float64 `json:"minSpeed"`
	MaxSpeed     float64 `json:"maxSpeed"`
	FullThrottle float64 `json:"fullThrottle"`
	Braking      float64 `json:"braking"`
}

// Stats summarises the samples of r. FullThrottle and Braking are the fraction of samples with
// the throttle flat out and the brake applied.
func Stats(samples []telemetry.Sample, r Range) SegmentStats {
	if r.Len() <= 0 {
		return SegmentStats{}
	}

	segment := samples[r.Start:r.End]
	speeds := make([]float64, len(segment))

	var throttle, braking float64

	for i, sample := range segment {
		speeds[i] = sample.Speed

		if sample.Throttle >= fullThrottle {
			throttle++
		}

		if sample.Brake {
			braking++
		}
	}

	n := float64(len(segment))

	return SegmentStats{
		Distance:     segment[len(segment)-1].Distance - segment[0].Distance,
		MeanSpeed:    stat.Mean(speeds, nil),
		MinSpeed:     floats.Min(speeds),
		MaxSpeed:     floats.Max(speeds),
		FullThrottle: throttle / n,
		Braking:      braking / n,
	}
}
