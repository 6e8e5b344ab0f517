package comparison

import (
	"math"
	"time"

	"justapengu.in/lapcompare/pkg/telemetry"
)

// Range is the half open sample index range [Start, End) of one segment of a lap.
type Range struct {
	Start int `json:"startIndex"`
	End   int `json:"endIndex"`
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Elapsed is the time between the first and last sample of the range. Empty ranges take no
// time.
func (r Range) Elapsed(samples []telemetry.Sample) time.Duration {
	if r.Len() <= 0 {
		return 0
	}

	return samples[r.End-1].Timestamp - samples[r.Start].Timestamp
}

// Segmentation is a lap split into contiguous segments of equal distance.
type Segmentation struct {
	// Requested is the number of segments that was asked for. Ranges may hold fewer, see
	// UnderSegmented.
	Requested int

	Ranges []Range

	TotalDistance float64
	SegmentLength float64
}

// UnderSegmented reports whether the segmentation holds fewer ranges than requested. Segment
// never produces one; it is kept for segmentations assembled by hand.
func (s Segmentation) UnderSegmented() bool {
	return len(s.Ranges) < s.Requested
}

// Slices returns the samples covered by each range.
func (s Segmentation) Slices(samples []telemetry.Sample) [][]telemetry.Sample {
	out := make([][]telemetry.Sample, len(s.Ranges))

	for i, r := range s.Ranges {
		out[i] = samples[r.Start:r.End]
	}

	return out
}

// Segment partitions samples, which must carry distance, into n contiguous segments of equal
// distance in a single forward scan.
//
// Segment k ends at the first sample whose distance is at least (k+1) * total/n; that sample
// starts segment k+1. The boundary of the final segment is the total distance itself and the
// final segment runs to the end of the lap. Every boundary before the last is below the total
// and the last sample sits at the total, so Segment always emits n segments. Callers which
// assemble a Segmentation themselves may hold fewer ranges; UnderSegmented reports those.
//
// A lap that covers no distance produces empty segments followed by a final single sample
// segment at the start of the lap.
func Segment(samples []telemetry.Sample, n int) (Segmentation, error) {
	const op = "segment"

	if n <= 0 {
		return Segmentation{}, invalidInput(op, "segment count must be positive, got %d", n)
	}

	if len(samples) == 0 {
		return Segmentation{}, invalidInput(op, "lap has no samples")
	}

	total := samples[len(samples)-1].Distance

	if math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
		return Segmentation{}, invalidInput(op, "total distance %f is not a valid distance", total)
	}

	segmentation := Segmentation{
		Requested:     n,
		Ranges:        make([]Range, 0, n),
		TotalDistance: total,
		SegmentLength: total / float64(n),
	}

	start, cursor := 0, 0

	for k := 1; k <= n; k++ {
		threshold := float64(k) * segmentation.SegmentLength

		if k == n {
			threshold = total
		}

		for cursor < len(samples) && samples[cursor].Distance < threshold {
			cursor++
		}

		if cursor == len(samples) {
			break
		}

		end := cursor

		if k == n {
			end = len(samples)
		}

		segmentation.Ranges = append(segmentation.Ranges, Range{Start: start, End: end})
		start = end
	}

	return segmentation, nil
}
