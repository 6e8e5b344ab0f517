// Package comparison compares two laps of the same circuit segment by segment.
//
// Each lap is prepared independently: cumulative distance is added to its samples, positions
// are rotated into the circuit's canonical orientation and the lap is cut into segments of
// equal distance. Segments are then paired by ordinal and the lap which covered each segment in
// less time wins it. Every function in this package is pure; laps may be prepared concurrently.
package comparison

import (
	"time"

	"justapengu.in/lapcompare/pkg/telemetry"
)

type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// PreparedLap is a lap with distance added, positions normalised and segments computed.
type PreparedLap struct {
	Lap          telemetry.Lap
	Segmentation Segmentation
}

// Prepare runs a lap through distance accumulation, normalisation and segmentation.
func Prepare(lap telemetry.Lap, angle float64, segments int) (*PreparedLap, error) {
	samples, err := AddDistance(lap.Samples)

	if err != nil {
		return nil, err
	}

	samples, err = Normalize(samples, angle)

	if err != nil {
		return nil, err
	}

	segmentation, err := Segment(samples, segments)

	if err != nil {
		return nil, err
	}

	return &PreparedLap{
		Lap:          lap.WithSamples(samples),
		Segmentation: segmentation,
	}, nil
}

// DriverLookup resolves a driver number to the driver's details. It is supplied by whoever
// assembles results for presentation; the comparison itself only deals in driver numbers.
type DriverLookup func(number string) (telemetry.DriverInfo, bool)

type SegmentResult struct {
	Ordinal int

	// Winner is the lap which covered the segment in strictly less time. Ties go to lap B.
	Winner       Side
	WinnerDriver string

	LapA Range
	LapB Range

	ElapsedA time.Duration
	ElapsedB time.Duration
}

// Delta is lap A's time over the segment minus lap B's.
func (s SegmentResult) Delta() time.Duration {
	return s.ElapsedA - s.ElapsedB
}

type Result struct {
	// Requested is the number of segments each lap was cut into. Segments holds fewer entries
	// when either lap was under segmented.
	Requested int
	Segments  []SegmentResult

	LapA *PreparedLap
	LapB *PreparedLap
}

func (r *Result) UnderSegmented() bool {
	return len(r.Segments) < r.Requested
}

// Wins counts the segments won by side.
func (r *Result) Wins(side Side) int {
	wins := 0

	for _, segment := range r.Segments {
		if segment.Winner == side {
			wins++
		}
	}

	return wins
}

// Compare prepares both laps with the same track angle (radians) and segment count and
// compares them segment by segment.
func Compare(lapA, lapB telemetry.Lap, angle float64, segments int) (*Result, error) {
	a, err := Prepare(lapA, angle, segments)

	if err != nil {
		return nil, err
	}

	b, err := Prepare(lapB, angle, segments)

	if err != nil {
		return nil, err
	}

	return ComparePrepared(a, b)
}

// ComparePrepared compares two laps which have already been prepared with the same segment
// count. Segments are paired by ordinal up to the shorter of the two segmentations.
func ComparePrepared(a, b *PreparedLap) (*Result, error) {
	if a == nil || b == nil {
		return nil, invalidInput("compare", "both laps must be prepared")
	}

	if a.Segmentation.Requested != b.Segmentation.Requested {
		return nil, invalidInput("compare", "laps were cut into different segment counts (%d and %d)", a.Segmentation.Requested, b.Segmentation.Requested)
	}

	pairs := len(a.Segmentation.Ranges)

	if len(b.Segmentation.Ranges) < pairs {
		pairs = len(b.Segmentation.Ranges)
	}

	result := &Result{
		Requested: a.Segmentation.Requested,
		Segments:  make([]SegmentResult, 0, pairs),
		LapA:      a,
		LapB:      b,
	}

	for i := 0; i < pairs; i++ {
		rangeA, rangeB := a.Segmentation.Ranges[i], b.Segmentation.Ranges[i]

		segment := SegmentResult{
			Ordinal:  i,
			LapA:     rangeA,
			LapB:     rangeB,
			ElapsedA: rangeA.Elapsed(a.Lap.Samples),
			ElapsedB: rangeB.Elapsed(b.Lap.Samples),
		}

		if segment.ElapsedA < segment.ElapsedB {
			segment.Winner = SideA
			segment.WinnerDriver = a.Lap.Info.DriverNumber
		} else {
			segment.Winner = SideB
			segment.WinnerDriver = b.Lap.Info.DriverNumber
		}

		result.Segments = append(result.Segments, segment)
	}

	return result, nil
}
