package comparison

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"justapengu.in/lapcompare/pkg/geometry"
	"justapengu.in/lapcompare/pkg/telemetry"
)

func compareFloatsTolerance(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// linearLap builds a lap along the x axis whose distance and timestamps both increase linearly
// from zero to totalDistance and totalTime over n samples.
func linearLap(driver string, n int, totalDistance float64, totalTime time.Duration) telemetry.Lap {
	samples := make([]telemetry.Sample, n)

	for i := range samples {
		fraction := 0.0

		if n > 1 {
			fraction = float64(i) / float64(n-1)
		}

		samples[i] = telemetry.Sample{
			Timestamp: time.Duration(fraction * float64(totalTime)),
			Position:  geometry.Vector3{X: fraction * totalDistance},
			Channels:  telemetry.Channels{Speed: 200, Throttle: 100, Gear: 7},
		}
	}

	return telemetry.Lap{
		Info:    telemetry.LapInfo{DriverNumber: driver, LapNumber: 1},
		Samples: samples,
	}
}

func randomLap(seed int64, n int) telemetry.Lap {
	r := rand.New(rand.NewSource(seed))

	samples := make([]telemetry.Sample, n)

	var x, y float64
	var ts time.Duration

	for i := range samples {
		if i > 0 {
			// roughly one in ten samples is stationary
			if r.Intn(10) > 0 {
				x += r.Float64() * 20
				y += r.Float64()*10 - 5
			}

			ts += time.Duration(r.Intn(250)+1) * time.Millisecond
		}

		samples[i] = telemetry.Sample{
			Timestamp: ts,
			Position:  geometry.Vector3{X: x, Y: y, Z: r.Float64()},
		}
	}

	return telemetry.Lap{Samples: samples}
}

func TestAddDistance(t *testing.T) {
	t.Run("Zero origin and non-decreasing", func(t *testing.T) {
		for seed := int64(1); seed <= 5; seed++ {
			lap := randomLap(seed, 300)

			samples, err := AddDistance(lap.Samples)

			if err != nil {
				t.Fatal(err)
			}

			if samples[0].Distance != 0 {
				t.Logf("Expected distance 0 at index 0, got %f", samples[0].Distance)
				t.Fail()
			}

			for i := 1; i < len(samples); i++ {
				if samples[i].Distance < samples[i-1].Distance {
					t.Logf("Distance decreased at %d: %f < %f", i, samples[i].Distance, samples[i-1].Distance)
					t.Fail()
				}
			}
		}
	})

	t.Run("Includes elevation", func(t *testing.T) {
		samples, err := AddDistance([]telemetry.Sample{
			{Position: geometry.Vector3{X: 0, Y: 0, Z: 0}, Distance: 999},
			{Position: geometry.Vector3{X: 3, Y: 4, Z: 0}},
			{Position: geometry.Vector3{X: 3, Y: 4, Z: 12}},
			{Position: geometry.Vector3{X: 3, Y: 4, Z: 12}},
		})

		if err != nil {
			t.Fatal(err)
		}

		expected := []float64{0, 5, 17, 17}

		for i, sample := range samples {
			if !compareFloatsTolerance(sample.Distance, expected[i]) {
				t.Logf("Sample %d: expected distance %f, got %f", i, expected[i], sample.Distance)
				t.Fail()
			}
		}
	})

	t.Run("Does not modify input", func(t *testing.T) {
		input := []telemetry.Sample{
			{Position: geometry.Vector3{X: 0}},
			{Position: geometry.Vector3{X: 10}},
		}

		if _, err := AddDistance(input); err != nil {
			t.Fatal(err)
		}

		if input[1].Distance != 0 {
			t.Fail()
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if _, err := AddDistance(nil); !IsInvalidInput(err) {
			t.Logf("Expected invalid input error, got %v", err)
			t.Fail()
		}
	})

	t.Run("Non-finite position", func(t *testing.T) {
		_, err := AddDistance([]telemetry.Sample{
			{Position: geometry.Vector3{X: 0}},
			{Position: geometry.Vector3{X: math.NaN()}},
		})

		if !IsInvalidInput(err) {
			t.Logf("Expected invalid input error, got %v", err)
			t.Fail()
		}
	})
}

func TestNormalize(t *testing.T) {
	input := []telemetry.Sample{
		{
			Timestamp: time.Second,
			Position:  geometry.Vector3{X: 100, Y: 0, Z: 7},
			Distance:  12,
			Channels:  telemetry.Channels{Speed: 301, Gear: 8, DRS: 12, Status: telemetry.TrackStatusOnTrack},
		},
	}

	t.Run("Zero angle is identity", func(t *testing.T) {
		out, err := Normalize(input, 0)

		if err != nil {
			t.Fatal(err)
		}

		if out[0] != input[0] {
			t.Logf("Expected %+v, got %+v", input[0], out[0])
			t.Fail()
		}
	})

	t.Run("Rotates plane only", func(t *testing.T) {
		out, err := Normalize(input, math.Pi/2)

		if err != nil {
			t.Fatal(err)
		}

		got := out[0]

		if !compareFloatsTolerance(got.Position.X, 0) || !compareFloatsTolerance(got.Position.Y, 100) {
			t.Logf("Expected position (0, 100), got %+v", got.Position)
			t.Fail()
		}

		if got.Position.Z != 7 || got.Distance != 12 || got.Timestamp != time.Second || got.Channels != input[0].Channels {
			t.Logf("Expected non-planar fields untouched, got %+v", got)
			t.Fail()
		}

		if input[0].Position.X != 100 {
			t.Log("Input was modified")
			t.Fail()
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		if _, err := Normalize(nil, 0); !IsInvalidInput(err) {
			t.Fail()
		}

		if _, err := Normalize(input, math.Inf(-1)); !IsInvalidInput(err) {
			t.Fail()
		}
	})
}

func checkContiguous(t *testing.T, segmentation Segmentation, numSamples int) {
	t.Helper()

	expectedStart := 0

	for i, r := range segmentation.Ranges {
		if r.Start != expectedStart {
			t.Errorf("segment %d starts at %d, expected %d (gap or overlap)", i, r.Start, expectedStart)
		}

		if r.End < r.Start || r.End > numSamples {
			t.Errorf("segment %d has invalid range %+v", i, r)
		}

		expectedStart = r.End
	}
}

func TestSegment(t *testing.T) {
	t.Run("Invalid input", func(t *testing.T) {
		lap := linearLap("1", 10, 100, 10*time.Second)

		for _, n := range []int{0, -1, -10} {
			if _, err := Segment(lap.Samples, n); !IsInvalidInput(err) {
				t.Errorf("expected invalid input for %d segments, got %v", n, err)
			}
		}

		if _, err := Segment(nil, 4); !IsInvalidInput(err) {
			t.Errorf("expected invalid input for empty lap, got %v", err)
		}
	})

	t.Run("Reconstructs the lap without gaps or overlaps", func(t *testing.T) {
		for seed := int64(1); seed <= 4; seed++ {
			samples, err := AddDistance(randomLap(seed, 257).Samples)

			if err != nil {
				t.Fatal(err)
			}

			for n := 1; n <= 40; n++ {
				segmentation, err := Segment(samples, n)

				if err != nil {
					t.Fatal(err)
				}

				if len(segmentation.Ranges) != n || segmentation.UnderSegmented() {
					t.Errorf("seed %d: expected %d segments, got %d", seed, n, len(segmentation.Ranges))
				}

				checkContiguous(t, segmentation, len(samples))

				if last := segmentation.Ranges[len(segmentation.Ranges)-1]; last.End != len(samples) {
					t.Errorf("seed %d, n %d: final segment ends at %d, expected %d", seed, n, last.End, len(samples))
				}

				for k, r := range segmentation.Ranges {
					if k == 0 {
						continue
					}

					threshold := float64(k) * segmentation.SegmentLength

					if samples[r.Start].Distance < threshold {
						t.Errorf("seed %d, n %d: segment %d starts short of its boundary", seed, n, k)
					}

					if r.Start > 0 && samples[r.Start-1].Distance >= threshold {
						t.Errorf("seed %d, n %d: segment %d starts after its boundary", seed, n, k)
					}
				}

				var reassembled int

				for _, slice := range segmentation.Slices(samples) {
					reassembled += len(slice)
				}

				if reassembled != len(samples) {
					t.Errorf("seed %d, n %d: slices cover %d of %d samples", seed, n, reassembled, len(samples))
				}
			}
		}
	})

	t.Run("Sample on a boundary starts the next segment", func(t *testing.T) {
		lap := linearLap("1", 5, 40, 4*time.Second)

		samples, err := AddDistance(lap.Samples)

		if err != nil {
			t.Fatal(err)
		}

		segmentation, err := Segment(samples, 4)

		if err != nil {
			t.Fatal(err)
		}

		expected := []Range{{0, 1}, {1, 2}, {2, 3}, {3, 5}}

		if len(segmentation.Ranges) != len(expected) {
			t.Fatalf("expected %v, got %v", expected, segmentation.Ranges)
		}

		for i := range expected {
			if segmentation.Ranges[i] != expected[i] {
				t.Errorf("expected %v, got %v", expected, segmentation.Ranges)
				break
			}
		}
	})

	t.Run("Single segment spans the lap", func(t *testing.T) {
		samples, err := AddDistance(randomLap(7, 50).Samples)

		if err != nil {
			t.Fatal(err)
		}

		segmentation, err := Segment(samples, 1)

		if err != nil {
			t.Fatal(err)
		}

		if len(segmentation.Ranges) != 1 || segmentation.Ranges[0] != (Range{Start: 0, End: 50}) {
			t.Fatalf("expected a single [0, 50) range, got %v", segmentation.Ranges)
		}

		if elapsed := segmentation.Ranges[0].Elapsed(samples); elapsed != samples[49].Timestamp-samples[0].Timestamp {
			t.Errorf("expected elapsed %s, got %s", samples[49].Timestamp-samples[0].Timestamp, elapsed)
		}
	})

	t.Run("More segments than samples", func(t *testing.T) {
		samples, err := AddDistance(linearLap("1", 3, 100, 10*time.Second).Samples)

		if err != nil {
			t.Fatal(err)
		}

		segmentation, err := Segment(samples, 50)

		if err != nil {
			t.Fatal(err)
		}

		if len(segmentation.Ranges) != 50 || segmentation.UnderSegmented() {
			t.Fatalf("expected 50 segments, got %d", len(segmentation.Ranges))
		}

		checkContiguous(t, segmentation, len(samples))

		nonEmpty := 0

		for _, r := range segmentation.Ranges {
			if r.End > r.Start {
				nonEmpty++
			}
		}

		if nonEmpty != 3 {
			t.Errorf("expected each sample to land in its own segment, got %d non-empty segments", nonEmpty)
		}
	})

	t.Run("Single sample lap", func(t *testing.T) {
		samples, err := AddDistance([]telemetry.Sample{{Position: geometry.Vector3{X: 4, Y: 2}}})

		if err != nil {
			t.Fatal(err)
		}

		for _, n := range []int{1, 3, 10} {
			segmentation, err := Segment(samples, n)

			if err != nil {
				t.Fatal(err)
			}

			if len(segmentation.Ranges) != n {
				t.Errorf("expected %d degenerate segments, got %d", n, len(segmentation.Ranges))
			}

			checkContiguous(t, segmentation, 1)

			for _, r := range segmentation.Ranges {
				if r.Len() > 1 || r.Elapsed(samples) != 0 {
					t.Errorf("expected degenerate range, got %+v", r)
				}
			}

			if last := segmentation.Ranges[len(segmentation.Ranges)-1]; last != (Range{Start: 0, End: 1}) {
				t.Errorf("expected final range [0, 1), got %+v", last)
			}
		}
	})

	t.Run("Stationary lap", func(t *testing.T) {
		samples := make([]telemetry.Sample, 20)

		for i := range samples {
			samples[i].Timestamp = time.Duration(i) * time.Second
		}

		samples, err := AddDistance(samples)

		if err != nil {
			t.Fatal(err)
		}

		segmentation, err := Segment(samples, 5)

		if err != nil {
			t.Fatal(err)
		}

		if segmentation.TotalDistance != 0 || segmentation.SegmentLength != 0 {
			t.Errorf("expected zero distance, got %+v", segmentation)
		}

		checkContiguous(t, segmentation, len(samples))
	})
}

func TestCompare(t *testing.T) {
	t.Run("Identical laps tie and lap B wins every segment", func(t *testing.T) {
		lapA := linearLap("44", 100, 1000, 100*time.Second)
		lapB := linearLap("1", 100, 1000, 100*time.Second)

		result, err := Compare(lapA, lapB, 0, 10)

		if err != nil {
			t.Fatal(err)
		}

		if len(result.Segments) != 10 || result.UnderSegmented() {
			t.Fatalf("expected 10 segments, got %d", len(result.Segments))
		}

		for i, segment := range result.Segments {
			if segment.Ordinal != i {
				t.Errorf("expected ordinal %d, got %d", i, segment.Ordinal)
			}

			if segment.LapA.Len() != 10 || segment.LapB.Len() != 10 {
				t.Errorf("segment %d: expected 10 samples on each lap, got %d and %d", i, segment.LapA.Len(), segment.LapB.Len())
			}

			if segment.ElapsedA != segment.ElapsedB || segment.Delta() != 0 {
				t.Errorf("segment %d: expected equal elapsed times, got %s and %s", i, segment.ElapsedA, segment.ElapsedB)
			}

			if segment.Winner != SideB || segment.WinnerDriver != "1" {
				t.Errorf("segment %d: expected lap B to win a tie, got %s (%s)", i, segment.Winner, segment.WinnerDriver)
			}
		}

		if result.Wins(SideB) != 10 || result.Wins(SideA) != 0 {
			t.Errorf("expected B to win all 10, got A=%d B=%d", result.Wins(SideA), result.Wins(SideB))
		}
	})

	t.Run("Different sample density aligns on the same distances", func(t *testing.T) {
		lapA := linearLap("16", 50, 1000, 100*time.Second)
		lapB := linearLap("55", 200, 1000, 100*time.Second)

		result, err := Compare(lapA, lapB, 0, 12)

		if err != nil {
			t.Fatal(err)
		}

		if len(result.Segments) != 12 {
			t.Fatalf("expected 12 segments, got %d", len(result.Segments))
		}

		for _, prepared := range []*PreparedLap{result.LapA, result.LapB} {
			segmentation := prepared.Segmentation
			samples := prepared.Lap.Samples

			if !compareFloatsTolerance(segmentation.SegmentLength, 1000.0/12) {
				t.Errorf("expected segment length 83.33, got %f", segmentation.SegmentLength)
			}

			for k := 1; k < len(segmentation.Ranges); k++ {
				threshold := float64(k) * segmentation.SegmentLength
				start := segmentation.Ranges[k].Start

				if samples[start].Distance < threshold || samples[start-1].Distance >= threshold {
					t.Errorf("segment %d of %d samples does not start on the %f boundary", k, len(samples), threshold)
				}
			}
		}

		sameWidths := true

		for _, segment := range result.Segments {
			if segment.LapA.Len() != segment.LapB.Len() {
				sameWidths = false
			}
		}

		if sameWidths {
			t.Error("expected index ranges to differ between laps of different sample density")
		}
	})

	t.Run("Faster lap wins", func(t *testing.T) {
		lapA := linearLap("44", 120, 5000, 88*time.Second)
		lapB := linearLap("1", 120, 5000, 90*time.Second)

		result, err := Compare(lapA, lapB, 0.7, 8)

		if err != nil {
			t.Fatal(err)
		}

		for _, segment := range result.Segments {
			if segment.Winner != SideA || segment.WinnerDriver != "44" || segment.Delta() >= 0 {
				t.Errorf("expected lap A to win segment %d, got %+v", segment.Ordinal, segment)
			}
		}
	})

	t.Run("Single segment", func(t *testing.T) {
		lapA := linearLap("44", 30, 800, 60*time.Second)
		lapB := linearLap("1", 45, 800, 59*time.Second)

		result, err := Compare(lapA, lapB, 0, 1)

		if err != nil {
			t.Fatal(err)
		}

		if len(result.Segments) != 1 {
			t.Fatalf("expected 1 segment, got %d", len(result.Segments))
		}

		segment := result.Segments[0]

		if segment.ElapsedA != lapA.Elapsed() || segment.ElapsedB != lapB.Elapsed() {
			t.Errorf("expected whole lap elapsed times, got %s and %s", segment.ElapsedA, segment.ElapsedB)
		}

		if segment.Winner != SideB {
			t.Errorf("expected lap B to win, got %s", segment.Winner)
		}
	})

	t.Run("Returns normalised laps", func(t *testing.T) {
		lapA := linearLap("44", 11, 100, 10*time.Second)
		lapB := linearLap("1", 11, 100, 10*time.Second)

		result, err := Compare(lapA, lapB, math.Pi/2, 2)

		if err != nil {
			t.Fatal(err)
		}

		got := result.LapA.Lap.Samples[5]

		if !compareFloatsTolerance(got.Position.X, 0) || !compareFloatsTolerance(got.Position.Y, 50) || !compareFloatsTolerance(got.Distance, 50) {
			t.Errorf("expected rotated sample at (0, 50) with distance 50, got %+v", got)
		}

		if result.LapA.Lap.Info != lapA.Info {
			t.Error("expected lap metadata to be carried through")
		}

		if lapA.Samples[5].Position.Y != 0 {
			t.Error("input lap was modified")
		}
	})

	t.Run("Errors propagate", func(t *testing.T) {
		lap := linearLap("44", 10, 100, 10*time.Second)

		if _, err := Compare(lap, telemetry.Lap{}, 0, 4); !IsInvalidInput(err) {
			t.Errorf("expected invalid input for empty lap B, got %v", err)
		}

		if _, err := Compare(telemetry.Lap{}, lap, 0, 4); !IsInvalidInput(err) {
			t.Errorf("expected invalid input for empty lap A, got %v", err)
		}

		if _, err := Compare(lap, lap, 0, 0); !IsInvalidInput(err) {
			t.Errorf("expected invalid input for zero segments, got %v", err)
		}
	})
}

func TestComparePrepared(t *testing.T) {
	samples := linearLap("44", 10, 90, 9*time.Second).Samples

	t.Run("Pairs up to the shorter segmentation", func(t *testing.T) {
		a := &PreparedLap{
			Lap: telemetry.Lap{Info: telemetry.LapInfo{DriverNumber: "44"}, Samples: samples},
			Segmentation: Segmentation{
				Requested: 3,
				Ranges:    []Range{{0, 3}, {3, 6}, {6, 10}},
			},
		}

		b := &PreparedLap{
			Lap: telemetry.Lap{Info: telemetry.LapInfo{DriverNumber: "1"}, Samples: samples},
			Segmentation: Segmentation{
				Requested: 3,
				Ranges:    []Range{{0, 4}, {4, 10}},
			},
		}

		if !b.Segmentation.UnderSegmented() || a.Segmentation.UnderSegmented() {
			t.Fatal("expected only lap B to be under segmented")
		}

		result, err := ComparePrepared(a, b)

		if err != nil {
			t.Fatal(err)
		}

		if len(result.Segments) != 2 || !result.UnderSegmented() || result.Requested != 3 {
			t.Fatalf("expected 2 of 3 segments, got %d of %d", len(result.Segments), result.Requested)
		}

		if result.Segments[0].Winner != SideA {
			t.Errorf("expected lap A to win the first segment (2s vs 3s), got %s", result.Segments[0].Winner)
		}

		if result.Segments[1].Winner != SideA {
			t.Errorf("expected lap A to win the second segment (2s vs 5s), got %s", result.Segments[1].Winner)
		}
	})

	t.Run("Mismatched segment counts", func(t *testing.T) {
		a := &PreparedLap{Segmentation: Segmentation{Requested: 3}}
		b := &PreparedLap{Segmentation: Segmentation{Requested: 4}}

		if _, err := ComparePrepared(a, b); !IsInvalidInput(err) {
			t.Errorf("expected invalid input, got %v", err)
		}

		if _, err := ComparePrepared(a, nil); !IsInvalidInput(err) {
			t.Errorf("expected invalid input, got %v", err)
		}
	})
}

func TestStats(t *testing.T) {
	samples := []telemetry.Sample{
		{Distance: 0, Channels: telemetry.Channels{Speed: 100, Throttle: 100}},
		{Distance: 10, Channels: telemetry.Channels{Speed: 200, Throttle: 99}},
		{Distance: 25, Channels: telemetry.Channels{Speed: 150, Throttle: 0, Brake: true}},
		{Distance: 40, Channels: telemetry.Channels{Speed: 90, Throttle: 0, Brake: true}},
	}

	stats := Stats(samples, Range{Start: 0, End: 3})

	if !compareFloatsTolerance(stats.MeanSpeed, 150) || stats.MinSpeed != 100 || stats.MaxSpeed != 200 {
		t.Errorf("unexpected speed stats: %+v", stats)
	}

	if !compareFloatsTolerance(stats.FullThrottle, 2.0/3) || !compareFloatsTolerance(stats.Braking, 1.0/3) {
		t.Errorf("unexpected pedal stats: %+v", stats)
	}

	if stats.Distance != 25 {
		t.Errorf("expected distance 25, got %f", stats.Distance)
	}

	if (Stats(samples, Range{Start: 2, End: 2})) != (SegmentStats{}) {
		t.Error("expected zero stats for an empty range")
	}
}
