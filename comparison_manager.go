package lapcompare

import (
	"context"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"justapengu.in/lapcompare/internal/archive"
	"justapengu.in/lapcompare/internal/metrics"
	"justapengu.in/lapcompare/pkg/comparison"
	"justapengu.in/lapcompare/pkg/telemetry"
	"justapengu.in/lapcompare/pkg/trackmap"
)

// SessionArchive is the source of recorded sessions, implemented by *archive.Archive.
type SessionArchive interface {
	Venues(year int, now time.Time) ([]archive.Event, error)
	Sessions(year int, venue string, now time.Time) ([]string, error)
	Laps(ctx context.Context, ref archive.SessionRef, driver string) ([]telemetry.LapInfo, error)
	Lap(ctx context.Context, ref archive.SessionRef, driver string, lapNumber int) (telemetry.Lap, error)
	FastestLap(ctx context.Context, ref archive.SessionRef) (telemetry.Lap, error)
	Circuit(year int, venue string) (*archive.Circuit, error)
}

// DriverRoster is implemented by *roster.Store.
type DriverRoster interface {
	Drivers(ctx context.Context, ref archive.SessionRef) ([]telemetry.DriverInfo, error)
	Lookup(ctx context.Context, ref archive.SessionRef) (comparison.DriverLookup, error)
}

type ComparisonRequest struct {
	Session archive.SessionRef

	DriverA string
	LapA    int

	DriverB string
	LapB    int

	// Segments defaults to the manager's segment count when zero.
	Segments int
}

type ComparisonManager struct {
	archive SessionArchive
	roster  DriverRoster
	metrics *metrics.Metrics
	logger  Logger

	segments, maxSegments int

	now func() time.Time
}

func NewComparisonManager(sessionArchive SessionArchive, roster DriverRoster, m *metrics.Metrics, logger Logger, segments, maxSegments int) *ComparisonManager {
	if segments <= 0 {
		segments = DefaultSegments
	}

	if maxSegments < segments {
		maxSegments = segments
	}

	return &ComparisonManager{
		archive:     sessionArchive,
		roster:      roster,
		metrics:     m,
		logger:      logger,
		segments:    segments,
		maxSegments: maxSegments,
		now:         time.Now,
	}
}

func (cm *ComparisonManager) Venues(year int) ([]archive.Event, error) {
	return cm.archive.Venues(year, cm.now().UTC())
}

func (cm *ComparisonManager) Sessions(year int, venue string) ([]string, error) {
	return cm.archive.Sessions(year, venue, cm.now().UTC())
}

func (cm *ComparisonManager) Drivers(ctx context.Context, ref archive.SessionRef) ([]telemetry.DriverInfo, error) {
	return cm.roster.Drivers(ctx, ref)
}

func (cm *ComparisonManager) Laps(ctx context.Context, ref archive.SessionRef, driver string) ([]LapSummary, error) {
	laps, err := cm.archive.Laps(ctx, ref, driver)

	if err != nil {
		return nil, err
	}

	summaries := make([]LapSummary, 0, len(laps))

	for _, lap := range laps {
		summaries = append(summaries, NewLapSummary(lap))
	}

	return summaries, nil
}

// lookup fetches the session roster. A missing roster only costs the report its driver details,
// so failures are logged rather than returned.
func (cm *ComparisonManager) lookup(ctx context.Context, ref archive.SessionRef) comparison.DriverLookup {
	lookup, err := cm.roster.Lookup(ctx, ref)

	if err != nil {
		cm.logger.WithError(err).Warnf("Could not load driver roster for %s", ref)
		return nil
	}

	return lookup
}

func (cm *ComparisonManager) angle(ref archive.SessionRef) (float64, []trackmap.Corner, error) {
	circuit, err := cm.archive.Circuit(ref.Year, ref.Venue)

	if err != nil {
		return 0, nil, err
	}

	return circuit.Angle(), circuit.Corners, nil
}

func normalizeLap(lap telemetry.Lap, angle float64) (telemetry.Lap, error) {
	samples, err := comparison.AddDistance(lap.Samples)

	if err != nil {
		return telemetry.Lap{}, err
	}

	samples, err = comparison.Normalize(samples, angle)

	if err != nil {
		return telemetry.Lap{}, err
	}

	return lap.WithSamples(samples), nil
}

// TrackMap traces the fastest lap of a session in the circuit's orientation, with its corners.
func (cm *ComparisonManager) TrackMap(ctx context.Context, ref archive.SessionRef) (*TrackMap, error) {
	angle, corners, err := cm.angle(ref)

	if err != nil {
		return nil, err
	}

	lap, err := cm.archive.FastestLap(ctx, ref)

	if err != nil {
		return nil, err
	}

	lap, err = normalizeLap(lap, angle)

	if err != nil {
		return nil, err
	}

	trackMap := &TrackMap{
		Track:   make([]TrackPoint, 0, len(lap.Samples)),
		Corners: trackmap.CornerMarkers(corners, angle),
	}

	for _, sample := range lap.Samples {
		trackMap.Track = append(trackMap.Track, TrackPoint{
			X:        sample.Position.X,
			Y:        sample.Position.Y,
			Z:        sample.Position.Z,
			Distance: sample.Distance,
		})
	}

	return trackMap, nil
}

// LapData loads a single lap with its telemetry in the circuit's orientation.
func (cm *ComparisonManager) LapData(ctx context.Context, ref archive.SessionRef, driver string, lapNumber int) (*LapData, error) {
	angle, _, err := cm.angle(ref)

	if err != nil {
		return nil, err
	}

	lap, err := cm.archive.Lap(ctx, ref, driver, lapNumber)

	if err != nil {
		return nil, err
	}

	lap, err = normalizeLap(lap, angle)

	if err != nil {
		return nil, err
	}

	data := NewLapData(lap, cm.lookup(ctx, ref))

	return &data, nil
}

// Compare loads both laps of a request and compares them segment by segment.
func (cm *ComparisonManager) Compare(ctx context.Context, req ComparisonRequest) (*ComparisonReport, error) {
	result, lookup, err := cm.compare(ctx, req)

	if err != nil {
		return nil, err
	}

	return NewComparisonReport(uuid.New().String(), req.Session, result, lookup), nil
}

// RenderComparison draws the comparison of a request to w as a PNG, using the drivers' team
// colours where the roster knows them.
func (cm *ComparisonManager) RenderComparison(ctx context.Context, req ComparisonRequest, w io.Writer) (*trackmap.MapData, error) {
	result, lookup, err := cm.compare(ctx, req)

	if err != nil {
		return nil, err
	}

	var colorA, colorB string

	if lookup != nil {
		if driver, ok := lookup(req.DriverA); ok {
			colorA = driver.TeamColor
		}

		if driver, ok := lookup(req.DriverB); ok {
			colorB = driver.TeamColor
		}
	}

	return trackmap.NewRenderer(colorA, colorB).Render(w, result)
}

func (cm *ComparisonManager) compare(ctx context.Context, req ComparisonRequest) (*comparison.Result, comparison.DriverLookup, error) {
	started := time.Now()

	if req.Segments == 0 {
		req.Segments = cm.segments
	}

	var result *comparison.Result
	var lookup comparison.DriverLookup
	var err error

	if req.Segments > cm.maxSegments {
		// segmentation does work for every requested segment, however few samples a lap has
		err = badRequestError{param: "segments", err: errors.Errorf("at most %d segments may be compared", cm.maxSegments)}
	} else {
		result, lookup, err = cm.prepareAndCompare(ctx, req)
	}

	took := time.Since(started)
	logger := cm.logger.WithField("session", req.Session.String())

	if err != nil {
		cm.metrics.ObserveComparison(outcome(err), took, 0, false)
		logger.WithError(err).Errorf("Could not compare lap %d of %s with lap %d of %s", req.LapA, req.DriverA, req.LapB, req.DriverB)

		return nil, nil, err
	}

	samples := len(result.LapA.Lap.Samples) + len(result.LapB.Lap.Samples)
	cm.metrics.ObserveComparison(metrics.OutcomeOK, took, samples, result.UnderSegmented())

	if result.UnderSegmented() {
		logger.Warnf("Only %d of %d segments could be compared", len(result.Segments), result.Requested)
	}

	logger.Infof(
		"Compared lap %d of %s (%s) with lap %d of %s (%s): %d-%d over %d segments, %s samples in %s",
		req.LapA, req.DriverA, durafmt.Parse(result.LapA.Lap.Elapsed()).String(),
		req.LapB, req.DriverB, durafmt.Parse(result.LapB.Lap.Elapsed()).String(),
		result.Wins(comparison.SideA), result.Wins(comparison.SideB), len(result.Segments),
		humanize.Comma(int64(samples)), took,
	)

	return result, lookup, nil
}

func (cm *ComparisonManager) prepareAndCompare(ctx context.Context, req ComparisonRequest) (*comparison.Result, comparison.DriverLookup, error) {
	angle, _, err := cm.angle(req.Session)

	if err != nil {
		return nil, nil, err
	}

	var lapA, lapB *comparison.PreparedLap
	var lookup comparison.DriverLookup

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lap, err := cm.archive.Lap(ctx, req.Session, req.DriverA, req.LapA)

		if err != nil {
			return err
		}

		lapA, err = comparison.Prepare(lap, angle, req.Segments)

		return err
	})

	g.Go(func() error {
		lap, err := cm.archive.Lap(ctx, req.Session, req.DriverB, req.LapB)

		if err != nil {
			return err
		}

		lapB, err = comparison.Prepare(lap, angle, req.Segments)

		return err
	})

	g.Go(func() error {
		lookup = cm.lookup(ctx, req.Session)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	result, err := comparison.ComparePrepared(lapA, lapB)

	if err != nil {
		return nil, nil, err
	}

	return result, lookup, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case comparison.IsInvalidInput(err), errors.As(err, &badRequestError{}):
		return metrics.OutcomeInvalidInput
	case errors.Cause(err) == archive.ErrNotFound:
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
