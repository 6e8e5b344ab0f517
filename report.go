package lapcompare

import (
	"time"

	"justapengu.in/lapcompare/internal/archive"
	"justapengu.in/lapcompare/pkg/comparison"
	"justapengu.in/lapcompare/pkg/telemetry"
	"justapengu.in/lapcompare/pkg/trackmap"
)

// seconds reports durations in seconds, with untimed (zero) durations as null.
func seconds(d time.Duration) *float64 {
	if d == 0 {
		return nil
	}

	s := d.Seconds()

	return &s
}

type LapSummary struct {
	LapNumber int      `json:"lapNumber"`
	LapTime   *float64 `json:"lapTime"`
	Compound  string   `json:"compound"`
	TyreLife  int      `json:"tyreLife"`
	Deleted   bool     `json:"deleted"`
}

func NewLapSummary(info telemetry.LapInfo) LapSummary {
	return LapSummary{
		LapNumber: info.LapNumber,
		LapTime:   seconds(info.LapTime),
		Compound:  string(info.Compound),
		TyreLife:  info.TyreLife,
		Deleted:   info.Deleted,
	}
}

type TelemetryPoint struct {
	Timestamp float64 `json:"timestamp"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Status    string  `json:"status"`
	Throttle  float64 `json:"throttle"`
	Brake     bool    `json:"brake"`
	Speed     float64 `json:"speed"`
	Gear      int     `json:"gear"`
	RPM       float64 `json:"rpm"`
	DRS       int     `json:"drs"`
	Distance  float64 `json:"distance"`
}

func NewTelemetryPoint(sample telemetry.Sample) TelemetryPoint {
	return TelemetryPoint{
		Timestamp: sample.Timestamp.Seconds(),
		X:         sample.Position.X,
		Y:         sample.Position.Y,
		Z:         sample.Position.Z,
		Status:    string(sample.Status),
		Throttle:  sample.Throttle,
		Brake:     sample.Brake,
		Speed:     sample.Speed,
		Gear:      sample.Gear,
		RPM:       sample.RPM,
		DRS:       sample.DRS,
		Distance:  sample.Distance,
	}
}

// LapData is a lap's metadata together with its normalised telemetry.
type LapData struct {
	LapNumber     int                   `json:"lapNumber"`
	Driver        *telemetry.DriverInfo `json:"driver"`
	LapTime       *float64              `json:"lapTime"`
	Compound      string                `json:"compound"`
	Deleted       bool                  `json:"deleted"`
	DeletedReason string                `json:"deletedReason"`
	TyreLife      int                   `json:"tyreLife"`
	Stint         int                   `json:"stint"`
	Sector1Time   *float64              `json:"sector1Time"`
	Sector2Time   *float64              `json:"sector2Time"`
	Sector3Time   *float64              `json:"sector3Time"`
	TelemetryData []TelemetryPoint      `json:"telemetryData"`
}

func NewLapData(lap telemetry.Lap, lookup comparison.DriverLookup) LapData {
	data := LapData{
		LapNumber:     lap.Info.LapNumber,
		LapTime:       seconds(lap.Info.LapTime),
		Compound:      string(lap.Info.Compound),
		Deleted:       lap.Info.Deleted,
		DeletedReason: lap.Info.DeletedReason,
		TyreLife:      lap.Info.TyreLife,
		Stint:         lap.Info.Stint,
		Sector1Time:   seconds(lap.Info.Sector1Time),
		Sector2Time:   seconds(lap.Info.Sector2Time),
		Sector3Time:   seconds(lap.Info.Sector3Time),
		TelemetryData: make([]TelemetryPoint, 0, len(lap.Samples)),
	}

	if lookup != nil {
		if driver, ok := lookup(lap.Info.DriverNumber); ok {
			data.Driver = &driver
		}
	}

	for _, sample := range lap.Samples {
		data.TelemetryData = append(data.TelemetryData, NewTelemetryPoint(sample))
	}

	return data
}

type TrackPoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Distance float64 `json:"distance"`
}

type TrackMap struct {
	Track   []TrackPoint            `json:"track"`
	Corners []trackmap.CornerMarker `json:"corners"`
}

type SegmentReport struct {
	Ordinal      int             `json:"segment"`
	Winner       comparison.Side `json:"winner"`
	WinnerDriver string          `json:"winnerDriver"`

	LapA comparison.Range `json:"lapA"`
	LapB comparison.Range `json:"lapB"`

	ElapsedA float64 `json:"elapsedA"`
	ElapsedB float64 `json:"elapsedB"`
	Delta    float64 `json:"delta"`

	StatsA comparison.SegmentStats `json:"statsA"`
	StatsB comparison.SegmentStats `json:"statsB"`
}

type ComparisonReport struct {
	ID      string `json:"id"`
	Session string `json:"session"`

	RequestedSegments int  `json:"requestedSegments"`
	UnderSegmented    bool `json:"underSegmented"`

	LapA LapData `json:"lapA"`
	LapB LapData `json:"lapB"`

	Segments []SegmentReport `json:"segments"`
	WinsA    int             `json:"winsA"`
	WinsB    int             `json:"winsB"`
}

func NewComparisonReport(id string, ref archive.SessionRef, result *comparison.Result, lookup comparison.DriverLookup) *ComparisonReport {
	samplesA, samplesB := result.LapA.Lap.Samples, result.LapB.Lap.Samples

	report := &ComparisonReport{
		ID:                id,
		Session:           ref.String(),
		RequestedSegments: result.Requested,
		UnderSegmented:    result.UnderSegmented(),
		LapA:              NewLapData(result.LapA.Lap, lookup),
		LapB:              NewLapData(result.LapB.Lap, lookup),
		Segments:          make([]SegmentReport, 0, len(result.Segments)),
		WinsA:             result.Wins(comparison.SideA),
		WinsB:             result.Wins(comparison.SideB),
	}

	for _, segment := range result.Segments {
		report.Segments = append(report.Segments, SegmentReport{
			Ordinal:      segment.Ordinal,
			Winner:       segment.Winner,
			WinnerDriver: segment.WinnerDriver,
			LapA:         segment.LapA,
			LapB:         segment.LapB,
			ElapsedA:     segment.ElapsedA.Seconds(),
			ElapsedB:     segment.ElapsedB.Seconds(),
			Delta:        segment.Delta().Seconds(),
			StatsA:       comparison.Stats(samplesA, segment.LapA),
			StatsB:       comparison.Stats(samplesB, segment.LapB),
		})
	}

	return report
}
