package archive

import (
	"math"
	"strings"
	"time"

	"justapengu.in/lapcompare/pkg/telemetry"
)

// lapRecord is one entry of laps.json. Times are in seconds; untimed laps and sectors are null.
type lapRecord struct {
	DriverNumber  string   `json:"driverNumber"`
	LapNumber     int      `json:"lapNumber"`
	LapTime       *float64 `json:"lapTime"`
	Compound      string   `json:"compound"`
	TyreLife      int      `json:"tyreLife"`
	Stint         int      `json:"stint"`
	Sector1Time   *float64 `json:"sector1Time"`
	Sector2Time   *float64 `json:"sector2Time"`
	Sector3Time   *float64 `json:"sector3Time"`
	Deleted       bool     `json:"deleted"`
	DeletedReason string   `json:"deletedReason"`
}

func (r lapRecord) LapInfo() telemetry.LapInfo {
	compound := telemetry.TyreCompound(strings.ToUpper(r.Compound))

	if compound == "" {
		compound = telemetry.TyreCompoundUnknown
	}

	return telemetry.LapInfo{
		DriverNumber:  r.DriverNumber,
		LapNumber:     r.LapNumber,
		LapTime:       seconds(r.LapTime),
		Compound:      compound,
		TyreLife:      r.TyreLife,
		Stint:         r.Stint,
		Sector1Time:   seconds(r.Sector1Time),
		Sector2Time:   seconds(r.Sector2Time),
		Sector3Time:   seconds(r.Sector3Time),
		Deleted:       r.Deleted,
		DeletedReason: r.DeletedReason,
	}
}

func seconds(s *float64) time.Duration {
	if s == nil || math.IsNaN(*s) {
		return 0
	}

	return time.Duration(math.Round(*s * float64(time.Second)))
}
