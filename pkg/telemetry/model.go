// Package telemetry describes decoded per-lap car telemetry as supplied by a session archive.
package telemetry

import (
	"time"

	"justapengu.in/lapcompare/pkg/geometry"
)

type TrackStatus string

const (
	TrackStatusOnTrack  TrackStatus = "OnTrack"
	TrackStatusOffTrack TrackStatus = "OffTrack"
)

type TyreCompound string

const (
	TyreCompoundSoft         TyreCompound = "SOFT"
	TyreCompoundMedium       TyreCompound = "MEDIUM"
	TyreCompoundHard         TyreCompound = "HARD"
	TyreCompoundIntermediate TyreCompound = "INTERMEDIATE"
	TyreCompoundWet          TyreCompound = "WET"
	TyreCompoundUnknown      TyreCompound = "UNKNOWN"
)

// Channels are the per-sample car channels. They are carried through every processing stage
// untouched.
type Channels struct {
	Throttle float64     `json:"throttle"`
	Brake    bool        `json:"brake"`
	Speed    float64     `json:"speed"`
	Gear     int         `json:"gear"`
	RPM      float64     `json:"rpm"`
	DRS      int         `json:"drs"`
	Status   TrackStatus `json:"status"`
}

// Sample is one instant of telemetry within a lap.
type Sample struct {
	// Timestamp is the time since the start of the lap.
	Timestamp time.Duration

	// Position is in the raw (unrotated) track frame until the lap has been normalised.
	Position geometry.Vector3

	// Distance is the cumulative path length from the start of the lap. It is zero until
	// distance has been added.
	Distance float64

	Channels
}

type LapInfo struct {
	DriverNumber string
	LapNumber    int

	// LapTime is zero when the lap was not timed.
	LapTime time.Duration

	Compound TyreCompound
	TyreLife int
	Stint    int

	Sector1Time time.Duration
	Sector2Time time.Duration
	Sector3Time time.Duration

	Deleted       bool
	DeletedReason string
}

// Lap is a single traversal of the track by one driver. Samples are ordered by Timestamp.
type Lap struct {
	Info    LapInfo
	Samples []Sample
}

// Elapsed is the time between the first and last sample.
func (l Lap) Elapsed() time.Duration {
	if len(l.Samples) == 0 {
		return 0
	}

	return l.Samples[len(l.Samples)-1].Timestamp - l.Samples[0].Timestamp
}

// TotalDistance is the distance of the last sample.
func (l Lap) TotalDistance() float64 {
	if len(l.Samples) == 0 {
		return 0
	}

	return l.Samples[len(l.Samples)-1].Distance
}

// WithSamples returns a copy of the lap carrying samples in place of its own.
func (l Lap) WithSamples(samples []Sample) Lap {
	l.Samples = samples

	return l
}

type DriverInfo struct {
	DriverNumber string `json:"driverNumber"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	HeadshotURL  string `json:"headshotUrl"`
	Abbreviation string `json:"abbreviation"`
	CountryCode  string `json:"countryCode"`
	TeamName     string `json:"teamName"`
	TeamColor    string `json:"teamColor"`
}
