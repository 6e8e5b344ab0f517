// Package trackmap places circuit annotations on normalised telemetry and renders comparison maps.
package trackmap

import (
	"strconv"

	"justapengu.in/lapcompare/pkg/geometry"
)

// labelOffset is the distance, in track units, between a corner and its label.
const labelOffset = 500

// Corner is a numbered corner of a circuit in raw (unrotated) track coordinates.
type Corner struct {
	Number int
	Letter string

	Position geometry.Point

	// Angle is the direction, in degrees, in which the corner's label is placed.
	Angle float64
}

func (c Corner) Label() string {
	return strconv.Itoa(c.Number) + c.Letter
}

type CornerMarker struct {
	Label         string     `json:"corner_number"`
	TextPosition  [2]float64 `json:"text_position"`
	TrackPosition [2]float64 `json:"track_position"`
}

// CornerMarkers rotates corners into the same frame as telemetry normalised with trackAngle
// (radians). Each label sits labelOffset away from its corner in the direction of the corner's
// angle.
func CornerMarkers(corners []Corner, trackAngle float64) []CornerMarker {
	markers := make([]CornerMarker, 0, len(corners))

	for _, corner := range corners {
		offset := geometry.Rotate(geometry.Point{X: labelOffset}, geometry.Radians(corner.Angle))

		text := geometry.Rotate(geometry.Point{
			X: corner.Position.X + offset.X,
			Y: corner.Position.Y + offset.Y,
		}, trackAngle)

		track := geometry.Rotate(corner.Position, trackAngle)

		markers = append(markers, CornerMarker{
			Label:         corner.Label(),
			TextPosition:  [2]float64{text.X, text.Y},
			TrackPosition: [2]float64{track.X, track.Y},
		})
	}

	return markers
}
