package archive

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cj123/ini"
	"github.com/pkg/errors"

	"justapengu.in/lapcompare/pkg/geometry"
	"justapengu.in/lapcompare/pkg/trackmap"
)

const (
	circuitSection      = "CIRCUIT"
	cornerSectionPrefix = "CORNER_"
)

// Circuit is the published layout information of a venue.
type Circuit struct {
	// Rotation is the angle, in degrees, which turns raw telemetry coordinates into the
	// circuit's canonical orientation.
	Rotation float64

	Corners []trackmap.Corner
}

// Angle is the rotation in radians.
func (c Circuit) Angle() float64 {
	return geometry.Radians(c.Rotation)
}

// Circuit reads circuit.ini for a venue. Venues without one have no rotation and no corners.
func (a *Archive) Circuit(year int, venue string) (*Circuit, error) {
	venuePath, err := a.venuePath(year, venue)

	if err != nil {
		return nil, err
	}

	circuitPath := filepath.Join(venuePath, circuitFileName)

	if _, err := os.Stat(circuitPath); os.IsNotExist(err) {
		if _, err := os.Stat(venuePath); os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "venue %d/%s", year, venue)
		}

		a.logger.Warnf("No %s for %d/%s, telemetry will not be rotated", circuitFileName, year, venue)

		return &Circuit{}, nil
	}

	return LoadCircuit(circuitPath)
}

func LoadCircuit(circuitPath string) (*Circuit, error) {
	circuitFile, err := ini.Load(circuitPath)

	if err != nil {
		return nil, errors.Wrapf(err, "archive: load circuit %s", circuitPath)
	}

	circuit := &Circuit{}

	if section, err := circuitFile.GetSection(circuitSection); err == nil {
		circuit.Rotation, err = section.Key("ROTATION").Float64()

		if err != nil {
			return nil, errors.Wrap(err, "archive: circuit rotation")
		}
	}

	for _, section := range circuitFile.Sections() {
		if !strings.HasPrefix(section.Name(), cornerSectionPrefix) {
			continue
		}

		number, err := section.Key("NUMBER").Int()

		if err != nil {
			return nil, errors.Wrapf(err, "archive: %s number", section.Name())
		}

		x, err := section.Key("X").Float64()

		if err != nil {
			return nil, errors.Wrapf(err, "archive: %s x", section.Name())
		}

		y, err := section.Key("Y").Float64()

		if err != nil {
			return nil, errors.Wrapf(err, "archive: %s y", section.Name())
		}

		angle, err := section.Key("ANGLE").Float64()

		if err != nil {
			return nil, errors.Wrapf(err, "archive: %s angle", section.Name())
		}

		circuit.Corners = append(circuit.Corners, trackmap.Corner{
			Number:   number,
			Letter:   section.Key("LETTER").String(),
			Position: geometry.Point{X: x, Y: y},
			Angle:    angle,
		})
	}

	return circuit, nil
}
