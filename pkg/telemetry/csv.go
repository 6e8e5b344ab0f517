package telemetry

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	columnTime     = "time"
	columnX        = "x"
	columnY        = "y"
	columnZ        = "z"
	columnStatus   = "status"
	columnThrottle = "throttle"
	columnBrake    = "brake"
	columnSpeed    = "speed"
	columnGear     = "gear"
	columnRPM      = "rpm"
	columnDRS      = "drs"
	columnDistance = "distance"
)

var csvHeader = []string{
	columnTime, columnX, columnY, columnZ, columnStatus, columnThrottle, columnBrake,
	columnSpeed, columnGear, columnRPM, columnDRS, columnDistance,
}

var requiredColumns = []string{columnTime, columnX, columnY}

// ReadSamples decodes telemetry samples from CSV. The first row is a header; column names are
// case insensitive and may appear in any order. time (seconds since lap start), x and y are
// required, every other column defaults to its zero value when absent.
func ReadSamples(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()

	if err != nil {
		return nil, errors.Wrap(err, "telemetry: read csv header")
	}

	cols := make(map[string]int)

	for i, h := range headers {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	for _, required := range requiredColumns {
		if _, ok := cols[required]; !ok {
			return nil, errors.Errorf("telemetry: missing required column: %s", required)
		}
	}

	var samples []Sample

	for line := 2; ; line++ {
		row, err := reader.Read()

		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrapf(err, "telemetry: read csv line %d", line)
		}

		sample, err := parseRow(cols, row)

		if err != nil {
			return nil, errors.Wrapf(err, "telemetry: csv line %d", line)
		}

		samples = append(samples, sample)
	}

	return samples, nil
}

func parseRow(cols map[string]int, row []string) (Sample, error) {
	field := func(name string) (string, bool) {
		i, ok := cols[name]

		if !ok || i >= len(row) {
			return "", false
		}

		return strings.TrimSpace(row[i]), true
	}

	float := func(name string) (float64, error) {
		s, ok := field(name)

		if !ok || s == "" {
			return 0, nil
		}

		v, err := strconv.ParseFloat(s, 64)

		if err != nil {
			return 0, errors.Wrapf(err, "column %s", name)
		}

		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, errors.Errorf("column %s: %s is not a finite number", name, s)
		}

		return v, nil
	}

	var sample Sample
	var err error
	var seconds, gear, drs float64

	if seconds, err = float(columnTime); err != nil {
		return sample, err
	}

	sample.Timestamp = time.Duration(math.Round(seconds * float64(time.Second)))

	if sample.Position.X, err = float(columnX); err != nil {
		return sample, err
	}

	if sample.Position.Y, err = float(columnY); err != nil {
		return sample, err
	}

	if sample.Position.Z, err = float(columnZ); err != nil {
		return sample, err
	}

	if sample.Throttle, err = float(columnThrottle); err != nil {
		return sample, err
	}

	if sample.Speed, err = float(columnSpeed); err != nil {
		return sample, err
	}

	if sample.RPM, err = float(columnRPM); err != nil {
		return sample, err
	}

	if sample.Distance, err = float(columnDistance); err != nil {
		return sample, err
	}

	if gear, err = float(columnGear); err != nil {
		return sample, err
	}

	sample.Gear = int(gear)

	if drs, err = float(columnDRS); err != nil {
		return sample, err
	}

	sample.DRS = int(drs)

	if brake, ok := field(columnBrake); ok && brake != "" {
		sample.Brake, err = parseBool(brake)

		if err != nil {
			return sample, errors.Wrapf(err, "column %s", columnBrake)
		}
	}

	if status, ok := field(columnStatus); ok {
		sample.Status = TrackStatus(status)
	}

	return sample, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "t", "yes":
		return true, nil
	case "0", "false", "f", "no":
		return false, nil
	}

	return false, errors.Errorf("invalid boolean %q", s)
}

// WriteSamples encodes samples as CSV in the layout ReadSamples expects.
func WriteSamples(w io.Writer, samples []Sample) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return errors.Wrap(err, "telemetry: write csv header")
	}

	for _, sample := range samples {
		err := writer.Write([]string{
			formatFloat(sample.Timestamp.Seconds()),
			formatFloat(sample.Position.X),
			formatFloat(sample.Position.Y),
			formatFloat(sample.Position.Z),
			string(sample.Status),
			formatFloat(sample.Throttle),
			strconv.FormatBool(sample.Brake),
			formatFloat(sample.Speed),
			strconv.Itoa(sample.Gear),
			formatFloat(sample.RPM),
			strconv.Itoa(sample.DRS),
			formatFloat(sample.Distance),
		})

		if err != nil {
			return errors.Wrap(err, "telemetry: write csv row")
		}
	}

	writer.Flush()

	return errors.Wrap(writer.Error(), "telemetry: flush csv")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
