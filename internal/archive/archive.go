// Package archive reads recorded sessions from a directory tree:
//
//	<root>/<year>/<venue>/event.yml
//	<root>/<year>/<venue>/circuit.ini
//	<root>/<year>/<venue>/<session>/drivers.json
//	<root>/<year>/<venue>/<session>/laps.json
//	<root>/<year>/<venue>/<session>/telemetry/<driver>/<lap>.csv
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"justapengu.in/lapcompare/pkg/telemetry"
)

var ErrNotFound = errors.New("archive: not found")

const (
	eventFileName   = "event.yml"
	circuitFileName = "circuit.ini"
	driversFileName = "drivers.json"
	lapsFileName    = "laps.json"
	telemetryDir    = "telemetry"
)

// SessionRef identifies one session of one event.
type SessionRef struct {
	Year    int
	Venue   string
	Session string
}

func (s SessionRef) String() string {
	return fmt.Sprintf("%d/%s/%s", s.Year, s.Venue, s.Session)
}

type Archive struct {
	root   string
	logger logrus.FieldLogger
}

func New(root string, logger logrus.FieldLogger) *Archive {
	return &Archive{
		root:   root,
		logger: logger,
	}
}

func (a *Archive) yearPath(year int) string {
	return filepath.Join(a.root, strconv.Itoa(year))
}

// pathElement checks that name is a single directory entry, so that it cannot climb out of
// the directory it is joined to.
func pathElement(kind, name string) (string, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return "", errors.Wrapf(ErrNotFound, "%s %q", kind, name)
	}

	return name, nil
}

func (a *Archive) venuePath(year int, venue string) (string, error) {
	venue, err := pathElement("venue", venue)

	if err != nil {
		return "", err
	}

	return filepath.Join(a.yearPath(year), venue), nil
}

// Venues lists the events of year which had started by now, latest first.
func (a *Archive) Venues(year int, now time.Time) ([]Event, error) {
	venueDirs, err := ioutil.ReadDir(a.yearPath(year))

	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNotFound, "year %d", year)
	} else if err != nil {
		return nil, errors.Wrapf(err, "archive: list venues for %d", year)
	}

	var events []Event

	for _, venueDir := range venueDirs {
		if !venueDir.IsDir() {
			continue
		}

		event, err := a.Event(year, venueDir.Name())

		if err != nil {
			a.logger.WithError(err).Warnf("Could not load event for venue: %s", venueDir.Name())
			continue
		}

		if event.Started(now) {
			events = append(events, *event)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Round > events[j].Round
	})

	return events, nil
}

// Sessions lists the names of the sessions of an event which had started by now, latest first.
func (a *Archive) Sessions(year int, venue string, now time.Time) ([]string, error) {
	event, err := a.Event(year, venue)

	if err != nil {
		return nil, err
	}

	var sessions []string

	for i := len(event.Sessions) - 1; i >= 0; i-- {
		if now.After(event.Sessions[i].Date) {
			sessions = append(sessions, event.Sessions[i].Name)
		}
	}

	return sessions, nil
}

func (a *Archive) sessionPath(ref SessionRef) (string, error) {
	event, err := a.Event(ref.Year, ref.Venue)

	if err != nil {
		return "", err
	}

	session, ok := event.FindSession(ref.Session)

	if !ok {
		return "", errors.Wrapf(ErrNotFound, "session %s", ref)
	}

	venuePath, err := a.venuePath(ref.Year, ref.Venue)

	if err != nil {
		return "", err
	}

	return filepath.Join(venuePath, session.Directory()), nil
}

func (a *Archive) readJSON(ref SessionRef, name string, v interface{}) error {
	sessionPath, err := a.sessionPath(ref)

	if err != nil {
		return err
	}

	f, err := os.Open(filepath.Join(sessionPath, name))

	if os.IsNotExist(err) {
		return errors.Wrapf(ErrNotFound, "%s for %s", name, ref)
	} else if err != nil {
		return errors.Wrapf(err, "archive: open %s for %s", name, ref)
	}

	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return errors.Wrapf(err, "archive: decode %s for %s", name, ref)
	}

	return nil
}

// Drivers returns the roster of a session, in the order it was recorded.
func (a *Archive) Drivers(ctx context.Context, ref SessionRef) ([]telemetry.DriverInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var drivers []telemetry.DriverInfo

	if err := a.readJSON(ref, driversFileName, &drivers); err != nil {
		return nil, err
	}

	for i := range drivers {
		if drivers[i].TeamColor != "" && !strings.HasPrefix(drivers[i].TeamColor, "#") {
			drivers[i].TeamColor = "#" + drivers[i].TeamColor
		}
	}

	return drivers, nil
}

func (a *Archive) lapRecords(ref SessionRef) ([]lapRecord, error) {
	var records []lapRecord

	if err := a.readJSON(ref, lapsFileName, &records); err != nil {
		return nil, err
	}

	return records, nil
}

// Laps returns the metadata of every lap driven by driver in a session, ordered by lap number.
func (a *Archive) Laps(ctx context.Context, ref SessionRef, driver string) ([]telemetry.LapInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := a.lapRecords(ref)

	if err != nil {
		return nil, err
	}

	var laps []telemetry.LapInfo

	for _, record := range records {
		if record.DriverNumber == driver {
			laps = append(laps, record.LapInfo())
		}
	}

	sort.Slice(laps, func(i, j int) bool {
		return laps[i].LapNumber < laps[j].LapNumber
	})

	return laps, nil
}

// Lap loads the metadata and telemetry samples of one lap.
func (a *Archive) Lap(ctx context.Context, ref SessionRef, driver string, lapNumber int) (telemetry.Lap, error) {
	laps, err := a.Laps(ctx, ref, driver)

	if err != nil {
		return telemetry.Lap{}, err
	}

	for _, info := range laps {
		if info.LapNumber == lapNumber {
			return a.loadTelemetry(ctx, ref, info)
		}
	}

	return telemetry.Lap{}, errors.Wrapf(ErrNotFound, "lap %d for driver %s in %s", lapNumber, driver, ref)
}

// FastestLap loads the quickest timed, non-deleted lap of a session.
func (a *Archive) FastestLap(ctx context.Context, ref SessionRef) (telemetry.Lap, error) {
	if err := ctx.Err(); err != nil {
		return telemetry.Lap{}, err
	}

	records, err := a.lapRecords(ref)

	if err != nil {
		return telemetry.Lap{}, err
	}

	var fastest *telemetry.LapInfo

	for _, record := range records {
		info := record.LapInfo()

		if info.LapTime <= 0 || info.Deleted {
			continue
		}

		if fastest == nil || info.LapTime < fastest.LapTime {
			fastest = &info
		}
	}

	if fastest == nil {
		return telemetry.Lap{}, errors.Wrapf(ErrNotFound, "timed lap in %s", ref)
	}

	return a.loadTelemetry(ctx, ref, *fastest)
}

func (a *Archive) loadTelemetry(ctx context.Context, ref SessionRef, info telemetry.LapInfo) (telemetry.Lap, error) {
	if err := ctx.Err(); err != nil {
		return telemetry.Lap{}, err
	}

	sessionPath, err := a.sessionPath(ref)

	if err != nil {
		return telemetry.Lap{}, err
	}

	driver, err := pathElement("driver", info.DriverNumber)

	if err != nil {
		return telemetry.Lap{}, err
	}

	telemetryPath := filepath.Join(sessionPath, telemetryDir, driver, fmt.Sprintf("%d.csv", info.LapNumber))

	f, err := os.Open(telemetryPath)

	if os.IsNotExist(err) {
		return telemetry.Lap{}, errors.Wrapf(ErrNotFound, "telemetry for lap %d of driver %s in %s", info.LapNumber, info.DriverNumber, ref)
	} else if err != nil {
		return telemetry.Lap{}, errors.Wrapf(err, "archive: open telemetry %s", telemetryPath)
	}

	defer f.Close()

	samples, err := telemetry.ReadSamples(f)

	if err != nil {
		return telemetry.Lap{}, errors.Wrapf(err, "archive: read telemetry %s", telemetryPath)
	}

	a.logger.WithField("session", ref.String()).Debugf("Loaded %d samples for lap %d of driver %s", len(samples), info.LapNumber, info.DriverNumber)

	return telemetry.Lap{
		Info:    info,
		Samples: samples,
	}, nil
}
