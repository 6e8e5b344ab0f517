package archive

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Event is the schedule of one race weekend, read from event.yml.
type Event struct {
	Venue    string         `yaml:"-" json:"venue"`
	Round    int            `yaml:"round" json:"round"`
	Name     string         `yaml:"name" json:"name"`
	Country  string         `yaml:"country" json:"country"`
	Sessions []EventSession `yaml:"sessions" json:"sessions"`
}

type EventSession struct {
	Name string    `yaml:"name" json:"name"`
	Dir  string    `yaml:"dir" json:"-"`
	Date time.Time `yaml:"date" json:"date"`
}

// Directory is the name of the directory holding the session's data. Unless set explicitly it
// is the lower case session name with spaces replaced by underscores.
func (s EventSession) Directory() string {
	if s.Dir != "" {
		return s.Dir
	}

	return strings.ToLower(strings.Replace(s.Name, " ", "_", -1))
}

// Started reports whether the first session of the event began before now.
func (e Event) Started(now time.Time) bool {
	if len(e.Sessions) == 0 {
		return false
	}

	return now.After(e.Sessions[0].Date)
}

// FindSession matches name against session names, case insensitively, and directories.
func (e Event) FindSession(name string) (EventSession, bool) {
	for _, session := range e.Sessions {
		if strings.EqualFold(session.Name, name) || session.Directory() == name {
			return session, true
		}
	}

	return EventSession{}, false
}

func (a *Archive) Event(year int, venue string) (*Event, error) {
	venuePath, err := a.venuePath(year, venue)

	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(venuePath, eventFileName))

	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNotFound, "event %d/%s", year, venue)
	} else if err != nil {
		return nil, errors.Wrapf(err, "archive: open event %d/%s", year, venue)
	}

	defer f.Close()

	var event Event

	if err := yaml.NewDecoder(f).Decode(&event); err != nil {
		return nil, errors.Wrapf(err, "archive: decode event %d/%s", year, venue)
	}

	event.Venue = venue

	return &event, nil
}
