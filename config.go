package lapcompare

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const (
	DefaultListenAddress = "0.0.0.0:8000"
	DefaultArchivePath   = "./archive"
	DefaultRosterPath    = "./roster.db"
	DefaultSegments      = 20
	DefaultMaxSegments   = 500
	DefaultLogLevel      = "info"
)

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Roster     RosterConfig     `yaml:"roster"`
	Comparison ComparisonConfig `yaml:"comparison"`
	Log        LogConfig        `yaml:"log"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

type ArchiveConfig struct {
	Path string `yaml:"path"`
}

type RosterConfig struct {
	Path string `yaml:"path"`
}

type ComparisonConfig struct {
	// Segments is the number of segments laps are cut into when a request doesn't ask for a
	// specific count.
	Segments int `yaml:"segments"`

	// MaxSegments bounds the segment count a request may ask for.
	MaxSegments int `yaml:"max_segments"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		HTTP:       HTTPConfig{Listen: DefaultListenAddress},
		Archive:    ArchiveConfig{Path: DefaultArchivePath},
		Roster:     RosterConfig{Path: DefaultRosterPath},
		Comparison: ComparisonConfig{Segments: DefaultSegments, MaxSegments: DefaultMaxSegments},
		Log:        LogConfig{Level: DefaultLogLevel},
	}
}

// ReadConfig decodes the YAML config at path over the defaults.
func ReadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	f, err := os.Open(path)

	if err != nil {
		return nil, errors.Wrapf(err, "config: open %s", path)
	}

	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(config); err != nil {
		return nil, errors.Wrapf(err, "config: decode %s", path)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.Comparison.Segments <= 0 {
		return errors.Errorf("config: comparison.segments must be positive, got %d", c.Comparison.Segments)
	}

	if c.Comparison.MaxSegments < c.Comparison.Segments {
		return errors.Errorf("config: comparison.max_segments (%d) must be at least comparison.segments (%d)", c.Comparison.MaxSegments, c.Comparison.Segments)
	}

	if c.Archive.Path == "" {
		return errors.New("config: archive.path must be set")
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}

	return nil
}

func (c *Config) LogLevel() (logrus.Level, error) {
	level, err := logrus.ParseLevel(c.Log.Level)

	if err != nil {
		return logrus.InfoLevel, errors.Wrap(err, "config: log.level")
	}

	return level, nil
}
