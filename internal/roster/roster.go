// Package roster caches session driver rosters in a bolt database.
package roster

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"justapengu.in/lapcompare/internal/archive"
	"justapengu.in/lapcompare/internal/metrics"
	"justapengu.in/lapcompare/pkg/comparison"
	"justapengu.in/lapcompare/pkg/telemetry"
)

var driversBucketName = []byte("drivers")

// Loader fetches the roster of a session on a cache miss.
type Loader func(ctx context.Context, ref archive.SessionRef) ([]telemetry.DriverInfo, error)

type Store struct {
	db      *bolt.DB
	loader  Loader
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
}

func Open(path string, loader Loader, m *metrics.Metrics, logger logrus.FieldLogger) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})

	if err != nil {
		return nil, errors.Wrapf(err, "roster: open %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(driversBucketName)

		return err
	})

	if err != nil {
		_ = db.Close()

		return nil, errors.Wrap(err, "roster: create bucket")
	}

	return &Store{
		db:      db,
		loader:  loader,
		metrics: m,
		logger:  logger,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func sessionKey(ref archive.SessionRef) []byte {
	return []byte(ref.String())
}

// Drivers returns the cached roster of a session, loading and caching it on a miss.
func (s *Store) Drivers(ctx context.Context, ref archive.SessionRef) ([]telemetry.DriverInfo, error) {
	var drivers []telemetry.DriverInfo
	var found bool

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(driversBucketName).Get(sessionKey(ref))

		if data == nil {
			return nil
		}

		found = true

		return json.Unmarshal(data, &drivers)
	})

	if err != nil {
		return nil, errors.Wrapf(err, "roster: read %s", ref)
	}

	s.metrics.RosterLookup(found)

	if found {
		return drivers, nil
	}

	drivers, err = s.loader(ctx, ref)

	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(drivers)

	if err != nil {
		return nil, errors.Wrapf(err, "roster: encode %s", ref)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(driversBucketName).Put(sessionKey(ref), data)
	})

	if err != nil {
		// the roster is still usable even though it couldn't be cached
		s.logger.WithError(err).Errorf("Could not cache roster for %s", ref)
	} else {
		s.logger.Debugf("Cached roster of %d drivers for %s", len(drivers), ref)
	}

	return drivers, nil
}

// Lookup returns a function which resolves driver numbers against the roster of a session.
func (s *Store) Lookup(ctx context.Context, ref archive.SessionRef) (comparison.DriverLookup, error) {
	drivers, err := s.Drivers(ctx, ref)

	if err != nil {
		return nil, err
	}

	byNumber := make(map[string]telemetry.DriverInfo, len(drivers))

	for _, driver := range drivers {
		byNumber[driver.DriverNumber] = driver
	}

	return func(number string) (telemetry.DriverInfo, bool) {
		driver, ok := byNumber[number]

		return driver, ok
	}, nil
}

// Invalidate drops the cached roster of a session.
func (s *Store) Invalidate(ref archive.SessionRef) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(driversBucketName).Delete(sessionKey(ref))
	})

	return errors.Wrapf(err, "roster: invalidate %s", ref)
}
