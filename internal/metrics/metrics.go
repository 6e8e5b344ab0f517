// Package metrics exposes comparison and roster counters to prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lapcompare"

// Comparison outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalid_input"
	OutcomeNotFound     = "not_found"
	OutcomeError        = "error"
)

// Metrics is safe to use as a nil pointer, in which case nothing is recorded.
type Metrics struct {
	comparisons    *prometheus.CounterVec
	duration       prometheus.Histogram
	samples        prometheus.Counter
	underSegmented prometheus.Counter
	rosterLookups  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		comparisons: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparisons_total",
			Help:      "Lap comparisons requested, by outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "comparison_duration_seconds",
			Help:      "Time taken to load, prepare and compare two laps.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		samples: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_processed_total",
			Help:      "Telemetry samples run through comparisons.",
		}),
		underSegmented: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "under_segmented_total",
			Help:      "Comparisons which produced fewer segments than requested.",
		}),
		rosterLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roster_lookups_total",
			Help:      "Driver roster lookups, by cache result.",
		}, []string{"result"}),
	}
}

// ObserveComparison records a finished comparison. samples and underSegmented are only
// recorded for successful comparisons.
func (m *Metrics) ObserveComparison(outcome string, took time.Duration, samples int, underSegmented bool) {
	if m == nil {
		return
	}

	m.comparisons.WithLabelValues(outcome).Inc()
	m.duration.Observe(took.Seconds())

	if outcome != OutcomeOK {
		return
	}

	m.samples.Add(float64(samples))

	if underSegmented {
		m.underSegmented.Inc()
	}
}

func (m *Metrics) RosterLookup(hit bool) {
	if m == nil {
		return
	}

	if hit {
		m.rosterLookups.WithLabelValues("hit").Inc()
	} else {
		m.rosterLookups.WithLabelValues("miss").Inc()
	}
}
