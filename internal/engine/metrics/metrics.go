package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the risk engine.
type Metrics struct {
	// Reference table lookup latencies by source
	LookupLatency *prometheus.HistogramVec

	// Completed assessments by risk level
	Assessments *prometheus.CounterVec

	// Idempotent-replay cache hits and misses
	CacheOutcome *prometheus.CounterVec

	// Non-fatal warnings attached to results, by code
	Warnings *prometheus.CounterVec

	// Overall risk computation latency
	ComputeLatency prometheus.Histogram
}

// New creates a Metrics instance with all engine metrics registered.
func New() *Metrics {
	return &Metrics{
		LookupLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "memento_engine_lookup_duration_seconds",
			Help:    "Duration of reference table lookups by source",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"source"}), // source: "baseline", "causes"

		Assessments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "memento_engine_assessments_total",
			Help: "Total completed risk assessments by risk level",
		}, []string{"risk_level"}),

		CacheOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "memento_engine_cache_total",
			Help: "Assessment cache lookups by outcome",
		}, []string{"outcome"}), // outcome: "hit", "miss"

		Warnings: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "memento_engine_warnings_total",
			Help: "Non-fatal warnings attached to assessment results by code",
		}, []string{"code"}),

		ComputeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "memento_engine_compute_duration_seconds",
			Help:    "Duration of full risk computation including table lookups",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveLookupLatency records the duration of one reference table lookup.
func (m *Metrics) ObserveLookupLatency(source string, d time.Duration) {
	if m != nil {
		m.LookupLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementAssessments records a completed assessment.
func (m *Metrics) IncrementAssessments(riskLevel string) {
	if m != nil {
		m.Assessments.WithLabelValues(riskLevel).Inc()
	}
}

// IncrementCache records an assessment cache outcome.
func (m *Metrics) IncrementCache(outcome string) {
	if m != nil {
		m.CacheOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementWarning records a warning attached to a result.
func (m *Metrics) IncrementWarning(code string) {
	if m != nil {
		m.Warnings.WithLabelValues(code).Inc()
	}
}

// ObserveComputeLatency records the total computation duration.
func (m *Metrics) ObserveComputeLatency(d time.Duration) {
	if m != nil {
		m.ComputeLatency.Observe(d.Seconds())
	}
}
