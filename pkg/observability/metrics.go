// Package observability exposes prometheus metrics for the interview engine.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the counters and histograms the engine reports.
type Metrics struct {
	stepsTotal         *prometheus.CounterVec
	stepDuration       *prometheus.HistogramVec
	extractionAttempts prometheus.Counter
	extractionFailures prometheus.Counter
	sessionsStarted    prometheus.Counter
	sessionsCompleted  prometheus.Counter
}

// NewMetrics creates and registers the engine metrics on the given
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "escrituras",
			Name:      "steps_processed_total",
			Help:      "Step submissions by step name and outcome.",
		}, []string{"step", "outcome"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "escrituras",
			Name:      "step_duration_seconds",
			Help:      "Latency of processing one step, including extraction.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		extractionAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "escrituras",
			Name:      "extraction_attempts_total",
			Help:      "Calls made to the extraction gateway, including retries.",
		}),
		extractionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "escrituras",
			Name:      "extraction_failures_total",
			Help:      "Uploads that exhausted the extraction retry budget.",
		}),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "escrituras",
			Name:      "sessions_started_total",
			Help:      "Interview sessions created.",
		}),
		sessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "escrituras",
			Name:      "sessions_completed_total",
			Help:      "Interview sessions that reached the terminal step.",
		}),
	}
	reg.MustRegister(
		m.stepsTotal,
		m.stepDuration,
		m.extractionAttempts,
		m.extractionFailures,
		m.sessionsStarted,
		m.sessionsCompleted,
	)
	return m
}

// ObserveStep records one processed step submission.
func (m *Metrics) ObserveStep(step, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(step, outcome).Inc()
	m.stepDuration.WithLabelValues(step).Observe(elapsed.Seconds())
}

// ObserveExtraction records gateway attempts for one upload.
func (m *Metrics) ObserveExtraction(attempts int, failed bool) {
	if m == nil {
		return
	}
	m.extractionAttempts.Add(float64(attempts))
	if failed {
		m.extractionFailures.Inc()
	}
}

// SessionStarted records a new interview.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

// SessionCompleted records an interview reaching the terminal step.
func (m *Metrics) SessionCompleted() {
	if m == nil {
		return
	}
	m.sessionsCompleted.Inc()
}
