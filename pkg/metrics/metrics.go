package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Testing engine metrics
	IterationsRun = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conclave_iterations_run_total",
			Help: "Total number of testing-engine iterations executed",
		},
	)

	BugsFound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conclave_bugs_found_total",
			Help: "Total number of bugs found by kind",
		},
		[]string{"kind"},
	)

	IterationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conclave_iteration_duration_seconds",
			Help:    "Wall-clock time to drive one testing-engine iteration to completion",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Scheduler metrics
	SchedulingSteps = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conclave_scheduling_steps",
			Help:    "Number of scheduler decision points consumed per iteration",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
	)

	OperationsEnabled = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "conclave_operations_enabled",
			Help: "Number of operations currently enabled in the active scheduler",
		},
	)

	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conclave_scheduler_decisions_total",
			Help: "Total number of scheduling decisions made, by strategy",
		},
		[]string{"strategy"},
	)

	// Runtime metrics
	ActorsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conclave_actors_created_total",
			Help: "Total number of actors created across all runtimes",
		},
	)

	EventsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conclave_events_sent_total",
			Help: "Total number of events sent through SendEvent",
		},
	)

	EventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conclave_events_dropped_total",
			Help: "Total number of events dropped, by reason",
		},
		[]string{"reason"},
	)

	// Monitor metrics
	MonitorHotSteps = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conclave_monitor_hot_steps",
			Help:    "Consecutive scheduled steps a monitor spent in a hot state before cooling or a liveness bug",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000},
		},
	)
)

func init() {
	prometheus.MustRegister(IterationsRun)
	prometheus.MustRegister(BugsFound)
	prometheus.MustRegister(IterationDuration)
	prometheus.MustRegister(SchedulingSteps)
	prometheus.MustRegister(OperationsEnabled)
	prometheus.MustRegister(DecisionsTotal)
	prometheus.MustRegister(ActorsCreated)
	prometheus.MustRegister(EventsSent)
	prometheus.MustRegister(EventsDropped)
	prometheus.MustRegister(MonitorHotSteps)
}

// Handler returns the Prometheus HTTP handler, for embedding in the CLI's
// optional metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations against a histogram.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer, starting now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration to the histogram in vec
// selected by labels.
func (t *Timer) ObserveDurationVec(vec *prometheus.HistogramVec, labels ...string) {
	vec.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
