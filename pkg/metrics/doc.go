/*
Package metrics provides Prometheus metrics collection and exposition for
the conclave testing engine.

The metrics package defines and registers every conclave metric using the
Prometheus client library, providing observability into how many
iterations have run, how many bugs were found and of what kind, how many
scheduling steps and decisions an iteration consumed, and how long a
monitor spent in a hot state before cooling or triggering a liveness bug.
Metrics are exposed via an HTTP endpoint for scraping by Prometheus
servers.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Metric Types                   │          │
	│  │                                              │          │
	│  │  Gauge: Instant values (operations enabled) │          │
	│  │  Counter: Monotonic increases (iterations)  │          │
	│  │  Histogram: Distributions (steps, duration) │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Testing engine: iterations, bugs, duration │          │
	│  │  Scheduler: steps, enabled ops, decisions   │          │
	│  │  Runtime: actors created, events sent       │          │
	│  │  Monitor: hot-step distribution              │          │
	│  └──────────────────────────────────────────────┘          │
	│                                                            │
	└────────────────────────────────────────────────────────────┘

# Metric reference

conclave_iterations_run_total:
  - Type: Counter
  - Description: Total number of testing-engine iterations executed

conclave_bugs_found_total{kind}:
  - Type: Counter
  - Description: Total number of bugs found, by kind
  - Labels: kind (deadlock, liveness, assertion, ...)

conclave_iteration_duration_seconds:
  - Type: Histogram
  - Description: Wall-clock time to drive one iteration to completion

conclave_scheduling_steps:
  - Type: Histogram
  - Description: Number of scheduler decision points consumed per iteration

conclave_operations_enabled:
  - Type: Gauge
  - Description: Number of operations currently enabled in the active scheduler

conclave_scheduler_decisions_total{strategy}:
  - Type: Counter
  - Description: Total number of scheduling decisions made, by strategy
  - Labels: strategy (random, dfs, pct, fair-random)

conclave_actors_created_total:
  - Type: Counter
  - Description: Total number of actors created across all runtimes

conclave_events_sent_total:
  - Type: Counter
  - Description: Total number of events sent through SendEvent

conclave_events_dropped_total{reason}:
  - Type: Counter
  - Description: Total number of events dropped, by reason
  - Labels: reason

conclave_monitor_hot_steps:
  - Type: Histogram
  - Description: Consecutive scheduled steps a monitor spent in a hot
    state before cooling or triggering a liveness bug

# Usage

Updating Counter/Gauge Metrics:

	import "github.com/latticeforge/conclave/pkg/metrics"

	metrics.IterationsRun.Inc()
	metrics.OperationsEnabled.Set(3)
	metrics.BugsFound.WithLabelValues("deadlock").Inc()

Recording Histogram Observations:

	// Direct observation
	metrics.SchedulingSteps.Observe(128)

	// Using the Timer helper
	timer := metrics.NewTimer()
	// ... drive an iteration ...
	timer.ObserveDuration(metrics.IterationDuration)

Complete Example:

	package main

	import (
		"net/http"

		"github.com/latticeforge/conclave/pkg/metrics"
	)

	func main() {
		metrics.IterationsRun.Inc()
		metrics.SchedulingSteps.Observe(42)

		http.Handle("/metrics", metrics.Handler())
		http.ListenAndServe(":9090", nil)
	}
*/
package metrics
