// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for job metrics.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// JobRuns counts finished job runs.
// Use RegisterMetrics to register this with a Prometheus registry.
var JobRuns = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inkwell_scheduler_job_runs_total",
		Help: "Total number of scheduled job runs by job and outcome",
	},
	[]string{"job", "outcome"},
)

// JobDuration observes job run time.
// Use RegisterMetrics to register this with a Prometheus registry.
var JobDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "inkwell_scheduler_job_duration_seconds",
		Help:    "Scheduled job run duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"job"},
)

// RegisterMetrics registers scheduler metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(JobRuns)
	reg.MustRegister(JobDuration)
}

// RecordJobRun records one finished run.
func RecordJobRun(job, outcome string, elapsed time.Duration) {
	JobRuns.WithLabelValues(job, outcome).Inc()
	JobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}
