// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for auth metrics.
const (
	OutcomeIssued     = "issued"
	OutcomeSuppressed = "suppressed" // unknown or inactive email
	OutcomeSendFailed = "send_failed"
	OutcomeVerified   = "verified"
	OutcomeInvalid    = "invalid"
	OutcomeUsed       = "used"
	OutcomeExpired    = "expired"
	OutcomeNoAccount  = "no_account"
	OutcomeValid      = "valid"
	OutcomeError      = "error"
)

// MagicLinkRequests counts login link requests by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var MagicLinkRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inkwell_magic_link_requests_total",
		Help: "Total number of magic link requests",
	},
	[]string{"outcome"},
)

// MagicLinkVerifications counts redemption attempts by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var MagicLinkVerifications = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inkwell_magic_link_verifications_total",
		Help: "Total number of magic link verification attempts",
	},
	[]string{"outcome"},
)

// SessionValidations counts session lookups by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var SessionValidations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inkwell_session_validations_total",
		Help: "Total number of session validations",
	},
	[]string{"outcome"},
)

// SweptRecords counts rows removed by the expiry sweep.
// Use RegisterMetrics to register this with a Prometheus registry.
var SweptRecords = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inkwell_swept_records_total",
		Help: "Total number of expired records deleted by the cleanup sweep",
	},
	[]string{"kind"},
)

// RegisterMetrics registers auth package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(MagicLinkRequests)
	reg.MustRegister(MagicLinkVerifications)
	reg.MustRegister(SessionValidations)
	reg.MustRegister(SweptRecords)
}

// RecordMagicLinkRequest increments the request counter for an outcome.
func RecordMagicLinkRequest(outcome string) {
	MagicLinkRequests.WithLabelValues(outcome).Inc()
}

// RecordMagicLinkVerification increments the verification counter for an outcome.
func RecordMagicLinkVerification(outcome string) {
	MagicLinkVerifications.WithLabelValues(outcome).Inc()
}

// RecordSessionValidation increments the validation counter for an outcome.
func RecordSessionValidation(outcome string) {
	SessionValidations.WithLabelValues(outcome).Inc()
}

// RecordSwept adds n deleted rows of kind ("sessions" or "magic_links").
func RecordSwept(kind string, n int64) {
	if n > 0 {
		SweptRecords.WithLabelValues(kind).Add(float64(n))
	}
}
