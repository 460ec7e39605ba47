// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyauth.
//
// go-keyauth is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for authorization
// decisions, tracking-table occupancy, and the hosting HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all keyauth metrics
	Namespace = "keyauth"

	// Label names
	LabelPurpose    = "purpose"
	LabelVerdict    = "verdict"
	LabelTable      = "table"
	LabelMethod     = "method"
	LabelStatusCode = "status_code"

	// Verdict values
	VerdictAllowed = "allowed"
	VerdictDenied  = "denied"

	// Table names
	TableAccessTime  = "access_time"
	TableAccessCount = "access_count"
)

var (
	// DecisionsTotal counts authorization decisions by purpose and verdict.
	// Denied decisions additionally carry the denial classification.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "decisions_total",
			Help:      "Total number of authorization decisions by purpose and verdict",
		},
		[]string{LabelPurpose, LabelVerdict},
	)

	// DenialsTotal counts denied decisions by purpose and denial classification.
	DenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "denials_total",
			Help:      "Total number of denied authorization decisions by purpose and reason",
		},
		[]string{LabelPurpose, "reason"},
	)

	// DecisionDuration tracks decision latency. The decision procedure is a
	// single in-memory pass, so buckets start in the microseconds.
	DecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "decision_duration_seconds",
			Help:      "Duration of authorization decisions in seconds",
			Buckets:   []float64{.000001, .00001, .0001, .001, .01, .1},
		},
		[]string{LabelPurpose},
	)

	// TableEntries tracks current tracking-table occupancy by table.
	TableEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "table_entries",
			Help:      "Current number of entries in each tracking table",
		},
		[]string{LabelTable},
	)

	// TableCapacity reports the configured maximum entries by table.
	TableCapacity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "table_capacity",
			Help:      "Configured maximum entries for each tracking table",
		},
		[]string{LabelTable},
	)

	// HTTPRequestsTotal counts HTTP requests by method and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method and status code",
		},
		[]string{LabelMethod, LabelStatusCode},
	)

	// HTTPRequestDuration tracks HTTP request latency by method.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{LabelMethod},
	)
)

// RecordDecision records one authorization decision. reason is empty for
// allowed decisions and the denial classification otherwise.
func RecordDecision(purpose string, allowed bool, reason string, duration time.Duration) {
	verdict := VerdictAllowed
	if !allowed {
		verdict = VerdictDenied
		DenialsTotal.WithLabelValues(purpose, reason).Inc()
	}
	DecisionsTotal.WithLabelValues(purpose, verdict).Inc()
	DecisionDuration.WithLabelValues(purpose).Observe(duration.Seconds())
}

// RecordTableStats updates the occupancy gauges for both tracking tables.
func RecordTableStats(timeEntries, timeCapacity, countEntries, countCapacity int) {
	TableEntries.WithLabelValues(TableAccessTime).Set(float64(timeEntries))
	TableCapacity.WithLabelValues(TableAccessTime).Set(float64(timeCapacity))
	TableEntries.WithLabelValues(TableAccessCount).Set(float64(countEntries))
	TableCapacity.WithLabelValues(TableAccessCount).Set(float64(countCapacity))
}
