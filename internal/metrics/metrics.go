// Package metrics defines the Prometheus metrics exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "csvinsight"

// RegistrationsTotal counts registration attempts.
// Label result: "ok", "invalid", "duplicate_email", "weak_password", "error".
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label result: "ok", "invalid", "user_not_found", "wrong_password", "error".
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// UploadsTotal counts upload attempts.
// Label result: "ok", "no_file", "unsupported_format", "parse_error", "error".
var UploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Total number of CSV uploads, by result.",
	},
	[]string{"result"},
)

// AnalysisDuration measures parse + describe + chart rendering time.
var AnalysisDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_duration_seconds",
		Help:      "Duration of analyzing one uploaded file.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ChartsRenderedTotal counts generated chart images.
// Label kind: the chart label, e.g. "Histogram".
var ChartsRenderedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "charts_rendered_total",
		Help:      "Total number of chart images rendered, by kind.",
	},
	[]string{"kind"},
)
