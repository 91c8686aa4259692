// Package metrics defines and registers the custom Prometheus metrics of the
// PetCare console. It is the single source of truth for metric names, labels
// and help strings.
//
// All metrics are registered with the default registry at package init via
// promauto; HTTP server metrics are added separately by echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "petcare"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionOperationsTotal counts session store operations.
// Labels:
//   - operation: "login", "register", "logout", "restore", "update_profile"
//   - result: "success" or the error kind (e.g. "unauthenticated", "transport")
var SessionOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "operations_total",
		Help:      "Total number of session operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// SessionForcedLogoutsTotal counts logouts forced by a 401 from the API.
var SessionForcedLogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "forced_logouts_total",
		Help:      "Total number of sessions wiped because the API rejected the token.",
	},
)

// SessionAuthenticated is 1 while a principal is held, 0 otherwise.
var SessionAuthenticated = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "authenticated",
		Help:      "Whether the console currently holds an authenticated principal.",
	},
)

// AccessDeniedTotal counts requests refused by the local guards.
// Label:
//   - guard: "session", "route", "permission", "role" or "resource"
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "access",
		Name:      "denied_total",
		Help:      "Total number of requests refused by an authorization guard.",
	},
	[]string{"guard"},
)

// ── Remote API metrics ────────────────────────────────────────────────────────

// RemoteRequestsTotal counts calls made to the PetLand API.
// Labels:
//   - endpoint: the route template (e.g. "/auth/login", "/pets/:id")
//   - method: HTTP method
//   - code: status code, or "error" when no response was received
var RemoteRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "remote",
		Name:      "requests_total",
		Help:      "Total number of requests sent to the PetLand API.",
	},
	[]string{"endpoint", "method", "code"},
)

// RemoteRequestDuration measures round-trip latency of PetLand API calls.
var RemoteRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "remote",
		Name:      "request_duration_seconds",
		Help:      "Duration of requests sent to the PetLand API.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"endpoint"},
)
