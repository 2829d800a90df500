// Package metrics defines the Prometheus metrics of the portal. Everything
// registers with the default registry on import through promauto.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hms"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "unavailable" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// LogoutsTotal counts logouts. upstream is "ok" or "failed"; the local
// session is cleared either way.
var LogoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of logouts, by upstream logout outcome.",
	},
	[]string{"upstream"},
)

// SessionsExpiredTotal counts requests that ended in a redirect to login.
// Label:
//   - reason: "missing_session" or "upstream_unauthorized"
var SessionsExpiredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_expired_total",
		Help:      "Total number of requests whose session expired mid-request.",
	},
	[]string{"reason"},
)

// ── Upstream metrics ──────────────────────────────────────────────────────────

var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of OpenMRS REST calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"endpoint", "status"},
)

// ObserveUpstream matches the openmrs client's Observer signature.
func ObserveUpstream(endpoint string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	UpstreamRequestDuration.WithLabelValues(endpoint, label).Observe(elapsed.Seconds())
}

// ── Audit metrics ─────────────────────────────────────────────────────────────

var AuditEventsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Audit events discarded because the dispatcher was full or closed.",
	},
	[]string{"type"},
)

// AuditQueueDepth tracks events waiting in each dispatcher worker channel.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending per worker.",
	},
	[]string{"worker_id"},
)

// SetAuditQueueDepth matches the dispatcher Depth hook.
func SetAuditQueueDepth(workerID, depth int) {
	AuditQueueDepth.WithLabelValues(strconv.Itoa(workerID)).Set(float64(depth))
}

// ── HTTP metrics ──────────────────────────────────────────────────────────────

var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests served, by route and status.",
	},
	[]string{"method", "route", "status"},
)

var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP requests served by the portal.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)
