// Package metrics defines and registers all custom Prometheus metrics for the
// memory API. It is the single source of truth for metric names, labels and
// help strings. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric the service exports, including the HTTP
// request metrics echoprometheus registers for the router.
const Namespace = "memory"

// ── Authentication ────────────────────────────────────────────────────────────

// AuthTokenRejectionsTotal counts requests refused by the auth middleware.
// Label:
//   - reason: pipeline state or claim reason (e.g. "no_token", "decode_failed", "expired")
var AuthTokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "auth_token_rejections_total",
		Help:      "Total number of requests rejected by the authentication middleware.",
	},
	[]string{"reason"},
)

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "invalid_input", "rate_limited" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AccessDeniedTotal counts authenticated requests refused by RequireRole.
// Labels:
//   - role: the caller's global role
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "access_denied_total",
		Help:      "Total number of requests refused for lacking a required role.",
	},
	[]string{"role"},
)

// ── Assignments ───────────────────────────────────────────────────────────────

// AssignmentChangesTotal counts assignment writes.
// Labels:
//   - action: "assign", "remove" or "change_role"
//   - result: "ok" or the error kind returned (e.g. "forbidden", "already_assigned")
var AssignmentChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "assignment_changes_total",
		Help:      "Total number of assignment write attempts, by action and result.",
	},
	[]string{"action", "result"},
)

// ── Audit ─────────────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events by outcome.
// Label:
//   - result: "persisted", "dropped" (queue full) or "failed" (store error)
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events, by outcome.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the events waiting in each dispatcher worker channel.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
