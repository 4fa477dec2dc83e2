// Package metrics defines and registers all custom Prometheus metrics for the
// auth API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed by the ops server at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// ── Login metrics ─────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login outcomes.
// Label:
//   - result: "success", "invalid_credentials", "locked", "inactive" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"result"},
)

// AccountLockoutsTotal counts transitions into the locked state.
var AccountLockoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_lockouts_total",
		Help:      "Total number of accounts locked after repeated failed logins.",
	},
)

// RegistrationsTotal counts created accounts.
// Label:
//   - role: "admin" or "user"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registered accounts, by role.",
	},
	[]string{"role"},
)

// ── Token metrics ─────────────────────────────────────────────────────────────

// TokensIssuedTotal counts issued token pairs.
// Label:
//   - reason: "register", "login" or "refresh"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of access/refresh token pairs issued.",
	},
	[]string{"reason"},
)

// TokenRejectionsTotal counts tokens that failed verification or identity resolution.
// Label:
//   - kind: "access" or "refresh"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Total number of rejected bearer or refresh tokens.",
	},
	[]string{"kind"},
)

// ── Admin metrics ─────────────────────────────────────────────────────────────

// AdminActionsTotal counts admin mutations.
// Label:
//   - action: "status", "role" or "delete"
var AdminActionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_actions_total",
		Help:      "Total number of admin user mutations, by action.",
	},
	[]string{"action"},
)

// ── Rate limiting / audit ─────────────────────────────────────────────────────

// RateLimitedTotal counts requests rejected by the auth limiter.
// Label:
//   - route: the matched route path
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the authentication rate limiter.",
	},
	[]string{"route"},
)

// AuditQueueDepth tracks events waiting in each audit worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditEventsDroppedTotal counts events discarded because a worker channel was full.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of audit events dropped due to a full queue.",
	},
)
