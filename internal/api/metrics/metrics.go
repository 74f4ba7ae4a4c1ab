// Package metrics defines and registers the custom Prometheus metrics of the
// farmtrack API. It is the single source of truth for metric names, labels and
// help strings. Metrics register with the default registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "farmtrack"

// ── Authentication ────────────────────────────────────────────────────────────

// ResolutionsTotal counts credential resolutions performed by the request gate.
// Label:
//   - outcome: "access", "refresh", "bypassed", or the failure code
//     ("TOKENS_EXPIRED", "ACCOUNT_BLOCKED", "error")
var ResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_resolutions_total",
		Help:      "Total number of credential resolutions, by outcome.",
	},
	[]string{"outcome"},
)

// RotationsTotal counts silent token rotations triggered by a valid refresh token.
var RotationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rotations_total",
		Help:      "Total number of token pairs rotated via refresh token.",
	},
)

// DenialsTotal counts requests rejected at the authorization boundary.
// Label:
//   - code: "TOKENS_EXPIRED", "ACCOUNT_BLOCKED" or "NOT_ENOUGH_RIGHTS"
var DenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_denials_total",
		Help:      "Total number of requests denied by the authorization matcher.",
	},
	[]string{"code"},
)

// LoginsTotal counts password logins.
// Label:
//   - result: "ok" or the failure code
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Audit trail ───────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
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

// AuditEventsTotal counts audit events by what happened to them.
// Label:
//   - result: "written", "dropped" or "failed"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events, by result.",
	},
	[]string{"result"},
)
