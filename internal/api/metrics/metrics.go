// Package metrics defines and registers the custom Prometheus metrics of the
// table API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto; HTTP request metrics come from the
// echoprometheus middleware installed by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tablehub"

// ── Table metrics ─────────────────────────────────────────────────────────────

// TableOperationsTotal counts dispatcher and record operations.
// Labels:
//   - table: registry entity tag (e.g. "shoppingcart")
//   - operation: "list", "detail", "create", "update" or "delete"
//   - outcome: "ok", "denied", "not_found", "invalid" or "error"
var TableOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "table_operations_total",
		Help:      "Total number of table operations, by table, operation and outcome.",
	},
	[]string{"table", "operation", "outcome"},
)

// PermissionDeniedTotal counts policy denials.
// Labels:
//   - table: registry entity tag
//   - role: the actor's role
var PermissionDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_denied_total",
		Help:      "Total number of requests denied by the access policy.",
	},
	[]string{"table", "role"},
)

// IDGenerationExhaustedTotal counts creates aborted because every generated
// identifier collided.
var IDGenerationExhaustedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "id_generation_exhausted_total",
		Help:      "Total number of identifier generations that exhausted their attempts.",
	},
	[]string{"table"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts credential exchanges.
// Label:
//   - result: "success" or "invalid"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts created identities by role.
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registered identities, by role.",
	},
	[]string{"role"},
)

// SessionsCreatedTotal counts issued session codes.
var SessionsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_created_total",
		Help:      "Total number of session codes issued.",
	},
)
