// Package metrics defines and registers all custom Prometheus metrics for the
// lending platform. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register themselves with the default registry via promauto at
// package initialisation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "toylib"

// ── Circulation metrics ───────────────────────────────────────────────────────

// LoansCreatedTotal counts successful checkouts.
// Label:
//   - category: the item's category (e.g. "Building Toys")
var LoansCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loans_created_total",
		Help:      "Total number of successful checkouts, by item category.",
	},
	[]string{"category"},
)

// ReturnsTotal counts completed returns.
// Label:
//   - late: "true" when a late fee was applied, "false" otherwise
var ReturnsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "returns_total",
		Help:      "Total number of completed returns, labelled by lateness.",
	},
	[]string{"late"},
)

// ReservationsTotal counts hold lifecycle events.
// Label:
//   - action: "created" or "cancelled"
var ReservationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_total",
		Help:      "Total number of hold events, by action.",
	},
	[]string{"action"},
)

// CirculationErrorsTotal counts rejected circulation operations.
// Label:
//   - reason: the guard that fired (e.g. "borrowing_limit", "item_unavailable",
//     "apply_failed")
var CirculationErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circulation_errors_total",
		Help:      "Total number of circulation operations rejected by a guard or persistence failure.",
	},
	[]string{"reason"},
)

// ── Notification relay metrics ────────────────────────────────────────────────

// NotificationsRelayedTotal counts notifications that completed relay.
// Label:
//   - severity: the notification severity tag
var NotificationsRelayedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_relayed_total",
		Help:      "Total number of notifications relayed to their recipient.",
	},
	[]string{"severity"},
)

// NotificationQueueDepth tracks the current number of notifications waiting in
// each relay worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each relay worker channel.",
	},
	[]string{"worker_id"},
)
