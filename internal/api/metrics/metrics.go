// Package metrics defines and registers all custom Prometheus metrics for the
// appointment API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clinic"

// ── Appointment metrics ───────────────────────────────────────────────────────

// AppointmentsCreatedTotal counts newly booked appointments.
var AppointmentsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "appointments_created_total",
		Help:      "Total number of appointments booked.",
	},
)

// AppointmentTransitionsTotal counts lifecycle transitions that committed.
// Label:
//   - to: the target status (e.g. "confirmed", "canceled")
var AppointmentTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "appointment_transitions_total",
		Help:      "Total number of appointment status transitions, by target status.",
	},
	[]string{"to"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsScheduledTotal counts notifications queued for delivery.
// Labels:
//   - type: notification type (e.g. "appointment_reminder")
//   - channel: delivery channel ("email", "sms", "push")
var NotificationsScheduledTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_scheduled_total",
		Help:      "Total number of notifications scheduled, by type and channel.",
	},
	[]string{"type", "channel"},
)

// NotificationsSentTotal counts successful deliveries.
var NotificationsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of notifications delivered successfully, by channel.",
	},
	[]string{"channel"},
)

// NotificationFailuresTotal counts transport failures recorded on
// notifications. Retried attempts that fail again count each time.
var NotificationFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total number of failed notification delivery attempts, by channel.",
	},
	[]string{"channel"},
)

// DispatchDuration measures how long one delivery attempt takes, from load
// to outcome commit.
// Label:
//   - channel: delivery channel
var DispatchDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_dispatch_duration_seconds",
		Help:      "Duration of a single notification delivery attempt.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"channel"},
)
