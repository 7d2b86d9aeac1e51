package queue

import "github.com/hans-clinic/appointment-system/internal/core/domain"

// Route binds an appointment event kind to the notification it produces.
// The binding is configuration data owned by the caller, not core logic.
type Route struct {
	Type    domain.NotificationType
	Channel domain.NotificationChannel
	Subject string
}

// Routes maps event kinds to notification routes. Event kinds without a
// route are silently ignored by the dispatcher.
type Routes map[domain.EventKind]Route

// DefaultRoutes is the stock binding: lifecycle changes notify the patient
// by email.
func DefaultRoutes() Routes {
	return Routes{
		domain.EventConfirmed: {
			Type:    domain.TypeAppointmentConfirmation,
			Channel: domain.ChannelEmail,
			Subject: "Your appointment is confirmed",
		},
		domain.EventCanceled: {
			Type:    domain.TypeAppointmentCancellation,
			Channel: domain.ChannelEmail,
			Subject: "Your appointment was canceled",
		},
		domain.EventRescheduled: {
			Type:    domain.TypeAppointmentUpdate,
			Channel: domain.ChannelEmail,
			Subject: "Your appointment was updated",
		},
	}
}
