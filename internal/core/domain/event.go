package domain

import "time"

// EventKind identifies what happened to an appointment.
type EventKind string

const (
	EventCreated     EventKind = "created"
	EventConfirmed   EventKind = "confirmed"
	EventCanceled    EventKind = "canceled"
	EventRescheduled EventKind = "rescheduled"
)

// AppointmentEvent is emitted by the appointment lifecycle and consumed by
// the notification dispatcher. The binding of event kind to notification
// type and channel is configuration, not part of this type.
type AppointmentEvent struct {
	Appointment *Appointment
	Kind        EventKind
	OccurredAt  time.Time
}
