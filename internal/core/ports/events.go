package ports

import "github.com/hans-clinic/appointment-system/internal/core/domain"

// EventEmitter receives appointment lifecycle events. The queue dispatcher
// implements it; services depend only on this port.
type EventEmitter interface {
	Emit(event domain.AppointmentEvent)
}
