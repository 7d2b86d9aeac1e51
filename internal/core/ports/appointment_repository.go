package ports

import (
	"context"
	"time"

	"github.com/hans-clinic/appointment-system/internal/core/domain"
)

// ListAppointmentsFilter narrows appointment queries. ParticipantID matches
// rows where the user is either the patient or the doctor; empty means no
// participant restriction (admin scope).
type ListAppointmentsFilter struct {
	ParticipantID string
	Status        string
	From          time.Time
	To            time.Time
	Page          int
	Limit         int
}

// AppointmentRepository persists appointments. UpdateStatus must be an
// atomic conditional write keyed by (id, expected status) so concurrent
// transitions serialize: when the stored status no longer matches, the
// update applies to zero documents and the caller rejects.
type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) error
	FindByID(ctx context.Context, id string) (*domain.Appointment, error)
	List(ctx context.Context, f ListAppointmentsFilter) ([]*domain.Appointment, int64, error)
	// UpdateStatus transitions id from expect to target, recording note and
	// updated_at. Returns the updated appointment, or ErrAppointmentNotFound
	// when no document matched the (id, expect) pair.
	UpdateStatus(ctx context.Context, id string, expect, target domain.AppointmentStatus, note string, now time.Time) (*domain.Appointment, error)
	// UpdateTiming rewrites start/end on a pending or confirmed appointment.
	UpdateTiming(ctx context.Context, id string, start, end time.Time, now time.Time) (*domain.Appointment, error)
}
