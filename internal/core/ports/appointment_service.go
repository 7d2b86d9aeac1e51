package ports

import (
	"context"
	"time"

	"github.com/hans-clinic/appointment-system/internal/core/domain"
)

// CreateAppointmentInput carries all data needed to book an appointment.
type CreateAppointmentInput struct {
	PatientID string
	DoctorID  string
	StartTime time.Time
	EndTime   time.Time
	Reason    string
}

// ListAppointmentsInput carries the caller-supplied list parameters; the
// visibility scope is derived from the actor, never from the input.
type ListAppointmentsInput struct {
	Status string
	From   time.Time
	To     time.Time
	Page   int
	Limit  int
}

// ListAppointmentsResult is returned by List.
type ListAppointmentsResult struct {
	Items      []*domain.Appointment
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// AppointmentService defines the appointment lifecycle use-cases. Every
// operation takes the acting user and enforces the authorization matrix
// before touching storage.
type AppointmentService interface {
	Create(ctx context.Context, actor *domain.User, in CreateAppointmentInput) (*domain.Appointment, error)
	Get(ctx context.Context, actor *domain.User, id string) (*domain.Appointment, error)
	List(ctx context.Context, actor *domain.User, in ListAppointmentsInput) (*ListAppointmentsResult, error)
	// Transition moves the appointment to target, enforcing the allowed
	// edges, role rules, and timing preconditions. note is recorded on the
	// appointment (cancel reason, no-show note).
	Transition(ctx context.Context, actor *domain.User, id string, target domain.AppointmentStatus, note string) (*domain.Appointment, error)
	// Reschedule changes the appointment timing and emits a rescheduled event.
	Reschedule(ctx context.Context, actor *domain.User, id string, start, end time.Time) (*domain.Appointment, error)
}
