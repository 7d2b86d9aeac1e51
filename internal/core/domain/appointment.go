package domain

import (
	"errors"
	"fmt"
	"time"
)

// AppointmentStatus represents the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCanceled  AppointmentStatus = "canceled"
	StatusCompleted AppointmentStatus = "completed"
	StatusNoShow    AppointmentStatus = "no_show"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCanceled},
	StatusConfirmed: {StatusCanceled, StatusCompleted, StatusNoShow},
}

var ErrValidation = errors.New("validation failed")
var ErrInvalidTransition = errors.New("invalid status transition")
var ErrInvalidState = errors.New("entity not in required state")
var ErrPermissionDenied = errors.New("permission denied")
var ErrAppointmentNotFound = errors.New("appointment not found")

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment is a scheduled meeting between a patient and a doctor.
type Appointment struct {
	ID        string            `json:"id" bson:"_id,omitempty"`
	PatientID string            `json:"patient_id" bson:"patient_id"`
	DoctorID  string            `json:"doctor_id" bson:"doctor_id"`
	StartTime time.Time         `json:"start_time" bson:"start_time"`
	EndTime   time.Time         `json:"end_time" bson:"end_time"`
	Status    AppointmentStatus `json:"status" bson:"status"`
	Reason    string            `json:"reason,omitempty" bson:"reason,omitempty"`
	Notes     string            `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at"`
}

// Validate checks every appointment invariant. It must pass before any
// create or timing-change commit. The timing check is relative to the
// caller-supplied now so rules stay deterministic under test.
func (a *Appointment) Validate(now time.Time) error {
	if a.PatientID == "" || a.DoctorID == "" {
		return fmt.Errorf("%w: patient and doctor are required", ErrValidation)
	}
	if a.PatientID == a.DoctorID {
		return fmt.Errorf("%w: patient and doctor cannot be the same user", ErrValidation)
	}
	if !a.StartTime.Before(a.EndTime) {
		return fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}
	if a.StartTime.Before(now) {
		return fmt.Errorf("%w: start time cannot be in the past", ErrValidation)
	}
	return nil
}

// Duration returns the appointment length in whole minutes (truncated).
func (a *Appointment) Duration() int {
	return int(a.EndTime.Sub(a.StartTime).Minutes())
}

func (a *Appointment) IsUpcoming(now time.Time) bool { return a.StartTime.After(now) }
func (a *Appointment) IsPast(now time.Time) bool     { return a.EndTime.Before(now) }

// CanCancel reports whether the appointment may still be cancelled: it must
// not have started yet and must not already be resolved. An appointment that
// has begun must be closed out as completed or no_show instead.
func (a *Appointment) CanCancel(now time.Time) bool {
	return (a.Status == StatusPending || a.Status == StatusConfirmed) && a.IsUpcoming(now)
}

// OwnedBy satisfies the authz Owned capability: the patient owns the booking.
func (a *Appointment) OwnedBy(userID string) bool { return a.PatientID == userID }

// IsParticipant reports whether userID is the appointment's patient or doctor.
func (a *Appointment) IsParticipant(userID string) bool {
	return a.PatientID == userID || a.DoctorID == userID
}
