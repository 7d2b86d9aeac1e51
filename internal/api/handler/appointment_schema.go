package handler

import "time"

// --- Request types ---

type createAppointmentRequest struct {
	// PatientID may be omitted by patients booking for themselves; admins
	// must supply it when booking on a patient's behalf.
	PatientID string    `json:"patient_id"`
	DoctorID  string    `json:"doctor_id"  validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time"   validate:"required"`
	Reason    string    `json:"reason"`
}

type rescheduleAppointmentRequest struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time"   validate:"required"`
}

type transitionNoteRequest struct {
	Note string `json:"note"`
}

// --- Response types ---
// Owned by the transport layer so the JSON contract is not coupled to
// internal domain changes.

type appointmentResponse struct {
	ID              string    `json:"id"`
	PatientID       string    `json:"patient_id"`
	DoctorID        string    `json:"doctor_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Reason          string    `json:"reason,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listAppointmentsResponse struct {
	Data       []appointmentResponse `json:"data"`
	Pagination paginationResponse    `json:"pagination"`
}
