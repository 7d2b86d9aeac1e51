package handler

import (
	"github.com/hans-clinic/appointment-system/internal/core/domain"
	"github.com/hans-clinic/appointment-system/internal/core/ports"
)

// --- Service result → HTTP response ---

func toAppointmentResponse(a *domain.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		DoctorID:        a.DoctorID,
		StartTime:       a.StartTime.UTC(),
		EndTime:         a.EndTime.UTC(),
		DurationMinutes: a.Duration(),
		Status:          string(a.Status),
		Reason:          a.Reason,
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt.UTC(),
		UpdatedAt:       a.UpdatedAt.UTC(),
	}
}

func toListAppointmentsResponse(r *ports.ListAppointmentsResult) listAppointmentsResponse {
	items := make([]appointmentResponse, len(r.Items))
	for i, a := range r.Items {
		items[i] = toAppointmentResponse(a)
	}
	return listAppointmentsResponse{
		Data: items,
		Pagination: paginationResponse{
			Total:      r.Total,
			Page:       r.Page,
			Limit:      r.Limit,
			TotalPages: r.TotalPages,
		},
	}
}
