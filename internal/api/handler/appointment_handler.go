package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hans-clinic/appointment-system/internal/api/metrics"
	"github.com/hans-clinic/appointment-system/internal/core/domain"
	"github.com/hans-clinic/appointment-system/internal/core/ports"
)

// AppointmentHandler handles HTTP requests for appointment operations.
type AppointmentHandler struct {
	service ports.AppointmentService
}

func NewAppointmentHandler(service ports.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

// Create handles POST /v1/appointments.
func (h *AppointmentHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Patients book for themselves unless an explicit patient_id is given.
	patientID := req.PatientID
	if patientID == "" {
		patientID = actor.ID
	}

	appt, err := h.service.Create(c.Request().Context(), actor, ports.CreateAppointmentInput{
		PatientID: patientID,
		DoctorID:  req.DoctorID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	})
	if err != nil {
		return err
	}

	metrics.AppointmentsCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, toAppointmentResponse(appt))
}

// Get handles GET /v1/appointments/:id.
func (h *AppointmentHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	appt, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAppointmentResponse(appt))
}

// List handles GET /v1/appointments. Visibility is scoped to the actor:
// patients and doctors see their own appointments, admins see all.
func (h *AppointmentHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	in := ports.ListAppointmentsInput{
		Status: c.QueryParam("status"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	}
	if from := c.QueryParam("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "from must be RFC3339")
		}
		in.From = t
	}
	if to := c.QueryParam("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "to must be RFC3339")
		}
		in.To = t
	}

	result, err := h.service.List(c.Request().Context(), actor, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListAppointmentsResponse(result))
}

// Confirm handles POST /v1/appointments/:id/confirm.
func (h *AppointmentHandler) Confirm(c echo.Context) error {
	return h.transition(c, domain.StatusConfirmed)
}

// Cancel handles POST /v1/appointments/:id/cancel.
func (h *AppointmentHandler) Cancel(c echo.Context) error {
	return h.transition(c, domain.StatusCanceled)
}

// Complete handles POST /v1/appointments/:id/complete.
func (h *AppointmentHandler) Complete(c echo.Context) error {
	return h.transition(c, domain.StatusCompleted)
}

// NoShow handles POST /v1/appointments/:id/no-show.
func (h *AppointmentHandler) NoShow(c echo.Context) error {
	return h.transition(c, domain.StatusNoShow)
}

func (h *AppointmentHandler) transition(c echo.Context, target domain.AppointmentStatus) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	// The note body is optional on every transition endpoint.
	var req transitionNoteRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
	}

	appt, err := h.service.Transition(c.Request().Context(), actor, c.Param("id"), target, req.Note)
	if err != nil {
		return err
	}

	metrics.AppointmentTransitionsTotal.WithLabelValues(string(target)).Inc()
	return c.JSON(http.StatusOK, toAppointmentResponse(appt))
}

// Reschedule handles POST /v1/appointments/:id/reschedule.
func (h *AppointmentHandler) Reschedule(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req rescheduleAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	appt, err := h.service.Reschedule(c.Request().Context(), actor, c.Param("id"), req.StartTime, req.EndTime)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAppointmentResponse(appt))
}

// queryInt parses an integer query parameter, falling back on absence or
// garbage.
func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
