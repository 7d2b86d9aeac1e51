package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hans-clinic/appointment-system/internal/api/metrics"
	"github.com/hans-clinic/appointment-system/internal/core/domain"
	"github.com/hans-clinic/appointment-system/internal/core/ports"
)

// NotificationHandler handles HTTP requests for notification operations.
type NotificationHandler struct {
	service ports.NotificationService
}

func NewNotificationHandler(service ports.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

type scheduleNotificationRequest struct {
	UserID        string            `json:"user_id"      validate:"required"`
	Channel       string            `json:"channel"      validate:"required,oneof=email sms push"`
	Type          string            `json:"type"         validate:"required"`
	Subject       string            `json:"subject"`
	Message       string            `json:"message"      validate:"required"`
	Payload       map[string]string `json:"payload"`
	AppointmentID string            `json:"appointment_id"`
	ScheduledAt   *time.Time        `json:"scheduled_at"`
}

type notificationResponse struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id"`
	Channel       string            `json:"channel"`
	AppointmentID string            `json:"appointment_id,omitempty"`
	Type          string            `json:"notification_type"`
	Subject       string            `json:"subject,omitempty"`
	Message       string            `json:"message"`
	Payload       map[string]string `json:"payload,omitempty"`
	ScheduledAt   *time.Time        `json:"scheduled_at,omitempty"`
	SentAt        *time.Time        `json:"sent_at,omitempty"`
	Status        string            `json:"status"`
	ErrorMessage  string            `json:"error_message,omitempty"`
	RetryCount    int               `json:"retry_count"`
	CreatedAt     time.Time         `json:"created_at"`
}

type listNotificationsResponse struct {
	Data       []notificationResponse `json:"data"`
	Pagination paginationResponse     `json:"pagination"`
}

// Schedule handles POST /v1/notifications. Admin only; routine
// notifications are queued by the appointment event dispatcher instead.
func (h *NotificationHandler) Schedule(c echo.Context) error {
	var req scheduleNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	n, err := h.service.Schedule(c.Request().Context(), ports.ScheduleNotificationInput{
		UserID:        req.UserID,
		Channel:       domain.NotificationChannel(req.Channel),
		Type:          domain.NotificationType(req.Type),
		Subject:       req.Subject,
		Message:       req.Message,
		Payload:       req.Payload,
		AppointmentID: req.AppointmentID,
		ScheduledAt:   req.ScheduledAt,
	})
	if err != nil {
		return err
	}

	metrics.NotificationsScheduledTotal.WithLabelValues(string(n.Type), string(n.Channel)).Inc()
	return c.JSON(http.StatusCreated, toNotificationResponse(n))
}

// Get handles GET /v1/notifications/:id.
func (h *NotificationHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	n, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toNotificationResponse(n))
}

// List handles GET /v1/notifications. Non-admin callers only ever see
// their own notifications regardless of the user_id filter.
func (h *NotificationHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	result, err := h.service.List(c.Request().Context(), actor, ports.ListNotificationsInput{
		UserID:        c.QueryParam("user_id"),
		AppointmentID: c.QueryParam("appointment_id"),
		Status:        c.QueryParam("status"),
		Channel:       c.QueryParam("channel"),
		Page:          queryInt(c, "page", 1),
		Limit:         queryInt(c, "limit", 20),
	})
	if err != nil {
		return err
	}

	items := make([]notificationResponse, len(result.Items))
	for i, n := range result.Items {
		items[i] = toNotificationResponse(n)
	}
	return c.JSON(http.StatusOK, listNotificationsResponse{
		Data: items,
		Pagination: paginationResponse{
			Total:      result.Total,
			Page:       result.Page,
			Limit:      result.Limit,
			TotalPages: result.TotalPages,
		},
	})
}

// Retry handles POST /v1/notifications/:id/retry.
func (h *NotificationHandler) Retry(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	n, err := h.service.Retry(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toNotificationResponse(n))
}

// Cancel handles POST /v1/notifications/:id/cancel.
func (h *NotificationHandler) Cancel(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	n, err := h.service.Cancel(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toNotificationResponse(n))
}

func toNotificationResponse(n *domain.Notification) notificationResponse {
	return notificationResponse{
		ID:            n.ID,
		UserID:        n.UserID,
		Channel:       string(n.Channel),
		AppointmentID: n.AppointmentID,
		Type:          string(n.Type),
		Subject:       n.Subject,
		Message:       n.Message,
		Payload:       n.Payload,
		ScheduledAt:   n.ScheduledAt,
		SentAt:        n.SentAt,
		Status:        string(n.Status),
		ErrorMessage:  n.ErrorMessage,
		RetryCount:    n.RetryCount,
		CreatedAt:     n.CreatedAt,
	}
}
