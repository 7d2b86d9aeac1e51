package ports

import (
	"context"
	"time"

	"github.com/hans-clinic/appointment-system/internal/core/domain"
)

// ScheduleNotificationInput carries all data to queue a notification.
// A nil ScheduledAt means the notification is immediately due.
type ScheduleNotificationInput struct {
	UserID        string
	Channel       domain.NotificationChannel
	Type          domain.NotificationType
	Subject       string
	Message       string
	Payload       map[string]string
	AppointmentID string
	ScheduledAt   *time.Time
}

// ListNotificationsInput carries caller-supplied list parameters.
type ListNotificationsInput struct {
	UserID        string
	AppointmentID string
	Status        string
	Channel       string
	Page          int
	Limit         int
}

// ListNotificationsResult is returned by List.
type ListNotificationsResult struct {
	Items      []*domain.Notification
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// NotificationService owns the notification delivery state machine.
//
// Dispatch and Retry return the notification reflecting the attempt outcome.
// A transport failure is not an error to the caller: it is recorded on the
// entity as status=failed with error_message set.
type NotificationService interface {
	// Schedule queues a new notification in status scheduled. It is invoked
	// by the event dispatcher and by the admin scheduling endpoint.
	Schedule(ctx context.Context, in ScheduleNotificationInput) (*domain.Notification, error)
	Get(ctx context.Context, actor *domain.User, id string) (*domain.Notification, error)
	List(ctx context.Context, actor *domain.User, in ListNotificationsInput) (*ListNotificationsResult, error)

	// Dispatch attempts delivery of a scheduled, due notification.
	Dispatch(ctx context.Context, id string) (*domain.Notification, error)
	// Retry re-attempts a failed notification with retry budget left,
	// incrementing retry_count first.
	Retry(ctx context.Context, actor *domain.User, id string) (*domain.Notification, error)
	// Cancel transitions a scheduled notification to canceled.
	Cancel(ctx context.Context, actor *domain.User, id string) (*domain.Notification, error)
}
