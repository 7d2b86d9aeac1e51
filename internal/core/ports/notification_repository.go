package ports

import (
	"context"
	"time"

	"github.com/hans-clinic/appointment-system/internal/core/domain"
)

// ListNotificationsFilter narrows notification queries.
type ListNotificationsFilter struct {
	UserID        string
	AppointmentID string
	Status        string
	Channel       string
	Page          int
	Limit         int
}

// NotificationRepository persists notifications. The Mark* methods are
// atomic conditional writes: they match on the current status and report
// whether a document was updated. A false return means the notification
// moved state concurrently (e.g. was canceled while a send was in flight)
// and the caller's result must be discarded.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	FindByID(ctx context.Context, id string) (*domain.Notification, error)
	List(ctx context.Context, f ListNotificationsFilter) ([]*domain.Notification, int64, error)

	// FindDue returns scheduled notifications whose scheduled_at is absent
	// or has passed, oldest first.
	FindDue(ctx context.Context, now time.Time, limit int) ([]*domain.Notification, error)
	// FindRetryable returns failed notifications with retry budget left.
	FindRetryable(ctx context.Context, maxRetries, limit int) ([]*domain.Notification, error)

	// MarkSent sets status=sent and sent_at in one write, only while the
	// notification is still scheduled or failed.
	MarkSent(ctx context.Context, id string, now time.Time) (bool, error)
	// MarkFailed sets status=failed and error_message, only while scheduled
	// or failed. retry_count is untouched.
	MarkFailed(ctx context.Context, id, errMsg string, now time.Time) (bool, error)
	// MarkCanceled sets status=canceled, only while scheduled.
	MarkCanceled(ctx context.Context, id string, now time.Time) (bool, error)
	// IncrementRetry bumps retry_count by one, only while failed and below
	// maxRetries.
	IncrementRetry(ctx context.Context, id string, maxRetries int, now time.Time) (bool, error)
}
