package domain

import (
	"errors"
	"time"
)

// NotificationChannel is the delivery medium for a notification.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
	ChannelPush  NotificationChannel = "push"
)

// NotificationType classifies what a notification is about.
type NotificationType string

const (
	TypeAppointmentConfirmation NotificationType = "appointment_confirmation"
	TypeAppointmentReminder     NotificationType = "appointment_reminder"
	TypeAppointmentCancellation NotificationType = "appointment_cancellation"
	TypeAppointmentUpdate       NotificationType = "appointment_update"
)

// NotificationStatus represents the delivery state of a notification.
type NotificationStatus string

const (
	NotificationScheduled NotificationStatus = "scheduled"
	NotificationSent      NotificationStatus = "sent"
	NotificationFailed    NotificationStatus = "failed"
	NotificationCanceled  NotificationStatus = "canceled"
)

// DefaultMaxRetries bounds how many retry attempts a failed notification gets.
const DefaultMaxRetries = 3

var ErrNotificationNotFound = errors.New("notification not found")
var ErrUnknownChannel = errors.New("unknown notification channel")

// Notification is a single message queued for delivery over one channel.
type Notification struct {
	ID            string              `json:"id" bson:"_id,omitempty"`
	UserID        string              `json:"user_id" bson:"user_id"`
	Channel       NotificationChannel `json:"channel" bson:"channel"`
	AppointmentID string              `json:"appointment_id,omitempty" bson:"appointment_id,omitempty"`
	Type          NotificationType    `json:"notification_type" bson:"notification_type"`
	Subject       string              `json:"subject,omitempty" bson:"subject,omitempty"`
	Message       string              `json:"message" bson:"message"`
	Payload       map[string]string   `json:"payload,omitempty" bson:"payload,omitempty"`
	ScheduledAt   *time.Time          `json:"scheduled_at,omitempty" bson:"scheduled_at,omitempty"`
	SentAt        *time.Time          `json:"sent_at,omitempty" bson:"sent_at,omitempty"`
	Status        NotificationStatus  `json:"status" bson:"status"`
	ErrorMessage  string              `json:"error_message,omitempty" bson:"error_message,omitempty"`
	RetryCount    int                 `json:"retry_count" bson:"retry_count"`
	CreatedAt     time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" bson:"updated_at"`
}

// IsDue reports whether the notification should be delivered now. A missing
// scheduled_at means "immediately due". Only scheduled notifications are
// ever due.
func (n *Notification) IsDue(now time.Time) bool {
	if n.Status != NotificationScheduled {
		return false
	}
	return n.ScheduledAt == nil || !n.ScheduledAt.After(now)
}

// CanRetry reports whether a failed notification has retry budget left.
func (n *Notification) CanRetry(maxRetries int) bool {
	return n.Status == NotificationFailed && n.RetryCount < maxRetries
}

// IsTerminal reports whether no further transition is defined for the
// notification: sent and canceled always, failed once retries are exhausted.
func (n *Notification) IsTerminal(maxRetries int) bool {
	switch n.Status {
	case NotificationSent, NotificationCanceled:
		return true
	case NotificationFailed:
		return n.RetryCount >= maxRetries
	}
	return false
}

// OwnedBy satisfies the authz Owned capability: the recipient owns it.
func (n *Notification) OwnedBy(userID string) bool { return n.UserID == userID }
