package ports

import (
	"context"

	"github.com/hans-clinic/appointment-system/internal/core/domain"
)

// SendInput carries everything a channel transport needs for one delivery.
type SendInput struct {
	Channel   domain.NotificationChannel
	Recipient *domain.User
	Subject   string
	Message   string
	Payload   map[string]string
}

// Sender performs the actual channel delivery (email, SMS, push). A non-nil
// error is a transport failure; the dispatcher absorbs it into the
// notification's state rather than surfacing it.
type Sender interface {
	Send(ctx context.Context, in SendInput) error
}
