package notify

import (
	"context"
	"fmt"

	"github.com/hans-clinic/appointment-system/internal/core/domain"
	"github.com/hans-clinic/appointment-system/internal/core/ports"
)

// CompositeSender routes each delivery to the transport registered for its
// channel. It implements ports.Sender.
type CompositeSender struct {
	senders map[domain.NotificationChannel]ports.Sender
}

func NewCompositeSender() *CompositeSender {
	return &CompositeSender{senders: make(map[domain.NotificationChannel]ports.Sender)}
}

// Register binds a transport to a channel, replacing any previous binding.
func (c *CompositeSender) Register(channel domain.NotificationChannel, s ports.Sender) *CompositeSender {
	c.senders[channel] = s
	return c
}

func (c *CompositeSender) Send(ctx context.Context, in ports.SendInput) error {
	s, ok := c.senders[in.Channel]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownChannel, in.Channel)
	}
	return s.Send(ctx, in)
}
