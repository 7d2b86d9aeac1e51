package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/hans-clinic/appointment-system/internal/core/domain"
	"github.com/hans-clinic/appointment-system/internal/core/ports"
)

type recordingSender struct {
	calls int
	err   error
}

func (r *recordingSender) Send(context.Context, ports.SendInput) error {
	r.calls++
	return r.err
}

func TestCompositeSenderRoutesByChannel(t *testing.T) {
	email := &recordingSender{}
	sms := &recordingSender{}

	c := NewCompositeSender().
		Register(domain.ChannelEmail, email).
		Register(domain.ChannelSMS, sms)

	if err := c.Send(context.Background(), ports.SendInput{Channel: domain.ChannelSMS}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sms.calls != 1 || email.calls != 0 {
		t.Fatalf("expected sms sender only, got sms=%d email=%d", sms.calls, email.calls)
	}
}

func TestCompositeSenderUnknownChannel(t *testing.T) {
	c := NewCompositeSender()

	err := c.Send(context.Background(), ports.SendInput{Channel: domain.ChannelPush})
	if !errors.Is(err, domain.ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
}

func TestCompositeSenderPropagatesTransportError(t *testing.T) {
	boom := errors.New("smtp down")
	c := NewCompositeSender().Register(domain.ChannelEmail, &recordingSender{err: boom})

	if err := c.Send(context.Background(), ports.SendInput{Channel: domain.ChannelEmail}); !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
