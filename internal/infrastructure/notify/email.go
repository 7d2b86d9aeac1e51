package notify

import (
	"context"
	"fmt"

	"github.com/go-gomail/gomail"
	"github.com/rs/zerolog"

	"github.com/hans-clinic/appointment-system/internal/core/ports"
)

// SMTPConfig captures the settings for the email transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailSender delivers notifications over SMTP.
type EmailSender struct {
	dialer *gomail.Dialer
	from   string
	log    zerolog.Logger
}

// NewEmailSender builds an EmailSender from SMTP settings. The dialer is
// lazy: no connection is made until the first Send.
func NewEmailSender(cfg SMTPConfig, log zerolog.Logger) *EmailSender {
	return &EmailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		log:    log.With().Str("sender", "email").Logger(),
	}
}

func (s *EmailSender) Send(_ context.Context, in ports.SendInput) error {
	if in.Recipient.Email == "" {
		return fmt.Errorf("recipient %s has no email address", in.Recipient.ID)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", in.Recipient.Email)
	m.SetHeader("Subject", in.Subject)
	m.SetBody("text/plain", in.Message)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.log.Debug().Str("to", in.Recipient.Email).Str("subject", in.Subject).Msg("email sent")
	return nil
}
