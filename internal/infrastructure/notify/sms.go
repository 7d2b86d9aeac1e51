package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/hans-clinic/appointment-system/internal/core/ports"
)

// TwilioConfig captures the settings for the SMS transport.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

// SMSSender delivers notifications via the Twilio messaging API.
type SMSSender struct {
	client *twilio.RestClient
	from   string
	log    zerolog.Logger
}

func NewSMSSender(cfg TwilioConfig, log zerolog.Logger) *SMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &SMSSender{
		client: client,
		from:   cfg.From,
		log:    log.With().Str("sender", "sms").Logger(),
	}
}

func (s *SMSSender) Send(_ context.Context, in ports.SendInput) error {
	if in.Recipient.Phone == "" {
		return fmt.Errorf("recipient %s has no phone number", in.Recipient.ID)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(in.Recipient.Phone)
	params.SetFrom(s.from)
	params.SetBody(in.Message)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}

	s.log.Debug().Str("to", in.Recipient.Phone).Msg("sms sent")
	return nil
}
