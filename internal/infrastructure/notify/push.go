package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hans-clinic/appointment-system/internal/core/ports"
)

const pushTimeout = 10 * time.Second

// PushConfig captures the settings for the push transport.
type PushConfig struct {
	WebhookURL string
}

// PushSender delivers notifications by POSTing a JSON payload to the
// configured push gateway. The recipient's PushEndpoint is forwarded so the
// gateway can address the device.
type PushSender struct {
	client *http.Client
	url    string
	log    zerolog.Logger
}

func NewPushSender(cfg PushConfig, log zerolog.Logger) *PushSender {
	return &PushSender{
		client: &http.Client{Timeout: pushTimeout},
		url:    cfg.WebhookURL,
		log:    log.With().Str("sender", "push").Logger(),
	}
}

type pushRequest struct {
	Endpoint string            `json:"endpoint"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
}

func (s *PushSender) Send(ctx context.Context, in ports.SendInput) error {
	if in.Recipient.PushEndpoint == "" {
		return fmt.Errorf("recipient %s has no push endpoint", in.Recipient.ID)
	}

	body, err := json.Marshal(pushRequest{
		Endpoint: in.Recipient.PushEndpoint,
		Title:    in.Subject,
		Body:     in.Message,
		Data:     in.Payload,
	})
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("push gateway responded %d", resp.StatusCode)
	}

	s.log.Debug().Str("endpoint", in.Recipient.PushEndpoint).Msg("push sent")
	return nil
}
