package notify

import (
	"context"
	"time"

	"github.com/hans-clinic/appointment-system/internal/api/metrics"
	"github.com/hans-clinic/appointment-system/internal/core/ports"
)

// InstrumentedSender decorates a Sender with Prometheus delivery metrics.
type InstrumentedSender struct {
	next ports.Sender
}

func NewInstrumentedSender(next ports.Sender) *InstrumentedSender {
	return &InstrumentedSender{next: next}
}

func (s *InstrumentedSender) Send(ctx context.Context, in ports.SendInput) error {
	start := time.Now()
	err := s.next.Send(ctx, in)
	channel := string(in.Channel)

	metrics.DispatchDuration.WithLabelValues(channel).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues(channel).Inc()
		return err
	}
	metrics.NotificationsSentTotal.WithLabelValues(channel).Inc()
	return nil
}
