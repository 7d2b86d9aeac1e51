// Package poller runs the background delivery loop. The core state machine
// only exposes the pure predicates (due, retryable); this component owns the
// "find work and attempt it" cycle.
package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hans-clinic/appointment-system/internal/core/domain"
	"github.com/hans-clinic/appointment-system/internal/core/ports"
)

const defaultBatchSize = 50

// Config tunes the polling loop.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// Poller periodically dispatches due notifications and retries failed ones
// that still have retry budget.
type Poller struct {
	repo          ports.NotificationRepository
	notifications ports.NotificationService
	clock         ports.Clock
	cfg           Config
	log           zerolog.Logger
}

func New(repo ports.NotificationRepository, notifications ports.NotificationService, clock ports.Clock, cfg Config, log zerolog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = domain.DefaultMaxRetries
	}
	return &Poller{repo: repo, notifications: notifications, clock: clock, cfg: cfg, log: log}
}

// Start runs the loop until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.tick(ctx)
			}
		}
	}()
}

// tick performs one pass: dispatch everything due, then retry what failed.
func (p *Poller) tick(ctx context.Context) {
	now := p.clock.Now()

	due, err := p.repo.FindDue(ctx, now, p.cfg.BatchSize)
	if err != nil {
		p.log.Error().Err(err).Msg("poller: find due notifications failed")
	}
	for _, n := range due {
		if _, err := p.notifications.Dispatch(ctx, n.ID); err != nil {
			// Losing the race with a cancel or another dispatcher is expected.
			p.log.Debug().Err(err).Str("notification_id", n.ID).Msg("poller: dispatch skipped")
		}
	}

	retryable, err := p.repo.FindRetryable(ctx, p.cfg.MaxRetries, p.cfg.BatchSize)
	if err != nil {
		p.log.Error().Err(err).Msg("poller: find retryable notifications failed")
	}
	for _, n := range retryable {
		if _, err := p.notifications.Retry(ctx, nil, n.ID); err != nil {
			p.log.Debug().Err(err).Str("notification_id", n.ID).Msg("poller: retry skipped")
		}
	}

	if len(due) > 0 || len(retryable) > 0 {
		p.log.Info().
			Int("due", len(due)).
			Int("retryable", len(retryable)).
			Msg("poller pass complete")
	}
}
