package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hans-clinic/appointment-system/internal/core/domain"
)

const guardTTL = time.Hour

// ScheduleGuard provides idempotent notification scheduling backed by Redis.
// Key format: notify:<appointment_id>:<type>:<channel>
type ScheduleGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScheduleGuard creates a ScheduleGuard wrapping the given Redis client.
// A non-positive ttl falls back to guardTTL.
func NewScheduleGuard(client *redis.Client, ttl time.Duration) *ScheduleGuard {
	if ttl <= 0 {
		ttl = guardTTL
	}
	return &ScheduleGuard{client: client, ttl: ttl}
}

// Acquire atomically claims the (appointment, type, channel) triple. It
// returns false when another scheduling already claimed it within the TTL.
func (g *ScheduleGuard) Acquire(ctx context.Context, appointmentID string, ntype domain.NotificationType, channel domain.NotificationChannel) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(appointmentID, ntype, channel), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("schedule guard: %w", err)
	}
	return ok, nil
}

func (g *ScheduleGuard) key(appointmentID string, ntype domain.NotificationType, channel domain.NotificationChannel) string {
	return fmt.Sprintf("notify:%s:%s:%s", appointmentID, ntype, channel)
}
