package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hans-clinic/appointment-system/internal/core/authz"
	"github.com/hans-clinic/appointment-system/internal/core/domain"
	"github.com/hans-clinic/appointment-system/internal/core/ports"
)

var knownChannels = map[domain.NotificationChannel]struct{}{
	domain.ChannelEmail: {},
	domain.ChannelSMS:   {},
	domain.ChannelPush:  {},
}

type NotificationService struct {
	repo       ports.NotificationRepository
	users      ports.UserRepository
	sender     ports.Sender
	clock      ports.Clock
	maxRetries int
	log        zerolog.Logger
}

func NewNotificationService(
	repo ports.NotificationRepository,
	users ports.UserRepository,
	sender ports.Sender,
	clock ports.Clock,
	maxRetries int,
	log zerolog.Logger,
) *NotificationService {
	if maxRetries <= 0 {
		maxRetries = domain.DefaultMaxRetries
	}
	return &NotificationService{repo: repo, users: users, sender: sender, clock: clock, maxRetries: maxRetries, log: log}
}

// Schedule queues a new notification. All validation happens before the
// write; a nil scheduled_at means immediately due.
func (s *NotificationService) Schedule(ctx context.Context, in ports.ScheduleNotificationInput) (*domain.Notification, error) {
	if _, ok := knownChannels[in.Channel]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownChannel, in.Channel)
	}
	if in.Message == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	if _, err := s.users.FindByID(ctx, in.UserID); err != nil {
		return nil, fmt.Errorf("schedule notification: recipient: %w", err)
	}

	now := s.clock.Now()
	n := &domain.Notification{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		Channel:       in.Channel,
		AppointmentID: in.AppointmentID,
		Type:          in.Type,
		Subject:       in.Subject,
		Message:       in.Message,
		Payload:       in.Payload,
		ScheduledAt:   in.ScheduledAt,
		Status:        domain.NotificationScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.log.Error().Err(err).Str("user_id", in.UserID).Msg("failed to schedule notification")
		return nil, err
	}

	s.log.Info().
		Str("notification_id", n.ID).
		Str("user_id", n.UserID).
		Str("channel", string(n.Channel)).
		Str("type", string(n.Type)).
		Msg("notification scheduled")
	return n, nil
}

func (s *NotificationService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanAccessNotification(actor, authz.ActionRead, n).Err(); err != nil {
		return nil, err
	}
	return n, nil
}

// List returns notifications visible to the actor; non-admins only see
// their own.
func (s *NotificationService) List(ctx context.Context, actor *domain.User, in ports.ListNotificationsInput) (*ports.ListNotificationsResult, error) {
	scope := authz.NotificationScope(actor)
	filter := ports.ListNotificationsFilter{
		UserID:        in.UserID,
		AppointmentID: in.AppointmentID,
		Status:        in.Status,
		Channel:       in.Channel,
		Page:          in.Page,
		Limit:         in.Limit,
	}
	if !scope.All {
		filter.UserID = scope.ParticipantID
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	totalPages := int(total) / filter.Limit
	if int(total)%filter.Limit != 0 {
		totalPages++
	}
	return &ports.ListNotificationsResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// Dispatch attempts delivery of a scheduled, due notification. Transport
// failures are absorbed into the entity state (status=failed), never
// returned to the caller.
func (s *NotificationService) Dispatch(ctx context.Context, id string) (*domain.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status != domain.NotificationScheduled {
		return nil, fmt.Errorf("%w: notification is %s, not scheduled", domain.ErrInvalidState, n.Status)
	}
	now := s.clock.Now()
	if !n.IsDue(now) {
		return nil, fmt.Errorf("%w: notification is not due until %s", domain.ErrInvalidState, n.ScheduledAt)
	}
	return s.attempt(ctx, n)
}

// Retry re-attempts delivery of a failed notification. The retry counter is
// incremented with a conditional write before the attempt, so concurrent
// retries cannot exceed the budget. A nil actor is a system caller (poller).
func (s *NotificationService) Retry(ctx context.Context, actor *domain.User, id string) (*domain.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil {
		if err := authz.CanAccessNotification(actor, authz.ActionUpdate, n).Err(); err != nil {
			return nil, err
		}
	}
	if !n.CanRetry(s.maxRetries) {
		return nil, fmt.Errorf("%w: notification is not retryable (status=%s, retry_count=%d)", domain.ErrInvalidState, n.Status, n.RetryCount)
	}

	ok, err := s.repo.IncrementRetry(ctx, id, s.maxRetries, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: retry budget consumed concurrently", domain.ErrInvalidState)
	}

	n, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.attempt(ctx, n)
}

// Cancel transitions a scheduled notification to canceled. Calling it on a
// notification in any other state is an invalid-state error.
func (s *NotificationService) Cancel(ctx context.Context, actor *domain.User, id string) (*domain.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil {
		if err := authz.CanAccessNotification(actor, authz.ActionUpdate, n).Err(); err != nil {
			return nil, err
		}
	}

	ok, err := s.repo.MarkCanceled(ctx, id, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: notification is %s, not scheduled", domain.ErrInvalidState, n.Status)
	}

	s.log.Info().Str("notification_id", id).Msg("notification canceled")
	return s.repo.FindByID(ctx, id)
}

// attempt performs one delivery and commits the outcome. No entity lock is
// held across the Sender call: the outcome commit is a conditional write,
// and when it matches nothing (the notification was canceled in flight) the
// delivery result is discarded and the cancellation wins.
func (s *NotificationService) attempt(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	recipient, err := s.users.FindByID(ctx, n.UserID)
	if err != nil {
		return nil, fmt.Errorf("dispatch: recipient: %w", err)
	}

	sendErr := s.sender.Send(ctx, ports.SendInput{
		Channel:   n.Channel,
		Recipient: recipient,
		Subject:   n.Subject,
		Message:   n.Message,
		Payload:   n.Payload,
	})

	now := s.clock.Now()
	if sendErr != nil {
		ok, err := s.repo.MarkFailed(ctx, n.ID, sendErr.Error(), now)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.log.Debug().Str("notification_id", n.ID).Msg("failure result discarded, notification no longer pending")
		} else {
			s.log.Warn().
				Err(sendErr).
				Str("notification_id", n.ID).
				Str("channel", string(n.Channel)).
				Int("retry_count", n.RetryCount).
				Msg("notification delivery failed")
		}
		return s.repo.FindByID(ctx, n.ID)
	}

	ok, err := s.repo.MarkSent(ctx, n.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.log.Debug().Str("notification_id", n.ID).Msg("send result discarded, notification no longer pending")
	} else {
		s.log.Info().
			Str("notification_id", n.ID).
			Str("channel", string(n.Channel)).
			Msg("notification sent")
	}
	return s.repo.FindByID(ctx, n.ID)
}
