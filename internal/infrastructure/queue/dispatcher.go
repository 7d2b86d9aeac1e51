package queue

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"

	"github.com/hans-clinic/appointment-system/internal/api/metrics"
	"github.com/hans-clinic/appointment-system/internal/core/domain"
	"github.com/hans-clinic/appointment-system/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ScheduleGuard deduplicates notification scheduling (Redis-backed). Acquire
// returns false when a notification for this (appointment, type, channel)
// triple was already scheduled recently.
type ScheduleGuard interface {
	Acquire(ctx context.Context, appointmentID string, ntype domain.NotificationType, channel domain.NotificationChannel) (bool, error)
}

// Config tunes the dispatcher. ReminderLead > 0 additionally schedules an
// appointment reminder that far ahead of a confirmed appointment's start.
type Config struct {
	Workers         int
	Routes          Routes
	ReminderLead    time.Duration
	ReminderChannel domain.NotificationChannel
}

// Dispatcher routes appointment events to a fixed set of workers using
// consistent hashing on the appointment id, guaranteeing per-appointment
// event ordering. It implements ports.EventEmitter.
type Dispatcher struct {
	workers       []chan domain.AppointmentEvent
	notifications ports.NotificationService
	guard         ScheduleGuard
	cfg           Config
	clock         ports.Clock
	log           zerolog.Logger
}

// NewDispatcher creates a Dispatcher with cfg.Workers sharded workers.
// If cfg.Workers <= 0, defaultWorkers is used.
func NewDispatcher(cfg Config, notifications ports.NotificationService, guard ScheduleGuard, clock ports.Clock, log zerolog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Routes == nil {
		cfg.Routes = DefaultRoutes()
	}
	if cfg.ReminderChannel == "" {
		cfg.ReminderChannel = domain.ChannelEmail
	}
	d := &Dispatcher{
		workers:       make([]chan domain.AppointmentEvent, cfg.Workers),
		notifications: notifications,
		guard:         guard,
		cfg:           cfg,
		clock:         clock,
		log:           log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AppointmentEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Emit sends an event to the worker responsible for its appointment.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Emit(event domain.AppointmentEvent) {
	d.workers[d.shardIndex(event.Appointment.ID)] <- event
}

// shardIndex maps an appointment id deterministically to a worker index.
func (d *Dispatcher) shardIndex(appointmentID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(appointmentID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AppointmentEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.handle(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("appointment_id", event.Appointment.ID).
					Str("event_kind", string(event.Kind)).
					Int("worker_id", id).
					Msg("event handling failed")
			}
		}
	}
}

// handle schedules the notification bound to the event kind, plus a
// reminder ahead of start time for confirmations.
func (d *Dispatcher) handle(ctx context.Context, event domain.AppointmentEvent) error {
	appt := event.Appointment

	route, ok := d.cfg.Routes[event.Kind]
	if !ok {
		d.log.Debug().Str("event_kind", string(event.Kind)).Msg("no route for event, skipped")
		return nil
	}

	if err := d.schedule(ctx, appt, route, nil); err != nil {
		return err
	}

	if event.Kind == domain.EventConfirmed && d.cfg.ReminderLead > 0 {
		remindAt := appt.StartTime.Add(-d.cfg.ReminderLead)
		if remindAt.After(d.clock.Now()) {
			reminder := Route{
				Type:    domain.TypeAppointmentReminder,
				Channel: d.cfg.ReminderChannel,
				Subject: "Upcoming appointment reminder",
			}
			if err := d.schedule(ctx, appt, reminder, &remindAt); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Dispatcher) schedule(ctx context.Context, appt *domain.Appointment, route Route, at *time.Time) error {
	// Dedup check first — a replayed event must not double-notify.
	acquired, err := d.guard.Acquire(ctx, appt.ID, route.Type, route.Channel)
	if err != nil {
		d.log.Warn().Err(err).Str("appointment_id", appt.ID).Msg("schedule guard failed, scheduling anyway")
	} else if !acquired {
		d.log.Debug().
			Str("appointment_id", appt.ID).
			Str("type", string(route.Type)).
			Msg("duplicate notification skipped")
		return nil
	}

	_, err = d.notifications.Schedule(ctx, ports.ScheduleNotificationInput{
		UserID:        appt.PatientID,
		Channel:       route.Channel,
		Type:          route.Type,
		Subject:       route.Subject,
		Message:       composeMessage(route.Type, appt),
		AppointmentID: appt.ID,
		ScheduledAt:   at,
		Payload: map[string]string{
			"appointment_id": appt.ID,
			"start_time":     appt.StartTime.Format(time.RFC3339),
			"end_time":       appt.EndTime.Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("schedule %s for appointment %s: %w", route.Type, appt.ID, err)
	}
	metrics.NotificationsScheduledTotal.WithLabelValues(string(route.Type), string(route.Channel)).Inc()
	return nil
}

func composeMessage(t domain.NotificationType, appt *domain.Appointment) string {
	when := appt.StartTime.Format("Monday, 2 Jan 2006 at 15:04")
	switch t {
	case domain.TypeAppointmentConfirmation:
		return fmt.Sprintf("Your appointment on %s has been confirmed.", when)
	case domain.TypeAppointmentCancellation:
		return fmt.Sprintf("Your appointment on %s has been canceled.", when)
	case domain.TypeAppointmentReminder:
		return fmt.Sprintf("Reminder: you have an appointment on %s.", when)
	default:
		return fmt.Sprintf("Your appointment on %s has been updated.", when)
	}
}
