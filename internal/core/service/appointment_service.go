package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hans-clinic/appointment-system/internal/core/authz"
	"github.com/hans-clinic/appointment-system/internal/core/domain"
	"github.com/hans-clinic/appointment-system/internal/core/ports"
)

type AppointmentService struct {
	repo    ports.AppointmentRepository
	users   ports.UserRepository
	emitter ports.EventEmitter
	clock   ports.Clock
	logger  zerolog.Logger
}

func NewAppointmentService(
	repo ports.AppointmentRepository,
	users ports.UserRepository,
	emitter ports.EventEmitter,
	clock ports.Clock,
	logger zerolog.Logger,
) *AppointmentService {
	return &AppointmentService{repo: repo, users: users, emitter: emitter, clock: clock, logger: logger}
}

// Create books a new appointment in status pending. The acting user must be
// the patient themselves or an admin booking on their behalf.
func (s *AppointmentService) Create(ctx context.Context, actor *domain.User, in ports.CreateAppointmentInput) (*domain.Appointment, error) {
	if err := authz.CanCreateAppointment(actor, in.PatientID).Err(); err != nil {
		return nil, err
	}

	patient, err := s.users.FindByID(ctx, in.PatientID)
	if err != nil {
		return nil, fmt.Errorf("create appointment: patient: %w", err)
	}
	if !patient.IsPatient() {
		return nil, fmt.Errorf("%w: %s is not a patient", domain.ErrValidation, in.PatientID)
	}
	doctor, err := s.users.FindByID(ctx, in.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("create appointment: doctor: %w", err)
	}
	if !doctor.IsDoctor() {
		return nil, fmt.Errorf("%w: %s is not a doctor", domain.ErrValidation, in.DoctorID)
	}

	now := s.clock.Now()
	appt := &domain.Appointment{
		ID:        uuid.NewString(),
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		StartTime: in.StartTime.UTC(),
		EndTime:   in.EndTime.UTC(),
		Status:    domain.StatusPending,
		Reason:    in.Reason,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := appt.Validate(now); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		s.logger.Error().Err(err).Msg("failed to create appointment")
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", appt.ID).
		Str("patient_id", appt.PatientID).
		Str("doctor_id", appt.DoctorID).
		Time("start_time", appt.StartTime).
		Msg("appointment created")

	s.emitter.Emit(domain.AppointmentEvent{Appointment: appt, Kind: domain.EventCreated, OccurredAt: now})
	return appt, nil
}

// Get returns a single appointment, visible only to admins and participants.
func (s *AppointmentService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Appointment, error) {
	if err := authz.CanManageAppointments(actor, authz.ActionRead).Err(); err != nil {
		return nil, err
	}
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanAccessAppointment(actor, authz.ActionRead, appt).Err(); err != nil {
		return nil, err
	}
	return appt, nil
}

// List returns appointments visible to the actor. The coarse permission
// admits every authenticated caller; the scope filter then restricts
// non-admins to rows they participate in.
func (s *AppointmentService) List(ctx context.Context, actor *domain.User, in ports.ListAppointmentsInput) (*ports.ListAppointmentsResult, error) {
	if err := authz.CanManageAppointments(actor, authz.ActionList).Err(); err != nil {
		return nil, err
	}

	scope := authz.AppointmentScope(actor)
	filter := ports.ListAppointmentsFilter{
		Status: in.Status,
		From:   in.From,
		To:     in.To,
		Page:   in.Page,
		Limit:  in.Limit,
	}
	if !scope.All {
		filter.ParticipantID = scope.ParticipantID
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
	return &ports.ListAppointmentsResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// Transition applies a status change, enforcing the state machine edges,
// per-role rules, and timing preconditions.
func (s *AppointmentService) Transition(ctx context.Context, actor *domain.User, id string, target domain.AppointmentStatus, note string) (*domain.Appointment, error) {
	if err := authz.CanManageAppointments(actor, authz.ActionUpdate).Err(); err != nil {
		return nil, err
	}
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanAccessAppointment(actor, authz.ActionUpdate, appt).Err(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.checkTransition(actor, appt, target, now); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, appt.Status, target, note, now)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", id).
		Str("from", string(appt.Status)).
		Str("to", string(target)).
		Str("actor_id", actor.ID).
		Msg("appointment transitioned")

	switch target {
	case domain.StatusConfirmed:
		s.emitter.Emit(domain.AppointmentEvent{Appointment: updated, Kind: domain.EventConfirmed, OccurredAt: now})
	case domain.StatusCanceled:
		s.emitter.Emit(domain.AppointmentEvent{Appointment: updated, Kind: domain.EventCanceled, OccurredAt: now})
	}
	return updated, nil
}

// checkTransition validates the requested edge against the state machine,
// the actor's role, and the timing preconditions of the target status.
func (s *AppointmentService) checkTransition(actor *domain.User, appt *domain.Appointment, target domain.AppointmentStatus, now time.Time) error {
	if !appt.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, appt.Status, target)
	}

	switch target {
	case domain.StatusConfirmed:
		if !actor.IsDoctor() && !actor.IsAdmin() {
			return fmt.Errorf("%w: only the doctor or an admin can confirm", domain.ErrPermissionDenied)
		}
	case domain.StatusCanceled:
		if !appt.CanCancel(now) {
			return fmt.Errorf("%w: appointment can no longer be cancelled", domain.ErrInvalidState)
		}
	case domain.StatusCompleted:
		if !actor.IsDoctor() && !actor.IsAdmin() {
			return fmt.Errorf("%w: only the doctor or an admin can complete", domain.ErrPermissionDenied)
		}
		if !appt.IsPast(now) {
			return fmt.Errorf("%w: appointment has not ended yet", domain.ErrInvalidState)
		}
	case domain.StatusNoShow:
		if !actor.IsDoctor() && !actor.IsAdmin() {
			return fmt.Errorf("%w: only the doctor or an admin can mark no-show", domain.ErrPermissionDenied)
		}
		if !appt.StartTime.Before(now) {
			return fmt.Errorf("%w: appointment has not started yet", domain.ErrInvalidState)
		}
	default:
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, appt.Status, target)
	}
	return nil
}

// Reschedule rewrites the appointment timing. All entity invariants are
// revalidated against the new times before anything is persisted.
func (s *AppointmentService) Reschedule(ctx context.Context, actor *domain.User, id string, start, end time.Time) (*domain.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanAccessAppointment(actor, authz.ActionUpdate, appt).Err(); err != nil {
		return nil, err
	}
	if appt.Status != domain.StatusPending && appt.Status != domain.StatusConfirmed {
		return nil, fmt.Errorf("%w: cannot reschedule a %s appointment", domain.ErrInvalidState, appt.Status)
	}

	now := s.clock.Now()
	candidate := *appt
	candidate.StartTime = start.UTC()
	candidate.EndTime = end.UTC()
	if err := candidate.Validate(now); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateTiming(ctx, id, candidate.StartTime, candidate.EndTime, now)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", id).
		Time("start_time", candidate.StartTime).
		Time("end_time", candidate.EndTime).
		Msg("appointment rescheduled")

	s.emitter.Emit(domain.AppointmentEvent{Appointment: updated, Kind: domain.EventRescheduled, OccurredAt: now})
	return updated, nil
}
