package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hans-clinic/appointment-system/internal/core/domain"
	"github.com/hans-clinic/appointment-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Shared test fixtures
// ---------------------------------------------------------------------------

var testNow = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

var (
	testPatient = &domain.User{ID: "u_p1", Username: "pat", Role: domain.RolePatient, Email: "pat@example.com"}
	otherPat    = &domain.User{ID: "u_p2", Username: "pat2", Role: domain.RolePatient}
	testDoctor  = &domain.User{ID: "u_d1", Username: "doc", Role: domain.RoleDoctor, Email: "doc@example.com"}
	otherDoc    = &domain.User{ID: "u_d2", Username: "doc2", Role: domain.RoleDoctor}
	testAdmin   = &domain.User{ID: "u_a1", Username: "adm", Role: domain.RoleAdmin}
)

type stubUserRepo struct {
	byID map[string]*domain.User
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{byID: make(map[string]*domain.User)}
	for _, u := range users {
		r.byID[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	for _, existing := range r.byID {
		if existing.Username == u.Username {
			return nil, domain.ErrUserExists
		}
	}
	clone := *u
	r.byID[u.ID] = &clone
	return &clone, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

type stubAppointmentRepo struct {
	byID      map[string]*domain.Appointment
	createErr error
}

func newStubAppointmentRepo() *stubAppointmentRepo {
	return &stubAppointmentRepo{byID: make(map[string]*domain.Appointment)}
}

func (r *stubAppointmentRepo) Create(_ context.Context, a *domain.Appointment) error {
	if r.createErr != nil {
		return r.createErr
	}
	clone := *a
	r.byID[a.ID] = &clone
	return nil
}

func (r *stubAppointmentRepo) FindByID(_ context.Context, id string) (*domain.Appointment, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	clone := *a
	return &clone, nil
}

// List applies the same filters the real Mongo repo would use.
func (r *stubAppointmentRepo) List(_ context.Context, f ports.ListAppointmentsFilter) ([]*domain.Appointment, int64, error) {
	var matched []*domain.Appointment
	for _, a := range r.byID {
		if f.ParticipantID != "" && !a.IsParticipant(f.ParticipantID) {
			continue
		}
		if f.Status != "" && string(a.Status) != f.Status {
			continue
		}
		if !f.From.IsZero() && a.StartTime.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && a.StartTime.After(f.To) {
			continue
		}
		clone := *a
		matched = append(matched, &clone)
	}
	return matched, int64(len(matched)), nil
}

func (r *stubAppointmentRepo) UpdateStatus(_ context.Context, id string, expect, target domain.AppointmentStatus, note string, now time.Time) (*domain.Appointment, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	if a.Status != expect {
		return nil, domain.ErrInvalidState
	}
	a.Status = target
	if note != "" {
		a.Notes = note
	}
	a.UpdatedAt = now
	clone := *a
	return &clone, nil
}

func (r *stubAppointmentRepo) UpdateTiming(_ context.Context, id string, start, end time.Time, now time.Time) (*domain.Appointment, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	a.StartTime = start
	a.EndTime = end
	a.UpdatedAt = now
	clone := *a
	return &clone, nil
}

type recordingEmitter struct {
	events []domain.AppointmentEvent
}

func (e *recordingEmitter) Emit(ev domain.AppointmentEvent) {
	e.events = append(e.events, ev)
}

func newApptSvc(repo *stubAppointmentRepo, users *stubUserRepo, emitter *recordingEmitter) *AppointmentService {
	return NewAppointmentService(repo, users, emitter, &fakeClock{now: testNow}, zerolog.Nop())
}

func seededAppointment(repo *stubAppointmentRepo, status domain.AppointmentStatus) *domain.Appointment {
	a := &domain.Appointment{
		ID:        "appt_1",
		PatientID: testPatient.ID,
		DoctorID:  testDoctor.ID,
		StartTime: testNow.Add(25 * time.Hour),
		EndTime:   testNow.Add(25*time.Hour + 30*time.Minute),
		Status:    status,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	repo.byID[a.ID] = a
	return a
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestAppointmentService_Create_HappyPath(t *testing.T) {
	repo := newStubAppointmentRepo()
	emitter := &recordingEmitter{}
	svc := newApptSvc(repo, newStubUserRepo(testPatient, testDoctor), emitter)

	// Tomorrow 10:00 - 10:30.
	start := testNow.Add(25 * time.Hour)
	appt, err := svc.Create(context.Background(), testPatient, ports.CreateAppointmentInput{
		PatientID: testPatient.ID,
		DoctorID:  testDoctor.ID,
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		Reason:    "checkup",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if appt.Status != domain.StatusPending {
		t.Errorf("expected pending, got %s", appt.Status)
	}
	if appt.Duration() != 30 {
		t.Errorf("expected duration 30, got %d", appt.Duration())
	}
	if len(emitter.events) != 1 || emitter.events[0].Kind != domain.EventCreated {
		t.Errorf("expected created event, got %+v", emitter.events)
	}
}

func TestAppointmentService_Create_AdminOnBehalf(t *testing.T) {
	repo := newStubAppointmentRepo()
	svc := newApptSvc(repo, newStubUserRepo(testPatient, testDoctor), &recordingEmitter{})

	start := testNow.Add(time.Hour)
	if _, err := svc.Create(context.Background(), testAdmin, ports.CreateAppointmentInput{
		PatientID: testPatient.ID,
		DoctorID:  testDoctor.ID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("admin should book on behalf of a patient: %v", err)
	}
}

func TestAppointmentService_Create_PatientForOtherPatient(t *testing.T) {
	repo := newStubAppointmentRepo()
	svc := newApptSvc(repo, newStubUserRepo(testPatient, otherPat, testDoctor), &recordingEmitter{})

	start := testNow.Add(time.Hour)
	_, err := svc.Create(context.Background(), otherPat, ports.CreateAppointmentInput{
		PatientID: testPatient.ID,
		DoctorID:  testDoctor.ID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got: %v", err)
	}
	if len(repo.byID) != 0 {
		t.Error("no appointment should be persisted on denial")
	}
}

func TestAppointmentService_Create_StartInPast(t *testing.T) {
	repo := newStubAppointmentRepo()
	svc := newApptSvc(repo, newStubUserRepo(testPatient, testDoctor), &recordingEmitter{})

	_, err := svc.Create(context.Background(), testPatient, ports.CreateAppointmentInput{
		PatientID: testPatient.ID,
		DoctorID:  testDoctor.ID,
		StartTime: testNow.Add(-time.Hour),
		EndTime:   testNow.Add(time.Hour),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got: %v", err)
	}
}

func TestAppointmentService_Create_DoctorRoleMismatch(t *testing.T) {
	repo := newStubAppointmentRepo()
	svc := newApptSvc(repo, newStubUserRepo(testPatient, otherPat, testDoctor), &recordingEmitter{})

	start := testNow.Add(time.Hour)
	_, err := svc.Create(context.Background(), testPatient, ports.CreateAppointmentInput{
		PatientID: testPatient.ID,
		DoctorID:  otherPat.ID, // a patient, not a doctor
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for non-doctor, got: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Transition
// ---------------------------------------------------------------------------

func TestAppointmentService_Confirm_ByDoctor(t *testing.T) {
	repo := newStubAppointmentRepo()
	emitter := &recordingEmitter{}
	svc := newApptSvc(repo, newStubUserRepo(testPatient, testDoctor), emitter)
	seededAppointment(repo, domain.StatusPending)

	appt, err := svc.Transition(context.Background(), testDoctor, "appt_1", domain.StatusConfirmed, "")
	if err != nil {
		t.Fatalf("doctor should confirm from pending: %v", err)
	}
	if appt.Status != domain.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", appt.Status)
	}
	if len(emitter.events) != 1 || emitter.events[0].Kind != domain.EventConfirmed {
		t.Errorf("expected confirmed event, got %+v", emitter.events)
	}
}

func TestAppointmentService_Confirm_ByPatientDenied(t *testing.T) {
	repo := newStubAppointmentRepo()
	svc := newApptSvc(repo, newStubUserRepo(testPatient, testDoctor), &recordingEmitter{})
	seededAppointment(repo, domain.StatusPending)

	_, err := svc.Transition(context.Background(), testPatient, "appt_1", domain.StatusConfirmed, "")
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got: %v", err)
	}
}

func TestAppointmentService_Confirm_ByUnassignedDoctorDenied(t *testing.T) {
	repo := newStubAppointmentRepo()
	svc := newApptSvc(repo, newStubUserRepo(testPatient, testDoctor, otherDoc), &recordingEmitter{})
	seededAppointment(repo, domain.StatusPending)

	_, err := svc.Transition(context.Background(), otherDoc, "appt_1", domain.StatusConfirmed, "")
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for unassigned doctor, got: %v", err)
	}
}

func TestAppointmentService_Cancel_ByPatient(t *testing.T) {
	repo := newStubAppointmentRepo()
	emitter := &recordingEmitter{}
	svc := newApptSvc(repo, newStubUserRepo(testPatient, testDoctor), emitter)
	seededAppointment(repo, domain.StatusConfirmed)

	appt, err := svc.Transition(context.Background(), testPatient, "appt_1", domain.StatusCanceled, "sick")
	if err != nil {
		t.Fatalf("patient should cancel upcoming appointment: %v", err)
	}
	if appt.Status != domain.StatusCanceled {
		t.Errorf("expected canceled, got %s", appt.Status)
	}
	if len(emitter.events) != 1 || emitter.events[0].Kind != domain.EventCanceled {
		t.Errorf("expected canceled event, got %+v", emitter.events)
	}
}

func TestAppointmentService_Cancel_AfterStartRejected(t *testing.T) {
	repo := newStubAppointmentRepo()
	svc := newApptSvc(repo, newStubUserRepo(testPatient, testDoctor), &recordingEmitter{})
	a := seededAppointment(repo, domain.StatusPending)
	a.StartTime = testNow.Add(-time.Minute)
	a.EndTime = testNow.Add(30 * time.Minute)

	_, err := svc.Transition(context.Background(), testPatient, "appt_1", domain.StatusCanceled, "")
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState once start has passed, got: %v", err)
	}
}

func TestAppointmentService_Complete_OnlyAfterEnd(t *testing.T) {
	repo := newStubAppointmentRepo()
	svc := newApptSvc(repo, newStubUserRepo(testPatient, testDoctor), &recordingEmitter{})
	a := seededAppointment(repo, domain.StatusConfirmed)

	if _, err := svc.Transition(context.Background(), testDoctor, "appt_1", domain.StatusCompleted, ""); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState before end_time, got: %v", err)
	}

	a.StartTime = testNow.Add(-2 * time.Hour)
	a.EndTime = testNow.Add(-time.Hour)
	appt, err := svc.Transition(context.Background(), testDoctor, "appt_1", domain.StatusCompleted, "")
	if err != nil {
		t.Fatalf("doctor should complete an ended appointment: %v", err)
	}
	if appt.Status != domain.StatusCompleted {
		t.Errorf("expected completed, got %s", appt.Status)
	}
}

func TestAppointmentService_NoShow_OnlyAfterStart(t *testing.T) {
	repo := newStubAppointmentRepo()
	svc := newApptSvc(repo, newStubUserRepo(testPatient, testDoctor), &recordingEmitter{})
	a := seededAppointment(repo, domain.StatusConfirmed)

	if _, err := svc.Transition(context.Background(), testDoctor, "appt_1", domain.StatusNoShow, ""); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState before start_time, got: %v", err)
	}

	a.StartTime = testNow.Add(-10 * time.Minute)
	if _, err := svc.Transition(context.Background(), testDoctor, "appt_1", domain.StatusNoShow, "did not attend"); err != nil {
		t.Fatalf("doctor should mark no-show after start: %v", err)
	}
}

func TestAppointmentService_Transition_IllegalEdge(t *testing.T) {
	repo := newStubAppointmentRepo()
	svc := newApptSvc(repo, newStubUserRepo(testPatient, testDoctor), &recordingEmitter{})
	seededAppointment(repo, domain.StatusPending)

	_, err := svc.Transition(context.Background(), testDoctor, "appt_1", domain.StatusCompleted, "")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for pending -> completed, got: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func TestAppointmentService_Get_HiddenFromNonParticipant(t *testing.T) {
	repo := newStubAppointmentRepo()
	svc := newApptSvc(repo, newStubUserRepo(testPatient, testDoctor, otherPat), &recordingEmitter{})
	seededAppointment(repo, domain.StatusPending)

	if _, err := svc.Get(context.Background(), testPatient, "appt_1"); err != nil {
		t.Fatalf("participant should read the appointment: %v", err)
	}
	if _, err := svc.Get(context.Background(), otherPat, "appt_1"); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for non-participant, got: %v", err)
	}
}

func TestAppointmentService_List_ScopedByActor(t *testing.T) {
	repo := newStubAppointmentRepo()
	svc := newApptSvc(repo, newStubUserRepo(testPatient, testDoctor, otherPat, otherDoc), &recordingEmitter{})
	seededAppointment(repo, domain.StatusPending)
	repo.byID["appt_2"] = &domain.Appointment{
		ID:        "appt_2",
		PatientID: otherPat.ID,
		DoctorID:  otherDoc.ID,
		StartTime: testNow.Add(48 * time.Hour),
		EndTime:   testNow.Add(49 * time.Hour),
		Status:    domain.StatusPending,
	}

	// Both actors pass the coarse check; the scope filter differs.
	adminRes, err := svc.List(context.Background(), testAdmin, ports.ListAppointmentsInput{})
	if err != nil {
		t.Fatalf("admin list error: %v", err)
	}
	if adminRes.Total != 2 {
		t.Errorf("admin should see all appointments, got %d", adminRes.Total)
	}

	patRes, err := svc.List(context.Background(), testPatient, ports.ListAppointmentsInput{})
	if err != nil {
		t.Fatalf("patient list error: %v", err)
	}
	if patRes.Total != 1 || patRes.Items[0].ID != "appt_1" {
		t.Errorf("patient should only see own appointments, got %+v", patRes.Items)
	}
}

// ---------------------------------------------------------------------------
// Reschedule
// ---------------------------------------------------------------------------

func TestAppointmentService_Reschedule(t *testing.T) {
	repo := newStubAppointmentRepo()
	emitter := &recordingEmitter{}
	svc := newApptSvc(repo, newStubUserRepo(testPatient, testDoctor), emitter)
	seededAppointment(repo, domain.StatusConfirmed)

	start := testNow.Add(72 * time.Hour)
	appt, err := svc.Reschedule(context.Background(), testPatient, "appt_1", start, start.Add(45*time.Minute))
	if err != nil {
		t.Fatalf("reschedule failed: %v", err)
	}
	if appt.Duration() != 45 {
		t.Errorf("expected duration 45, got %d", appt.Duration())
	}
	if len(emitter.events) != 1 || emitter.events[0].Kind != domain.EventRescheduled {
		t.Errorf("expected rescheduled event, got %+v", emitter.events)
	}
}

func TestAppointmentService_Reschedule_InvalidTiming(t *testing.T) {
	repo := newStubAppointmentRepo()
	svc := newApptSvc(repo, newStubUserRepo(testPatient, testDoctor), &recordingEmitter{})
	seededAppointment(repo, domain.StatusPending)

	start := testNow.Add(72 * time.Hour)
	if _, err := svc.Reschedule(context.Background(), testPatient, "appt_1", start, start.Add(-time.Hour)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got: %v", err)
	}
}

func TestAppointmentService_Reschedule_ResolvedAppointment(t *testing.T) {
	repo := newStubAppointmentRepo()
	svc := newApptSvc(repo, newStubUserRepo(testPatient, testDoctor), &recordingEmitter{})
	seededAppointment(repo, domain.StatusCompleted)

	start := testNow.Add(72 * time.Hour)
	if _, err := svc.Reschedule(context.Background(), testPatient, "appt_1", start, start.Add(time.Hour)); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got: %v", err)
	}
}
