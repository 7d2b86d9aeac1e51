package domain

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

func validAppointment() *Appointment {
	return &Appointment{
		ID:        "appt_1",
		PatientID: "u_patient",
		DoctorID:  "u_doctor",
		StartTime: testNow.Add(24 * time.Hour),
		EndTime:   testNow.Add(24*time.Hour + 30*time.Minute),
		Status:    StatusPending,
	}
}

func TestAppointment_Validate_OK(t *testing.T) {
	if err := validAppointment().Validate(testNow); err != nil {
		t.Fatalf("expected valid appointment, got: %v", err)
	}
}

func TestAppointment_Validate_EndBeforeStart(t *testing.T) {
	a := validAppointment()
	a.EndTime = a.StartTime.Add(-time.Minute)
	if err := a.Validate(testNow); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got: %v", err)
	}
}

func TestAppointment_Validate_ZeroLength(t *testing.T) {
	a := validAppointment()
	a.EndTime = a.StartTime
	if err := a.Validate(testNow); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for start == end, got: %v", err)
	}
}

func TestAppointment_Validate_StartInPast(t *testing.T) {
	a := validAppointment()
	a.StartTime = testNow.Add(-time.Hour)
	a.EndTime = testNow.Add(time.Hour)
	if err := a.Validate(testNow); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for past start, got: %v", err)
	}
}

func TestAppointment_Validate_SamePatientAndDoctor(t *testing.T) {
	a := validAppointment()
	a.DoctorID = a.PatientID
	if err := a.Validate(testNow); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for patient == doctor, got: %v", err)
	}
}

func TestAppointmentStatus_Transitions(t *testing.T) {
	cases := []struct {
		from, to AppointmentStatus
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCanceled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusNoShow, false},
		{StatusConfirmed, StatusCanceled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusNoShow, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCanceled, StatusConfirmed, false},
		{StatusCompleted, StatusCanceled, false},
		{StatusNoShow, StatusConfirmed, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.ok {
			t.Errorf("%s -> %s: expected %v, got %v", c.from, c.to, c.ok, got)
		}
	}
}

func TestAppointment_Duration_TruncatesToWholeMinutes(t *testing.T) {
	a := validAppointment()
	a.EndTime = a.StartTime.Add(30*time.Minute + 45*time.Second)
	if d := a.Duration(); d != 30 {
		t.Fatalf("expected duration 30, got %d", d)
	}
}

func TestAppointment_CanCancel(t *testing.T) {
	a := validAppointment()
	if !a.CanCancel(testNow) {
		t.Fatal("upcoming pending appointment should be cancellable")
	}

	a.Status = StatusConfirmed
	if !a.CanCancel(testNow) {
		t.Fatal("upcoming confirmed appointment should be cancellable")
	}

	// Once start_time has arrived the appointment cannot be cancelled,
	// even while still pending.
	if a.CanCancel(a.StartTime) {
		t.Fatal("appointment at start time must not be cancellable")
	}
	if a.CanCancel(a.StartTime.Add(time.Minute)) {
		t.Fatal("started appointment must not be cancellable")
	}

	a.Status = StatusCompleted
	if a.CanCancel(testNow) {
		t.Fatal("completed appointment must not be cancellable")
	}
}

func TestAppointment_UpcomingAndPast(t *testing.T) {
	a := validAppointment()
	if !a.IsUpcoming(testNow) || a.IsPast(testNow) {
		t.Fatal("future appointment should be upcoming, not past")
	}
	after := a.EndTime.Add(time.Minute)
	if a.IsUpcoming(after) || !a.IsPast(after) {
		t.Fatal("elapsed appointment should be past, not upcoming")
	}
}

func TestAppointment_Participants(t *testing.T) {
	a := validAppointment()
	if !a.IsParticipant("u_patient") || !a.IsParticipant("u_doctor") {
		t.Fatal("patient and doctor are participants")
	}
	if a.IsParticipant("u_other") {
		t.Fatal("stranger is not a participant")
	}
	if !a.OwnedBy("u_patient") || a.OwnedBy("u_doctor") {
		t.Fatal("only the patient owns the booking")
	}
}
