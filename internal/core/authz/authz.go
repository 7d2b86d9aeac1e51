// Package authz is the pure authorization decision layer. It holds no state:
// every function maps (actor, action, target) to a Decision.
//
// Appointment access is decided in two tiers and both must be kept:
// CanManageAppointments is the coarse "may this role call this method
// category at all" check, and CanAccessAppointment / AppointmentScope is the
// fine per-object check. Collapsing them into one would let the coarse read
// permission leak other users' rows.
package authz

import (
	"fmt"

	"github.com/hans-clinic/appointment-system/internal/core/domain"
)

// Action is the category of operation being attempted.
type Action string

const (
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// ReadOnly reports whether the action is safe (no mutation), the analogue of
// HTTP method safety.
func (a Action) ReadOnly() bool { return a == ActionRead || a == ActionList }

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err converts a denial into a domain.ErrPermissionDenied error, nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrPermissionDenied, d.Reason)
}

func allow() Decision            { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// Owned is the capability an entity exposes to declare its owning user.
type Owned interface {
	OwnedBy(userID string) bool
}

// IsOwnerOrReadOnly permits admins always, otherwise only the owning user.
func IsOwnerOrReadOnly(actor *domain.User, target Owned) Decision {
	if actor == nil {
		return deny("unauthenticated")
	}
	if actor.IsAdmin() || target.OwnedBy(actor.ID) {
		return allow()
	}
	return deny("not the owner")
}

// IsAppointmentParticipant permits admins and the appointment's patient or doctor.
func IsAppointmentParticipant(actor *domain.User, appt *domain.Appointment) Decision {
	if actor == nil {
		return deny("unauthenticated")
	}
	if actor.IsAdmin() || appt.IsParticipant(actor.ID) {
		return allow()
	}
	return deny("not a participant of this appointment")
}

// CanManageAppointments is the coarse tier: may this actor invoke this
// method category at all. Read paths are open to any authenticated user
// (visibility is restricted per object afterwards); mutations require one of
// the known roles.
func CanManageAppointments(actor *domain.User, action Action) Decision {
	if actor == nil {
		return deny("unauthenticated")
	}
	if action.ReadOnly() {
		return allow()
	}
	switch actor.Role {
	case domain.RolePatient, domain.RoleDoctor, domain.RoleAdmin:
		return allow()
	}
	return deny("role may not manage appointments")
}

// CanAccessAppointment is the fine tier, evaluated against a specific
// appointment. Reads are visible to admins and participants. Mutations are
// allowed to admins, to the patient on their own appointments, and to the
// doctor on appointments assigned to them.
func CanAccessAppointment(actor *domain.User, action Action, appt *domain.Appointment) Decision {
	if actor == nil {
		return deny("unauthenticated")
	}
	if action.ReadOnly() {
		return IsAppointmentParticipant(actor, appt)
	}
	switch {
	case actor.IsAdmin():
		return allow()
	case actor.IsPatient() && appt.PatientID == actor.ID:
		return allow()
	case actor.IsDoctor() && appt.DoctorID == actor.ID:
		return allow()
	}
	return deny("not permitted on this appointment")
}

// CanCreateAppointment decides who may book for a given patient: the patient
// themselves, or an admin on behalf of any patient.
func CanCreateAppointment(actor *domain.User, patientID string) Decision {
	if actor == nil {
		return deny("unauthenticated")
	}
	if actor.IsAdmin() {
		return allow()
	}
	if actor.IsPatient() && actor.ID == patientID {
		return allow()
	}
	return deny("patients may only book for themselves")
}

// Scope is the result filter applied to list queries after the coarse check
// passed. All=false restricts rows to appointments the participant is tied to.
type Scope struct {
	All           bool
	ParticipantID string
}

// AppointmentScope returns the visibility filter for the actor: admins see
// everything, everyone else only appointments they participate in.
func AppointmentScope(actor *domain.User) Scope {
	if actor != nil && actor.IsAdmin() {
		return Scope{All: true}
	}
	id := ""
	if actor != nil {
		id = actor.ID
	}
	return Scope{ParticipantID: id}
}

// CanAccessNotification permits admins and the recipient, for reads and
// mutations alike (a recipient may cancel or retry their own notification).
func CanAccessNotification(actor *domain.User, _ Action, n *domain.Notification) Decision {
	return IsOwnerOrReadOnly(actor, n)
}

// NotificationScope returns the visibility filter for notification listings.
func NotificationScope(actor *domain.User) Scope {
	if actor != nil && actor.IsAdmin() {
		return Scope{All: true}
	}
	id := ""
	if actor != nil {
		id = actor.ID
	}
	return Scope{ParticipantID: id}
}
