// Package policy is the single place that decides what a caller may do. Route level checks go
// through Can; record level checks through the ownership helpers.
package policy

import (
	"github.com/jwalitptl/docbook-api/internal/model"
)

type Capability string

const (
	ViewDoctors        Capability = "doctors:view"
	ManageAvailability Capability = "availability:manage"
	BookAppointment    Capability = "appointments:book"
	ViewAppointments   Capability = "appointments:view"
	SetAppointment     Capability = "appointments:set_status"
	CancelAppointment  Capability = "appointments:cancel"
	SubmitReview       Capability = "reviews:submit"
	ModerateReviews    Capability = "reviews:moderate"
	ReviewQueue        Capability = "reviews:queue"
	ManageBookmarks    Capability = "bookmarks:manage"
	PatientDashboard   Capability = "stats:patient"
	DoctorDashboard    Capability = "stats:doctor"
	ManageUsers        Capability = "users:manage"
)

var capabilities = map[model.Role]map[Capability]bool{
	model.RoleAdmin: set(
		ViewDoctors,
		ViewAppointments,
		ModerateReviews,
		ReviewQueue,
		ManageUsers,
	),
	model.RoleDoctor: set(
		ViewDoctors,
		ManageAvailability,
		ViewAppointments,
		SetAppointment,
		ModerateReviews,
		DoctorDashboard,
	),
	model.RolePatient: set(
		ViewDoctors,
		BookAppointment,
		ViewAppointments,
		CancelAppointment,
		SubmitReview,
		ManageBookmarks,
		PatientDashboard,
	),
}

func set(caps ...Capability) map[Capability]bool {
	m := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		m[c] = true
	}
	return m
}

// Can reports whether role grants capability.
func Can(role model.Role, capability Capability) bool {
	return capabilities[role][capability]
}

// CanViewAppointment: the two parties and admins.
func CanViewAppointment(p *model.Principal, a *model.Appointment) bool {
	switch p.Role {
	case model.RoleAdmin:
		return true
	case model.RoleDoctor:
		return a.DoctorID == p.UserID
	case model.RolePatient:
		return a.PatientID == p.UserID
	}
	return false
}

// CanSetAppointmentStatus: only the doctor the appointment is booked with.
func CanSetAppointmentStatus(p *model.Principal, a *model.Appointment) bool {
	return p.Role == model.RoleDoctor && a.DoctorID == p.UserID
}

// CanRemoveAppointment: only the patient who booked it, for both cancel and delete.
func CanRemoveAppointment(p *model.Principal, a *model.Appointment) bool {
	return p.Role == model.RolePatient && a.PatientID == p.UserID
}

// CanModerateReview: admins and the reviewed doctor.
func CanModerateReview(p *model.Principal, r *model.Review) bool {
	return p.Role == model.RoleAdmin || (p.Role == model.RoleDoctor && r.DoctorID == p.UserID)
}

// CanDeleteReview: admins, the author and the reviewed doctor.
func CanDeleteReview(p *model.Principal, r *model.Review) bool {
	return CanModerateReview(p, r) || r.PatientID == p.UserID
}

// CanViewReview: approved reviews are public to any caller, others only to those who may delete them.
func CanViewReview(p *model.Principal, r *model.Review) bool {
	return r.Status == model.ReviewStatusApproved || CanDeleteReview(p, r)
}
