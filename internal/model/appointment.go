package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// appointmentTransitions lists the statuses reachable from each status. Completed and
// cancelled have no exits.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled},
	AppointmentStatusCompleted: nil,
	AppointmentStatusCancelled: nil,
}

func (s AppointmentStatus) Valid() bool {
	_, ok := appointmentTransitions[s]
	return ok
}

func (s AppointmentStatus) IsTerminal() bool {
	return s.Valid() && len(appointmentTransitions[s]) == 0
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active appointments hold their slot; cancelled ones release it.
func (s AppointmentStatus) Active() bool {
	return s != AppointmentStatusCancelled
}

type Appointment struct {
	Base
	PatientID uuid.UUID         `json:"patient_id" db:"patient_id"`
	DoctorID  uuid.UUID         `json:"doctor_id" db:"doctor_id"`
	Date      string            `json:"appointment_date" db:"appointment_date"`
	Time      string            `json:"appointment_time" db:"appointment_time"`
	Status    AppointmentStatus `json:"status" db:"status"`
}

// AppointmentDetail is an appointment joined with the names of both parties.
type AppointmentDetail struct {
	Appointment
	PatientName     string  `json:"patient_name" db:"patient_name"`
	PatientEmail    string  `json:"patient_email" db:"patient_email"`
	PatientPhone    *string `json:"patient_phone,omitempty" db:"patient_phone"`
	DoctorName      string  `json:"doctor_name" db:"doctor_name"`
	DoctorSpecialty *string `json:"doctor_specialty,omitempty" db:"doctor_specialty"`
}

// UpcomingAppointment adds the end of the booked slot.
type UpcomingAppointment struct {
	AppointmentDetail
	TimeEnd string `json:"time_end"`
}

type AppointmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Statuses  []AppointmentStatus
	FromDate  string
	// Ascending orders by date and time oldest first; the default is newest first.
	Ascending bool
}

type CreateAppointmentRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
	Date     string    `json:"date" binding:"required,ymd"`
	Time     string    `json:"time" binding:"required,hhmm"`
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=pending confirmed completed cancelled"`
}

type AppointmentListQuery struct {
	Status AppointmentStatus `form:"status" binding:"omitempty,oneof=pending confirmed completed cancelled"`
}
