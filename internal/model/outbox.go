package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusRetry     OutboxStatus = "retry"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// Domain event types written to the outbox.
const (
	EventAppointmentCreated       = "appointment.created"
	EventAppointmentStatusChanged = "appointment.status_changed"
	EventAppointmentDeleted       = "appointment.deleted"
	EventReviewSubmitted          = "review.submitted"
	EventReviewModerated          = "review.moderated"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// EventEnvelope is what the relay publishes on the broker.
type EventEnvelope struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type AppointmentEvent struct {
	AppointmentID  uuid.UUID         `json:"appointment_id"`
	PatientID      uuid.UUID         `json:"patient_id"`
	DoctorID       uuid.UUID         `json:"doctor_id"`
	Date           string            `json:"date"`
	Time           string            `json:"time"`
	Status         AppointmentStatus `json:"status"`
	PreviousStatus AppointmentStatus `json:"previous_status,omitempty"`
	// ActorID is the user whose action raised the event.
	ActorID uuid.UUID `json:"actor_id"`
}

func NewAppointmentEvent(a *Appointment, previous AppointmentStatus, actor uuid.UUID) AppointmentEvent {
	return AppointmentEvent{
		AppointmentID:  a.ID,
		PatientID:      a.PatientID,
		DoctorID:       a.DoctorID,
		Date:           a.Date,
		Time:           a.Time,
		Status:         a.Status,
		PreviousStatus: previous,
		ActorID:        actor,
	}
}

type ReviewEvent struct {
	ReviewID  uuid.UUID    `json:"review_id"`
	PatientID uuid.UUID    `json:"patient_id"`
	DoctorID  uuid.UUID    `json:"doctor_id"`
	Rating    int          `json:"rating"`
	Status    ReviewStatus `json:"status"`
}

func NewReviewEvent(r *Review) ReviewEvent {
	return ReviewEvent{
		ReviewID:  r.ID,
		PatientID: r.PatientID,
		DoctorID:  r.DoctorID,
		Rating:    r.Rating,
		Status:    r.Status,
	}
}
