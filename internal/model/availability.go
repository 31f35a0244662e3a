package model

import (
	"time"

	"github.com/google/uuid"
)

// Availability is one bookable window of a doctor on a given date.
type Availability struct {
	ID        uuid.UUID `json:"id" db:"id"`
	DoctorID  uuid.UUID `json:"doctor_id" db:"doctor_id"`
	Date      string    `json:"date" db:"date"`
	StartTime string    `json:"start_time" db:"start_time"`
	EndTime   string    `json:"end_time" db:"end_time"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type AvailabilityWindow struct {
	Date string `json:"date" binding:"required,ymd"`
	From string `json:"from" binding:"required,hhmm"`
	To   string `json:"to" binding:"required,hhmm"`
}

// ReplaceAvailabilityRequest replaces the caller's whole availability set.
type ReplaceAvailabilityRequest struct {
	Availabilities []AvailabilityWindow `json:"availabilities" binding:"required,min=1,dive"`
}

type AvailableDates struct {
	Dates []string `json:"dates"`
}

type AvailableTimes struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}
