package model

import (
	"time"

	"github.com/google/uuid"
)

// Bookmark is a patient's saved doctor.
type Bookmark struct {
	PatientID uuid.UUID `json:"patient_id" db:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id" db:"doctor_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
