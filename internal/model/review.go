package model

import (
	"github.com/google/uuid"
)

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Moderation can flip a decision but never send a review back to pending.
var reviewTransitions = map[ReviewStatus][]ReviewStatus{
	ReviewStatusPending:  {ReviewStatusApproved, ReviewStatusRejected},
	ReviewStatusApproved: {ReviewStatusRejected},
	ReviewStatusRejected: {ReviewStatusApproved},
}

func (s ReviewStatus) Valid() bool {
	_, ok := reviewTransitions[s]
	return ok
}

func (s ReviewStatus) CanTransitionTo(next ReviewStatus) bool {
	for _, allowed := range reviewTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Review struct {
	Base
	PatientID uuid.UUID    `json:"patient_id" db:"patient_id"`
	DoctorID  uuid.UUID    `json:"doctor_id" db:"doctor_id"`
	Rating    int          `json:"rating" db:"rating"`
	Comment   *string      `json:"comment" db:"comment"`
	Status    ReviewStatus `json:"status" db:"status"`
}

type ReviewDetail struct {
	Review
	PatientName string `json:"patient_name" db:"patient_name"`
	DoctorName  string `json:"doctor_name" db:"doctor_name"`
}

type ReviewFilter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Status    ReviewStatus
	Page      Page
}

type CreateReviewRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
	Rating   int       `json:"rating" binding:"required,min=1,max=5"`
	Comment  *string   `json:"comment" binding:"omitempty,max=500"`
}

type UpdateReviewStatusRequest struct {
	Status ReviewStatus `json:"status" binding:"required,oneof=approved rejected"`
}

type ReviewListQuery struct {
	DoctorID string `form:"doctor_id" binding:"omitempty,uuid"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
}
