package model

import (
	"github.com/google/uuid"
)

// Role is fixed at account creation and gates every endpoint.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

const (
	GenderMale           = "male"
	GenderFemale         = "female"
	GenderOther          = "other"
	GenderPreferNotToSay = "prefer_not_to_say"
)

// User represents a system user
type User struct {
	Base
	Name             string  `json:"name" db:"name"`
	Email            string  `json:"email" db:"email"`
	PasswordHash     string  `json:"-" db:"password_hash"`
	Role             Role    `json:"role" db:"role"`
	Phone            *string `json:"phone" db:"phone"`
	Gender           *string `json:"gender" db:"gender"`
	City             *string `json:"city" db:"city"`
	Specialty        *string `json:"specialty" db:"specialty"`
	ProfilePhotoPath *string `json:"profile_photo_path" db:"profile_photo_path"`
	ProfilePhotoURL  string  `json:"profile_photo_url,omitempty" db:"-"`
}

func (u *User) IsDoctor() bool {
	return u.Role == RoleDoctor
}

// Doctor is a doctor with the aggregate of their approved reviews.
type Doctor struct {
	User
	ReviewsCount     int      `json:"reviews_count" db:"reviews_count"`
	ReviewsAvgRating *float64 `json:"reviews_avg_rating" db:"reviews_avg_rating"`
}

// UserSummary is the reduced user shape embedded in listings.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
}

// UserFilter represents user search parameters
type UserFilter struct {
	Role      Role   `form:"role" binding:"omitempty,oneof=admin doctor patient"`
	City      string `form:"city"`
	Specialty string `form:"specialty"`
}

// CreateUserRequest is the admin user creation payload.
type CreateUserRequest struct {
	Name      string  `json:"name" form:"name" binding:"required,max=255"`
	Email     string  `json:"email" form:"email" binding:"required,email,max=255"`
	Password  string  `json:"password" form:"password" binding:"required,min=8"`
	Role      Role    `json:"role" form:"role" binding:"required,oneof=admin doctor patient"`
	Phone     *string `json:"phone" form:"phone" binding:"omitempty,max=20"`
	Gender    *string `json:"gender" form:"gender" binding:"omitempty,oneof=male female other prefer_not_to_say"`
	Specialty *string `json:"specialty" form:"specialty" binding:"omitempty,max=255"`
	City      *string `json:"city" form:"city" binding:"omitempty,max=255"`
}

// UpdateUserRequest is the admin partial update payload; nil fields are left unchanged.
type UpdateUserRequest struct {
	Name         *string `json:"name" form:"name" binding:"omitempty,max=255"`
	Email        *string `json:"email" form:"email" binding:"omitempty,email,max=255"`
	Password     *string `json:"password" form:"password" binding:"omitempty,min=8"`
	Role         *Role   `json:"role" form:"role" binding:"omitempty,oneof=admin doctor patient"`
	Phone        *string `json:"phone" form:"phone" binding:"omitempty,max=20"`
	Gender       *string `json:"gender" form:"gender" binding:"omitempty,oneof=male female other prefer_not_to_say"`
	Specialty    *string `json:"specialty" form:"specialty" binding:"omitempty,max=255"`
	City         *string `json:"city" form:"city" binding:"omitempty,max=255"`
	RemoveAvatar bool    `json:"remove_avatar" form:"remove_avatar"`
}

// UpdateProfileRequest is the self-service profile payload.
type UpdateProfileRequest struct {
	Name                 string  `json:"name" form:"name" binding:"required,max=255"`
	Email                string  `json:"email" form:"email" binding:"required,email,max=255"`
	Password             *string `json:"password" form:"password" binding:"omitempty,min=6"`
	PasswordConfirmation *string `json:"password_confirmation" form:"password_confirmation"`
	Phone                *string `json:"phone" form:"phone" binding:"omitempty,max=20"`
	Gender               *string `json:"gender" form:"gender" binding:"omitempty,oneof=male female other prefer_not_to_say"`
	City                 *string `json:"city" form:"city" binding:"omitempty,max=255"`
	Specialty            *string `json:"specialty" form:"specialty" binding:"omitempty,max=255"`
	RemoveAvatar         bool    `json:"remove_avatar" form:"remove_avatar"`
}
