package model

import (
	"github.com/google/uuid"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the self-registration payload. Admin accounts cannot be self-registered.
type RegisterRequest struct {
	Name                 string  `json:"name" form:"name" binding:"required,max=255"`
	Email                string  `json:"email" form:"email" binding:"required,email,max=255"`
	Password             string  `json:"password" form:"password" binding:"required,min=6"`
	PasswordConfirmation string  `json:"password_confirmation" form:"password_confirmation" binding:"required,eqfield=Password"`
	Role                 Role    `json:"role" form:"role" binding:"omitempty,oneof=doctor patient"`
	Phone                *string `json:"phone" form:"phone" binding:"omitempty,max=20"`
	Gender               *string `json:"gender" form:"gender" binding:"omitempty,oneof=male female other prefer_not_to_say"`
	City                 *string `json:"city" form:"city" binding:"omitempty,max=255"`
	Specialty            *string `json:"specialty" form:"specialty" binding:"omitempty,max=255"`
}

type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	UserID  uuid.UUID
	Role    Role
	TokenID uuid.UUID
}

func (p *Principal) Is(role Role) bool {
	return p != nil && p.Role == role
}
