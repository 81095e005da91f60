package dto

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// RegisterUserRequest payload.
type RegisterUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries an issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse mirrors a citizen account.
type UserResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone,omitempty"`
	Status    domain.UserStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// CreateOfficerRequest payload; admin only.
type CreateOfficerRequest struct {
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Password  string             `json:"password"`
	Role      domain.OfficerRole `json:"role"`
	ProjectID *string            `json:"project_id"`
	RegionID  *string            `json:"region_id"`
}

// OfficerResponse mirrors an officer account.
type OfficerResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Role      domain.OfficerRole `json:"role"`
	ProjectID *string            `json:"project_id,omitempty"`
	RegionID  *string            `json:"region_id,omitempty"`
	Active    bool               `json:"active"`
	CreatedAt time.Time          `json:"created_at"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Email       string             `json:"email"`
	SubjectType domain.SubjectType `json:"subject_type"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
