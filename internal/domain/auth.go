package domain

import "time"

// SubjectType differentiates citizen vs officer tokens.
type SubjectType string

const (
	SubjectTypeUser    SubjectType = "USER"
	SubjectTypeOfficer SubjectType = "OFFICER"
)

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	Role      *OfficerRole
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// PasswordReset stores a pending password reset request.
type PasswordReset struct {
	ID        string
	Subject   SubjectType
	SubjectID string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
