package domain

import "time"

// ActorType indicates who performed a change.
type ActorType string

const (
	ActorTypeUser    ActorType = "USER"
	ActorTypeOfficer ActorType = "OFFICER"
	ActorTypeSystem  ActorType = "SYSTEM"
)

// ActivityChangeType captures what changed in an activity entry.
type ActivityChangeType string

const (
	ChangeTypeStatus       ActivityChangeType = "STATUS_CHANGE"
	ChangeTypeSubmitted    ActivityChangeType = "SUBMITTED"
	ChangeTypeAcknowledged ActivityChangeType = "ACKNOWLEDGED"
	ChangeTypeEscalated    ActivityChangeType = "ESCALATED"
	ChangeTypeSLAUpdated   ActivityChangeType = "SLA_UPDATED"
	ChangeTypeNote         ActivityChangeType = "NOTE"
)

// GrievanceActivity is an immutable audit trail entry.
type GrievanceActivity struct {
	ID          string
	GrievanceID string
	ActorType   ActorType
	ActorID     *string
	ChangeType  ActivityChangeType
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}
