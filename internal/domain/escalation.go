package domain

import "time"

// EscalationTrigger distinguishes monitor-driven from user-driven escalation.
type EscalationTrigger string

const (
	TriggerAuto   EscalationTrigger = "AUTO"
	TriggerManual EscalationTrigger = "MANUAL"
)

// AutoEscalationReason is the synthesized reason attached to monitor-driven
// escalations.
const AutoEscalationReason = "SLA breach auto-escalation"

// EscalationRecord is an immutable audit entry for one escalation hop.
type EscalationRecord struct {
	ID           string
	GrievanceID  string
	FromRegionID string
	ToRegionID   string
	Trigger      EscalationTrigger
	Reason       string
	ActorID      *string
	CreatedAt    time.Time
}
