package domain

import "time"

// SLAStatus enumerates per-dimension SLA clock states. The machine is
// forward-only (ON_TIME -> NEARING_DUE -> BREACHED) with the terminal
// ACKNOWLEDGED/RESOLVED states reachable from any non-terminal state.
type SLAStatus string

const (
	SLAStatusOnTime       SLAStatus = "ON_TIME"
	SLAStatusNearingDue   SLAStatus = "NEARING_DUE"
	SLAStatusBreached     SLAStatus = "BREACHED"
	SLAStatusAcknowledged SLAStatus = "ACKNOWLEDGED"
	SLAStatusResolved     SLAStatus = "RESOLVED"
)

// IsTerminal reports whether the SLA clock for a dimension has been stopped
// by user action.
func (s SLAStatus) IsTerminal() bool {
	return s == SLAStatusAcknowledged || s == SLAStatusResolved
}

// SLAState is the per-grievance SLA record. Due dates are always derived from
// the current region's level configuration at the time they were last
// computed; escalation recomputes them against the new region rather than
// extending the originals.
type SLAState struct {
	AckDueAt             *time.Time
	ResolutionDueAt      *time.Time
	AckStatus            SLAStatus
	ResolutionStatus     SLAStatus
	DaysRemaining        int
	AcknowledgedAt       *time.Time
	ResolvedAt           *time.Time
	EscalationCount      int
	LastEscalatedAt      *time.Time
	LastEscalationReason string
}

// Active reports whether the SLA clock is running at all.
func (s SLAState) Active() bool {
	return s.AckDueAt != nil && s.ResolutionDueAt != nil
}
