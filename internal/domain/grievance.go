package domain

import "time"

// GrievanceStatus enumerates lifecycle states for grievances.
type GrievanceStatus string

const (
	GrievanceStatusDraft          GrievanceStatus = "DRAFT"
	GrievanceStatusOpen           GrievanceStatus = "OPEN"
	GrievanceStatusInProgress     GrievanceStatus = "IN_PROGRESS"
	GrievanceStatusPendingCitizen GrievanceStatus = "PENDING_CITIZEN"
	GrievanceStatusResolved       GrievanceStatus = "RESOLVED"
	GrievanceStatusClosed         GrievanceStatus = "CLOSED"
	GrievanceStatusRejected       GrievanceStatus = "REJECTED"
)

// GrievanceCategory classifies the complaint subject matter.
type GrievanceCategory string

const (
	CategoryServiceDelivery GrievanceCategory = "SERVICE_DELIVERY"
	CategoryInfrastructure  GrievanceCategory = "INFRASTRUCTURE"
	CategoryStaffConduct    GrievanceCategory = "STAFF_CONDUCT"
	CategoryCorruption      GrievanceCategory = "CORRUPTION"
	CategoryEnvironment     GrievanceCategory = "ENVIRONMENT"
	CategoryOther           GrievanceCategory = "OTHER"
)

// Grievance is the aggregate for citizen complaints. SLA tracking becomes
// active only once SubmittedAt is set; drafts carry no deadlines.
type Grievance struct {
	ID              string
	TrackingCode    string
	ProjectID       string
	RegionID        string
	ComplainantID   string
	ComplainantName string
	Category        GrievanceCategory
	Subject         string
	Description     string
	Status          GrievanceStatus
	SLA             SLAState
	SubmittedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ClosedAt        *time.Time
}

// IsTerminal reports whether the grievance can no longer change state.
func (s GrievanceStatus) IsTerminal() bool {
	return s == GrievanceStatusClosed || s == GrievanceStatusRejected
}

var allowedTransitions = map[GrievanceStatus][]GrievanceStatus{
	GrievanceStatusDraft:          {GrievanceStatusOpen},
	GrievanceStatusOpen:           {GrievanceStatusInProgress, GrievanceStatusResolved, GrievanceStatusRejected},
	GrievanceStatusInProgress:     {GrievanceStatusPendingCitizen, GrievanceStatusResolved, GrievanceStatusRejected},
	GrievanceStatusPendingCitizen: {GrievanceStatusInProgress, GrievanceStatusResolved},
	GrievanceStatusResolved:       {GrievanceStatusClosed, GrievanceStatusInProgress},
	GrievanceStatusClosed:         {},
	GrievanceStatusRejected:       {},
}

// IsValidTransition reports whether a grievance may move from current to next.
func IsValidTransition(current, next GrievanceStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
