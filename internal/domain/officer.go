package domain

import "time"

// OfficerRole enumerates internal operator roles.
type OfficerRole string

const (
	OfficerRoleOfficer    OfficerRole = "OFFICER"
	OfficerRoleRegionLead OfficerRole = "REGION_LEAD"
	OfficerRoleAdmin      OfficerRole = "ADMIN"
)

// Officer models a grievance officer or administrator, optionally scoped to
// one project and one region subtree.
type Officer struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         OfficerRole
	ProjectID    *string
	RegionID     *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
