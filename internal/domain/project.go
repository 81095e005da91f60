package domain

import "time"

// Project scopes a grievance-redress programme: its region hierarchy, level
// configuration, grievances and template overrides.
type Project struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
