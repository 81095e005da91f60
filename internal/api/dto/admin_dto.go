package dto

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
)

// LevelRequest payload for level create/update.
type LevelRequest struct {
	ProjectID          string `json:"project_id"`
	Name               string `json:"name"`
	Rank               int    `json:"rank"`
	AcknowledgmentDays int    `json:"acknowledgment_days"`
	ResolutionDays     int    `json:"resolution_days"`
	ReminderLeadDays   int    `json:"reminder_lead_days"`
	AutoEscalate       bool   `json:"auto_escalate"`
}

// LevelResponse mirrors one region level.
type LevelResponse struct {
	ID                 string    `json:"id"`
	ProjectID          string    `json:"project_id"`
	Name               string    `json:"name"`
	Rank               int       `json:"rank"`
	AcknowledgmentDays int       `json:"acknowledgment_days"`
	ResolutionDays     int       `json:"resolution_days"`
	ReminderLeadDays   int       `json:"reminder_lead_days"`
	AutoEscalate       bool      `json:"auto_escalate"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// RegionRequest payload for region create/update.
type RegionRequest struct {
	ProjectID string  `json:"project_id"`
	Name      string  `json:"name"`
	LevelID   string  `json:"level_id"`
	ParentID  *string `json:"parent_id"`
}

// RegionResponse mirrors one administrative region.
type RegionResponse struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	LevelID   string    `json:"level_id"`
	ParentID  *string   `json:"parent_id,omitempty"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TemplateRequest payload for template create/update.
type TemplateRequest struct {
	EventType        domain.NotificationEventType `json:"event_type"`
	ProjectID        *string                      `json:"project_id"`
	EmailTemplateRef string                       `json:"email_template_ref"`
	SMSEnabled       bool                         `json:"sms_enabled"`
	SMSBody          string                       `json:"sms_body"`
	Active           bool                         `json:"active"`
}

// TemplateResponse mirrors one notification template.
type TemplateResponse struct {
	ID               string                       `json:"id"`
	EventType        domain.NotificationEventType `json:"event_type"`
	ProjectID        *string                      `json:"project_id,omitempty"`
	EmailTemplateRef string                       `json:"email_template_ref"`
	SMSEnabled       bool                         `json:"sms_enabled"`
	SMSBody          string                       `json:"sms_body"`
	Active           bool                         `json:"active"`
	CreatedAt        time.Time                    `json:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
}

// ProjectRequest payload for project create/update.
type ProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// ProjectResponse mirrors one project.
type ProjectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StatsResponse aggregates counts per dimension over a window.
type StatsResponse struct {
	ProjectID  string                  `json:"project_id"`
	From       time.Time               `json:"from"`
	To         time.Time               `json:"to"`
	ByStatus   []StatusCountResponse   `json:"by_status"`
	ByCategory []CategoryCountResponse `json:"by_category"`
	ByRegion   []RegionCountResponse   `json:"by_region"`
}

// SweepResponse summarizes a manually triggered SLA sweep.
type SweepResponse struct {
	Processed int `json:"processed"`
	Reminders int `json:"reminders"`
	Escalated int `json:"escalated"`
	Failures  int `json:"failures"`
}

// StatusCountResponse is one status bucket.
type StatusCountResponse struct {
	Status domain.GrievanceStatus `json:"status"`
	Count  int                    `json:"count"`
}

// CategoryCountResponse is one category bucket.
type CategoryCountResponse struct {
	Category domain.GrievanceCategory `json:"category"`
	Count    int                      `json:"count"`
}

// RegionCountResponse is one region bucket.
type RegionCountResponse struct {
	RegionID   string `json:"region_id"`
	RegionName string `json:"region_name"`
	Count      int    `json:"count"`
}

// NewStatusCounts converts repository aggregates.
func NewStatusCounts(counts []repository.StatusCount) []StatusCountResponse {
	result := make([]StatusCountResponse, 0, len(counts))
	for _, entry := range counts {
		result = append(result, StatusCountResponse{Status: entry.Status, Count: entry.Count})
	}
	return result
}

// NewCategoryCounts converts repository aggregates.
func NewCategoryCounts(counts []repository.CategoryCount) []CategoryCountResponse {
	result := make([]CategoryCountResponse, 0, len(counts))
	for _, entry := range counts {
		result = append(result, CategoryCountResponse{Category: entry.Category, Count: entry.Count})
	}
	return result
}

// NewRegionCounts converts repository aggregates.
func NewRegionCounts(counts []repository.RegionCount) []RegionCountResponse {
	result := make([]RegionCountResponse, 0, len(counts))
	for _, entry := range counts {
		result = append(result, RegionCountResponse{RegionID: entry.RegionID, RegionName: entry.RegionName, Count: entry.Count})
	}
	return result
}
