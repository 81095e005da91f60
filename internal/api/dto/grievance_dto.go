package dto

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// CreateGrievanceRequest payload.
type CreateGrievanceRequest struct {
	ProjectID   string                   `json:"project_id"`
	RegionID    string                   `json:"region_id"`
	Category    domain.GrievanceCategory `json:"category"`
	Subject     string                   `json:"subject"`
	Description string                   `json:"description"`
	Submit      bool                     `json:"submit"`
}

// UpdateStatusRequest payload for officer status transitions.
type UpdateStatusRequest struct {
	Status  domain.GrievanceStatus `json:"status"`
	Comment string                 `json:"comment"`
}

// EscalateRequest payload for manual escalation.
type EscalateRequest struct {
	Reason string `json:"reason"`
}

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	Body       string                `json:"body"`
	Visibility domain.NoteVisibility `json:"visibility,omitempty"`
}

// ResendNotificationRequest payload.
type ResendNotificationRequest struct {
	EventType domain.NotificationEventType `json:"event_type"`
}

// SLAStateResponse mirrors the SLA tracking fields.
type SLAStateResponse struct {
	AckDueAt             *time.Time       `json:"ack_due_at"`
	ResolutionDueAt      *time.Time       `json:"resolution_due_at"`
	AckStatus            domain.SLAStatus `json:"ack_status,omitempty"`
	ResolutionStatus     domain.SLAStatus `json:"resolution_status,omitempty"`
	DaysRemaining        int              `json:"days_remaining"`
	AcknowledgedAt       *time.Time       `json:"acknowledged_at,omitempty"`
	ResolvedAt           *time.Time       `json:"resolved_at,omitempty"`
	EscalationCount      int              `json:"escalation_count"`
	LastEscalatedAt      *time.Time       `json:"last_escalated_at,omitempty"`
	LastEscalationReason string           `json:"last_escalation_reason,omitempty"`
}

// GrievanceSummary response.
type GrievanceSummary struct {
	ID           string                   `json:"id"`
	TrackingCode string                   `json:"tracking_code"`
	ProjectID    string                   `json:"project_id"`
	RegionID     string                   `json:"region_id"`
	Category     domain.GrievanceCategory `json:"category"`
	Subject      string                   `json:"subject"`
	Status       domain.GrievanceStatus   `json:"status"`
	SLA          SLAStateResponse         `json:"sla"`
	SubmittedAt  *time.Time               `json:"submitted_at,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// GrievanceDetailResponse provides full grievance info.
type GrievanceDetailResponse struct {
	GrievanceSummary
	Description string         `json:"description"`
	ClosedAt    *time.Time     `json:"closed_at,omitempty"`
	Notes       []NoteResponse `json:"notes"`
}

// NoteResponse represents one thread note.
type NoteResponse struct {
	ID         string                `json:"id"`
	AuthorType domain.ActorType      `json:"author_type"`
	AuthorID   *string               `json:"author_id,omitempty"`
	Visibility domain.NoteVisibility `json:"visibility"`
	Body       string                `json:"body"`
	CreatedAt  time.Time             `json:"created_at"`
}

// ActivityResponse represents one audit entry.
type ActivityResponse struct {
	ID         string                    `json:"id"`
	ActorType  domain.ActorType          `json:"actor_type"`
	ActorID    *string                   `json:"actor_id,omitempty"`
	ChangeType domain.ActivityChangeType `json:"change_type"`
	OldValue   map[string]any            `json:"old_value,omitempty"`
	NewValue   map[string]any            `json:"new_value,omitempty"`
	CreatedAt  time.Time                 `json:"created_at"`
}

// EscalationResponse represents one escalation hop.
type EscalationResponse struct {
	ID           string                   `json:"id"`
	FromRegionID string                   `json:"from_region_id"`
	ToRegionID   string                   `json:"to_region_id"`
	Trigger      domain.EscalationTrigger `json:"trigger"`
	Reason       string                   `json:"reason"`
	ActorID      *string                  `json:"actor_id,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}

// NotificationRecordResponse represents one accepted dispatch.
type NotificationRecordResponse struct {
	ID        string                       `json:"id"`
	EventType domain.NotificationEventType `json:"event_type"`
	Channel   domain.NotificationChannel   `json:"channel"`
	Recipient string                       `json:"recipient"`
	SentAt    time.Time                    `json:"sent_at"`
}

// PublicStatusResponse is the unauthenticated tracking lookup view.
type PublicStatusResponse struct {
	TrackingCode    string                 `json:"tracking_code"`
	Status          domain.GrievanceStatus `json:"status"`
	RegionName      string                 `json:"administrative_region"`
	SubmittedAt     *time.Time             `json:"submitted_at,omitempty"`
	AckDueAt        *time.Time             `json:"acknowledgment_due,omitempty"`
	ResolutionDueAt *time.Time             `json:"resolution_due,omitempty"`
	DaysRemaining   int                    `json:"sla_days_remaining"`
	EscalationCount int                    `json:"escalation_count"`
}
