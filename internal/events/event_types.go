package events

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventGrievanceSubmitted     EventType = "grievance_submitted"
	EventGrievanceAcknowledged  EventType = "grievance_acknowledged"
	EventGrievanceStatusChanged EventType = "grievance_status_changed"
	EventGrievanceEscalated     EventType = "grievance_escalated"
	EventSLAReminderDue         EventType = "sla_reminder_due"
	EventGrievanceNoteAdded     EventType = "grievance_note_added"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type      domain.ActorType `json:"type"`
	UserID    *string          `json:"user_id,omitempty"`
	OfficerID *string          `json:"officer_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	GrievanceID string      `json:"grievance_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// GrievanceSubmittedPayload payload.
type GrievanceSubmittedPayload struct {
	TrackingCode    string                   `json:"tracking_code"`
	ProjectID       string                   `json:"project_id"`
	RegionID        string                   `json:"region_id"`
	Category        domain.GrievanceCategory `json:"category"`
	AckDueAt        *time.Time               `json:"ack_due_at,omitempty"`
	ResolutionDueAt *time.Time               `json:"resolution_due_at,omitempty"`
}

// GrievanceStatusChangedPayload payload.
type GrievanceStatusChangedPayload struct {
	OldStatus domain.GrievanceStatus `json:"old_status"`
	NewStatus domain.GrievanceStatus `json:"new_status"`
	Comment   string                 `json:"comment,omitempty"`
}

// GrievanceEscalatedPayload payload.
type GrievanceEscalatedPayload struct {
	FromRegionID    string                   `json:"from_region_id"`
	ToRegionID      string                   `json:"to_region_id"`
	Trigger         domain.EscalationTrigger `json:"trigger"`
	Reason          string                   `json:"reason"`
	EscalationCount int                      `json:"escalation_count"`
}

// SLAReminderDuePayload payload.
type SLAReminderDuePayload struct {
	Dimension     string     `json:"dimension"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	DaysRemaining int        `json:"days_remaining"`
}

// GrievanceNoteAddedPayload payload.
type GrievanceNoteAddedPayload struct {
	NoteID      string                `json:"note_id"`
	Visibility  domain.NoteVisibility `json:"visibility"`
	AuthorType  domain.ActorType      `json:"author_type"`
	AuthorID    *string               `json:"author_id,omitempty"`
	BodyPreview string                `json:"body_preview"`
}
