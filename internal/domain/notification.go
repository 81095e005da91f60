package domain

import "time"

// NotificationEventType enumerates the seven notification-worthy grievance
// events. New events must be added here and handled at every switch point.
type NotificationEventType string

const (
	EventReceipt        NotificationEventType = "RECEIPT"
	EventAcknowledgment NotificationEventType = "ACKNOWLEDGMENT"
	EventInProgress     NotificationEventType = "IN_PROGRESS"
	EventResolved       NotificationEventType = "RESOLVED"
	EventClosed         NotificationEventType = "CLOSED"
	EventEscalated      NotificationEventType = "ESCALATED"
	EventSLAReminder    NotificationEventType = "SLA_REMINDER"
)

// NotificationEventTypes lists every supported event type.
var NotificationEventTypes = []NotificationEventType{
	EventReceipt,
	EventAcknowledgment,
	EventInProgress,
	EventResolved,
	EventClosed,
	EventEscalated,
	EventSLAReminder,
}

// Valid reports whether the event type is one of the supported kinds.
func (t NotificationEventType) Valid() bool {
	for _, candidate := range NotificationEventTypes {
		if t == candidate {
			return true
		}
	}
	return false
}

// NotificationTemplate maps an event type to its message content. A nil
// ProjectID marks the shared default; a project-scoped active template
// overrides the shared one for that project.
type NotificationTemplate struct {
	ID               string
	EventType        NotificationEventType
	ProjectID        *string
	EmailTemplateRef string
	SMSEnabled       bool
	SMSBody          string
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NotificationChannel identifies the delivery medium.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "EMAIL"
	ChannelSMS   NotificationChannel = "SMS"
)

// NotificationRecord logs one accepted dispatch and backs the at-most-once
// guarantee per (grievance, event).
type NotificationRecord struct {
	ID          string
	GrievanceID string
	EventType   NotificationEventType
	Channel     NotificationChannel
	Recipient   string
	SentAt      time.Time
}
