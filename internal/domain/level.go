package domain

import (
	"time"

	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// RegionLevel carries the SLA timeframe configuration for one tier of the
// administrative hierarchy. Lower rank sits higher in the hierarchy.
type RegionLevel struct {
	ID                 string
	ProjectID          string
	Name               string
	Rank               int
	AcknowledgmentDays int
	ResolutionDays     int
	ReminderLeadDays   int
	AutoEscalate       bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate rejects invalid SLA configuration at save time so runtime
// computation never sees it.
func (l *RegionLevel) Validate() error {
	if l.ResolutionDays <= 0 {
		return apperrors.NewConfigurationError("resolution_days must exceed 0", map[string]any{
			"resolution_days": l.ResolutionDays,
		})
	}
	if l.AcknowledgmentDays < 0 {
		return apperrors.NewConfigurationError("acknowledgment_days must not be negative", map[string]any{
			"acknowledgment_days": l.AcknowledgmentDays,
		})
	}
	if l.AcknowledgmentDays > l.ResolutionDays {
		return apperrors.NewConfigurationError("acknowledgment_days must not exceed resolution_days", map[string]any{
			"acknowledgment_days": l.AcknowledgmentDays,
			"resolution_days":     l.ResolutionDays,
		})
	}
	if l.ReminderLeadDays < 0 || l.ReminderLeadDays > l.ResolutionDays {
		return apperrors.NewConfigurationError("reminder_lead_days must be between 0 and resolution_days", map[string]any{
			"reminder_lead_days": l.ReminderLeadDays,
			"resolution_days":    l.ResolutionDays,
		})
	}
	if l.Rank < 0 {
		return apperrors.NewConfigurationError("rank must not be negative", map[string]any{"rank": l.Rank})
	}
	return nil
}
