package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/service"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// OfficerGrievancesHandler manages officer-facing grievance endpoints.
type OfficerGrievancesHandler struct {
	grievances    *service.GrievanceService
	escalations   *service.EscalationService
	notifications *service.NotificationService
}

// NewOfficerGrievancesHandler constructs handler.
func NewOfficerGrievancesHandler(grievanceService *service.GrievanceService, escalationService *service.EscalationService, notificationService *service.NotificationService) *OfficerGrievancesHandler {
	return &OfficerGrievancesHandler{
		grievances:    grievanceService,
		escalations:   escalationService,
		notifications: notificationService,
	}
}

// List GET /officer/grievances.
func (h *OfficerGrievancesHandler) List(c *fiber.Ctx) error {
	officer, err := officerFromContext(c)
	if err != nil {
		return err
	}
	filter := parseGrievanceQuery(c)
	if regionID := c.Query("region_id"); regionID != "" {
		filter.RegionID = &regionID
	}
	if projectID := c.Query("project_id"); projectID != "" {
		filter.ProjectID = &projectID
	}
	grievances, err := h.grievances.ListOfficerGrievances(c.Context(), officer, filter)
	if err != nil {
		return err
	}
	items := make([]dto.GrievanceSummary, 0, len(grievances))
	for i := range grievances {
		items = append(items, grievanceSummary(&grievances[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /officer/grievances/:id.
func (h *OfficerGrievancesHandler) Get(c *fiber.Ctx) error {
	officer, err := officerFromContext(c)
	if err != nil {
		return err
	}
	grievance, notes, err := h.grievances.GetGrievanceForOfficer(c.Context(), officer, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceDetail(grievance, notes)})
}

// Acknowledge POST /officer/grievances/:id/acknowledge.
func (h *OfficerGrievancesHandler) Acknowledge(c *fiber.Ctx) error {
	officer, err := officerFromContext(c)
	if err != nil {
		return err
	}
	grievance, err := h.grievances.Acknowledge(c.Context(), officer, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceSummary(grievance)})
}

// UpdateStatus PATCH /officer/grievances/:id/status.
func (h *OfficerGrievancesHandler) UpdateStatus(c *fiber.Ctx) error {
	officer, err := officerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	grievance, err := h.grievances.UpdateStatus(c.Context(), officer, c.Params("id"), req.Status, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceSummary(grievance)})
}

// Escalate POST /officer/grievances/:id/escalate.
func (h *OfficerGrievancesHandler) Escalate(c *fiber.Ctx) error {
	officer, err := officerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return apperrors.NewValidationError("reason required", nil)
	}
	grievance, err := h.escalations.Escalate(c.Context(), c.Params("id"), domain.TriggerManual, req.Reason, &officer.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceSummary(grievance)})
}

// Escalations GET /officer/grievances/:id/escalations.
func (h *OfficerGrievancesHandler) Escalations(c *fiber.Ctx) error {
	officer, err := officerFromContext(c)
	if err != nil {
		return err
	}
	if _, _, err := h.grievances.GetGrievanceForOfficer(c.Context(), officer, c.Params("id")); err != nil {
		return err
	}
	records, err := h.escalations.History(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.EscalationResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.EscalationResponse{
			ID:           record.ID,
			FromRegionID: record.FromRegionID,
			ToRegionID:   record.ToRegionID,
			Trigger:      record.Trigger,
			Reason:       record.Reason,
			ActorID:      record.ActorID,
			CreatedAt:    record.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Activity GET /officer/grievances/:id/activity.
func (h *OfficerGrievancesHandler) Activity(c *fiber.Ctx) error {
	officer, err := officerFromContext(c)
	if err != nil {
		return err
	}
	limit := parseInt(c.Query("limit"), 50)
	offset := (parseInt(c.Query("page"), 1) - 1) * limit
	entries, err := h.grievances.ListActivity(c.Context(), officer, c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.ActivityResponse{
			ID:         entry.ID,
			ActorType:  entry.ActorType,
			ActorID:    entry.ActorID,
			ChangeType: entry.ChangeType,
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddNote POST /officer/grievances/:id/notes.
func (h *OfficerGrievancesHandler) AddNote(c *fiber.Ctx) error {
	officer, err := officerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.NewValidationError("body required", nil)
	}
	visibility := req.Visibility
	if visibility == "" {
		visibility = domain.NoteInternal
	}
	note, err := h.grievances.AddNote(c.Context(), domain.ActorTypeOfficer, officer.ID, officer, c.Params("id"), visibility, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": noteResponse(note)})
}

// ResendNotification POST /officer/grievances/:id/notifications/resend.
func (h *OfficerGrievancesHandler) ResendNotification(c *fiber.Ctx) error {
	officer, err := officerFromContext(c)
	if err != nil {
		return err
	}
	if _, _, err := h.grievances.GetGrievanceForOfficer(c.Context(), officer, c.Params("id")); err != nil {
		return err
	}
	var req dto.ResendNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !req.EventType.Valid() {
		return apperrors.NewValidationError("unknown event_type", map[string]any{"event_type": req.EventType})
	}
	if err := h.notifications.ResendNotification(c.Context(), c.Params("id"), req.EventType); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "resent"}})
}

// Notifications GET /officer/grievances/:id/notifications.
func (h *OfficerGrievancesHandler) Notifications(c *fiber.Ctx) error {
	officer, err := officerFromContext(c)
	if err != nil {
		return err
	}
	if _, _, err := h.grievances.GetGrievanceForOfficer(c.Context(), officer, c.Params("id")); err != nil {
		return err
	}
	records, err := h.notifications.History(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.NotificationRecordResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.NotificationRecordResponse{
			ID:        record.ID,
			EventType: record.EventType,
			Channel:   record.Channel,
			Recipient: record.Recipient,
			SentAt:    record.SentAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func officerFromContext(c *fiber.Ctx) (*domain.Officer, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Officer == nil {
		return nil, apperrors.NewUnauthorized("officer required")
	}
	return principal.Officer, nil
}
