package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/service"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// GrievancesHandler manages citizen-facing grievance endpoints.
type GrievancesHandler struct {
	grievances *service.GrievanceService
}

// NewGrievancesHandler constructs handler.
func NewGrievancesHandler(grievanceService *service.GrievanceService) *GrievancesHandler {
	return &GrievancesHandler{grievances: grievanceService}
}

// Create POST /grievances. With submit=true the draft is activated in the
// same call.
func (h *GrievancesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateGrievanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ProjectID == "" || req.RegionID == "" || strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("project_id, region_id, subject, description required", nil)
	}

	grievance, err := h.grievances.CreateDraft(c.Context(), principal.User, service.GrievanceCreateInput{
		ProjectID:   req.ProjectID,
		RegionID:    req.RegionID,
		Category:    req.Category,
		Subject:     req.Subject,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	if req.Submit {
		grievance, err = h.grievances.Submit(c.Context(), principal.User.ID, grievance.ID)
		if err != nil {
			return err
		}
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": grievanceSummary(grievance)})
}

// Submit POST /grievances/:id/submit.
func (h *GrievancesHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	grievance, err := h.grievances.Submit(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceSummary(grievance)})
}

// List GET /grievances.
func (h *GrievancesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	filter := parseGrievanceQuery(c)
	grievances, err := h.grievances.ListUserGrievances(c.Context(), principal.User.ID, filter)
	if err != nil {
		return err
	}
	items := make([]dto.GrievanceSummary, 0, len(grievances))
	for i := range grievances {
		items = append(items, grievanceSummary(&grievances[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /grievances/:id.
func (h *GrievancesHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	grievance, notes, err := h.grievances.GetGrievanceForUser(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceDetail(grievance, notes)})
}

// AddNote POST /grievances/:id/notes.
func (h *GrievancesHandler) AddNote(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.NewValidationError("body required", nil)
	}
	note, err := h.grievances.AddNote(c.Context(), domain.ActorTypeUser, principal.User.ID, nil, c.Params("id"), domain.NotePublic, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": noteResponse(note)})
}

// Close POST /grievances/:id/close.
func (h *GrievancesHandler) Close(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	grievance, err := h.grievances.CloseAsUser(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceSummary(grievance)})
}

func parseGrievanceQuery(c *fiber.Ctx) repository.GrievanceFilter {
	filter := repository.GrievanceFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.GrievanceStatus(strings.TrimSpace(part)))
		}
	}
	if categoryStr := c.Query("category"); categoryStr != "" {
		for _, part := range strings.Split(categoryStr, ",") {
			filter.Categories = append(filter.Categories, domain.GrievanceCategory(strings.TrimSpace(part)))
		}
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func slaResponse(state domain.SLAState) dto.SLAStateResponse {
	return dto.SLAStateResponse{
		AckDueAt:             state.AckDueAt,
		ResolutionDueAt:      state.ResolutionDueAt,
		AckStatus:            state.AckStatus,
		ResolutionStatus:     state.ResolutionStatus,
		DaysRemaining:        state.DaysRemaining,
		AcknowledgedAt:       state.AcknowledgedAt,
		ResolvedAt:           state.ResolvedAt,
		EscalationCount:      state.EscalationCount,
		LastEscalatedAt:      state.LastEscalatedAt,
		LastEscalationReason: state.LastEscalationReason,
	}
}

func grievanceSummary(grievance *domain.Grievance) dto.GrievanceSummary {
	return dto.GrievanceSummary{
		ID:           grievance.ID,
		TrackingCode: grievance.TrackingCode,
		ProjectID:    grievance.ProjectID,
		RegionID:     grievance.RegionID,
		Category:     grievance.Category,
		Subject:      grievance.Subject,
		Status:       grievance.Status,
		SLA:          slaResponse(grievance.SLA),
		SubmittedAt:  grievance.SubmittedAt,
		CreatedAt:    grievance.CreatedAt,
		UpdatedAt:    grievance.UpdatedAt,
	}
}

func grievanceDetail(grievance *domain.Grievance, notes []domain.GrievanceNote) dto.GrievanceDetailResponse {
	noteItems := make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		noteItems = append(noteItems, noteResponse(&notes[i]))
	}
	return dto.GrievanceDetailResponse{
		GrievanceSummary: grievanceSummary(grievance),
		Description:      grievance.Description,
		ClosedAt:         grievance.ClosedAt,
		Notes:            noteItems,
	}
}

func noteResponse(note *domain.GrievanceNote) dto.NoteResponse {
	return dto.NoteResponse{
		ID:         note.ID,
		AuthorType: note.AuthorType,
		AuthorID:   note.AuthorID,
		Visibility: note.Visibility,
		Body:       note.Body,
		CreatedAt:  note.CreatedAt,
	}
}
