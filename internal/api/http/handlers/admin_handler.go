package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/service"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// AdminHandler manages configuration endpoints: projects, region levels, the
// region hierarchy, notification templates and reporting.
type AdminHandler struct {
	regions   *service.RegionService
	stats     *service.StatsService
	monitor   *service.MonitorService
	projects  repository.ProjectRepository
	templates repository.TemplateRepository
}

// NewAdminHandler constructs handler.
func NewAdminHandler(regionService *service.RegionService, statsService *service.StatsService, monitorService *service.MonitorService, projectRepo repository.ProjectRepository, templateRepo repository.TemplateRepository) *AdminHandler {
	return &AdminHandler{
		regions:   regionService,
		stats:     statsService,
		monitor:   monitorService,
		projects:  projectRepo,
		templates: templateRepo,
	}
}

// CreateProject POST /admin/projects.
func (h *AdminHandler) CreateProject(c *fiber.Ctx) error {
	var req dto.ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" {
		return apperrors.NewValidationError("name required", nil)
	}
	project := &domain.Project{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		project.IsActive = *req.IsActive
	}
	if err := h.projects.Create(c.Context(), project); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": projectResponse(project)})
}

// UpdateProject PATCH /admin/projects/:id.
func (h *AdminHandler) UpdateProject(c *fiber.Ctx) error {
	project, err := h.projects.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("project", map[string]any{"project_id": c.Params("id")})
		}
		return apperrors.MapError(err)
	}
	var req dto.ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if req.IsActive != nil {
		project.IsActive = *req.IsActive
	}
	if err := h.projects.Update(c.Context(), project); err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": projectResponse(project)})
}

// ListProjects GET /admin/projects.
func (h *AdminHandler) ListProjects(c *fiber.Ctx) error {
	projects, err := h.projects.List(c.Context())
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		items = append(items, projectResponse(&projects[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateLevel POST /admin/levels.
func (h *AdminHandler) CreateLevel(c *fiber.Ctx) error {
	var req dto.LevelRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ProjectID == "" || req.Name == "" {
		return apperrors.NewValidationError("project_id, name required", nil)
	}
	level := levelFromRequest(req)
	if err := h.regions.CreateLevel(c.Context(), level); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": levelResponse(level)})
}

// UpdateLevel PUT /admin/levels/:id.
func (h *AdminHandler) UpdateLevel(c *fiber.Ctx) error {
	var req dto.LevelRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ProjectID == "" || req.Name == "" {
		return apperrors.NewValidationError("project_id, name required", nil)
	}
	level := levelFromRequest(req)
	level.ID = c.Params("id")
	if err := h.regions.UpdateLevel(c.Context(), level); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": levelResponse(level)})
}

// DeleteLevel DELETE /admin/levels/:id.
func (h *AdminHandler) DeleteLevel(c *fiber.Ctx) error {
	if err := h.regions.DeleteLevel(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListLevels GET /admin/levels?project_id=.
func (h *AdminHandler) ListLevels(c *fiber.Ctx) error {
	projectID := c.Query("project_id")
	if projectID == "" {
		return apperrors.NewValidationError("project_id required", nil)
	}
	levels, err := h.regions.ListLevels(c.Context(), projectID)
	if err != nil {
		return err
	}
	items := make([]dto.LevelResponse, 0, len(levels))
	for i := range levels {
		items = append(items, levelResponse(&levels[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateRegion POST /admin/regions.
func (h *AdminHandler) CreateRegion(c *fiber.Ctx) error {
	var req dto.RegionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ProjectID == "" || req.Name == "" || req.LevelID == "" {
		return apperrors.NewValidationError("project_id, name, level_id required", nil)
	}
	region, err := h.regions.CreateRegion(c.Context(), service.RegionInput{
		ProjectID: req.ProjectID,
		Name:      req.Name,
		LevelID:   req.LevelID,
		ParentID:  req.ParentID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": regionResponse(region)})
}

// UpdateRegion PUT /admin/regions/:id.
func (h *AdminHandler) UpdateRegion(c *fiber.Ctx) error {
	var req dto.RegionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	region, err := h.regions.UpdateRegion(c.Context(), c.Params("id"), service.RegionInput{
		Name:     req.Name,
		LevelID:  req.LevelID,
		ParentID: req.ParentID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": regionResponse(region)})
}

// ListRegions GET /admin/regions?project_id=.
func (h *AdminHandler) ListRegions(c *fiber.Ctx) error {
	projectID := c.Query("project_id")
	if projectID == "" {
		return apperrors.NewValidationError("project_id required", nil)
	}
	regions, err := h.regions.ListRegions(c.Context(), projectID)
	if err != nil {
		return err
	}
	items := make([]dto.RegionResponse, 0, len(regions))
	for i := range regions {
		items = append(items, regionResponse(&regions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Subtree GET /admin/regions/:id/subtree.
func (h *AdminHandler) Subtree(c *fiber.Ctx) error {
	regions, err := h.regions.ListSubtree(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.RegionResponse, 0, len(regions))
	for i := range regions {
		items = append(items, regionResponse(&regions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateTemplate POST /admin/templates.
func (h *AdminHandler) CreateTemplate(c *fiber.Ctx) error {
	var req dto.TemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !req.EventType.Valid() {
		return apperrors.NewValidationError("unknown event_type", map[string]any{"event_type": req.EventType})
	}
	template := &domain.NotificationTemplate{
		EventType:        req.EventType,
		ProjectID:        req.ProjectID,
		EmailTemplateRef: req.EmailTemplateRef,
		SMSEnabled:       req.SMSEnabled,
		SMSBody:          req.SMSBody,
		Active:           req.Active,
	}
	if err := h.templates.Create(c.Context(), template); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": templateResponse(template)})
}

// UpdateTemplate PUT /admin/templates/:id.
func (h *AdminHandler) UpdateTemplate(c *fiber.Ctx) error {
	var req dto.TemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !req.EventType.Valid() {
		return apperrors.NewValidationError("unknown event_type", map[string]any{"event_type": req.EventType})
	}
	template := &domain.NotificationTemplate{
		ID:               c.Params("id"),
		EventType:        req.EventType,
		ProjectID:        req.ProjectID,
		EmailTemplateRef: req.EmailTemplateRef,
		SMSEnabled:       req.SMSEnabled,
		SMSBody:          req.SMSBody,
		Active:           req.Active,
	}
	if err := h.templates.Update(c.Context(), template); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("template", map[string]any{"template_id": template.ID})
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": templateResponse(template)})
}

// ListTemplates GET /admin/templates?project_id=.
func (h *AdminHandler) ListTemplates(c *fiber.Ctx) error {
	var projectID *string
	if val := c.Query("project_id"); val != "" {
		projectID = &val
	}
	templates, err := h.templates.List(c.Context(), projectID)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.TemplateResponse, 0, len(templates))
	for i := range templates {
		items = append(items, templateResponse(&templates[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Stats GET /reporting/stats?project_id=&from=&to=.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	projectID := c.Query("project_id")
	if projectID == "" {
		return apperrors.NewValidationError("project_id required", nil)
	}
	var from, to time.Time
	if t := parseTime(c.Query("from")); t != nil {
		from = *t
	}
	if t := parseTime(c.Query("to")); t != nil {
		to = *t
	}
	stats, err := h.stats.ProjectStats(c.Context(), projectID, from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatsResponse{
		ProjectID:  stats.ProjectID,
		From:       stats.From,
		To:         stats.To,
		ByStatus:   dto.NewStatusCounts(stats.ByStatus),
		ByCategory: dto.NewCategoryCounts(stats.ByCategory),
		ByRegion:   dto.NewRegionCounts(stats.ByRegion),
	}})
}

// SweepNow POST /admin/sla/sweep. Runs the SLA sweep outside the schedule,
// bypassing the daily lock.
func (h *AdminHandler) SweepNow(c *fiber.Ctx) error {
	result, err := h.monitor.Sweep(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SweepResponse{
		Processed: result.Processed,
		Reminders: result.Reminders,
		Escalated: result.Escalated,
		Failures:  result.Failures,
	}})
}

func levelFromRequest(req dto.LevelRequest) *domain.RegionLevel {
	return &domain.RegionLevel{
		ProjectID:          req.ProjectID,
		Name:               req.Name,
		Rank:               req.Rank,
		AcknowledgmentDays: req.AcknowledgmentDays,
		ResolutionDays:     req.ResolutionDays,
		ReminderLeadDays:   req.ReminderLeadDays,
		AutoEscalate:       req.AutoEscalate,
	}
}

func levelResponse(level *domain.RegionLevel) dto.LevelResponse {
	return dto.LevelResponse{
		ID:                 level.ID,
		ProjectID:          level.ProjectID,
		Name:               level.Name,
		Rank:               level.Rank,
		AcknowledgmentDays: level.AcknowledgmentDays,
		ResolutionDays:     level.ResolutionDays,
		ReminderLeadDays:   level.ReminderLeadDays,
		AutoEscalate:       level.AutoEscalate,
		CreatedAt:          level.CreatedAt,
		UpdatedAt:          level.UpdatedAt,
	}
}

func regionResponse(region *domain.AdministrativeRegion) dto.RegionResponse {
	return dto.RegionResponse{
		ID:        region.ID,
		ProjectID: region.ProjectID,
		Name:      region.Name,
		LevelID:   region.LevelID,
		ParentID:  region.ParentID,
		Path:      region.Path,
		CreatedAt: region.CreatedAt,
		UpdatedAt: region.UpdatedAt,
	}
}

func projectResponse(project *domain.Project) dto.ProjectResponse {
	return dto.ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		IsActive:    project.IsActive,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

func templateResponse(template *domain.NotificationTemplate) dto.TemplateResponse {
	return dto.TemplateResponse{
		ID:               template.ID,
		EventType:        template.EventType,
		ProjectID:        template.ProjectID,
		EmailTemplateRef: template.EmailTemplateRef,
		SMSEnabled:       template.SMSEnabled,
		SMSBody:          template.SMSBody,
		Active:           template.Active,
		CreatedAt:        template.CreatedAt,
		UpdatedAt:        template.UpdatedAt,
	}
}
