package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/service"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// PublicHandler serves unauthenticated endpoints.
type PublicHandler struct {
	stats *service.StatsService
}

// NewPublicHandler constructs handler.
func NewPublicHandler(statsService *service.StatsService) *PublicHandler {
	return &PublicHandler{stats: statsService}
}

// TrackingLookup GET /public/grievances/:code. The view carries deadlines and
// progress but never the complainant's identity.
func (h *PublicHandler) TrackingLookup(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return apperrors.NewValidationError("tracking code required", nil)
	}
	status, err := h.stats.StatusByTrackingCode(c.Context(), code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PublicStatusResponse{
		TrackingCode:    status.TrackingCode,
		Status:          status.Status,
		RegionName:      status.RegionName,
		SubmittedAt:     status.SubmittedAt,
		AckDueAt:        status.AckDueAt,
		ResolutionDueAt: status.ResolutionDueAt,
		DaysRemaining:   status.DaysRemaining,
		EscalationCount: status.EscalationCount,
	}})
}

// Stats GET /public/stats. Aggregated counts only, no individual records.
func (h *PublicHandler) Stats(c *fiber.Ctx) error {
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
