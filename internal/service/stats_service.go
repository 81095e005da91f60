package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// ProjectStats aggregates grievance counts per dimension for one project.
type ProjectStats struct {
	ProjectID  string
	From       time.Time
	To         time.Time
	ByStatus   []repository.StatusCount
	ByCategory []repository.CategoryCount
	ByRegion   []repository.RegionCount
}

// PublicStatus is the tracking-code lookup view. It deliberately carries no
// complainant identity so the endpoint can stay unauthenticated.
type PublicStatus struct {
	TrackingCode    string
	Status          domain.GrievanceStatus
	RegionName      string
	SubmittedAt     *time.Time
	AckDueAt        *time.Time
	ResolutionDueAt *time.Time
	DaysRemaining   int
	EscalationCount int
}

// StatsService serves aggregate reporting and the public status lookup.
type StatsService struct {
	grievances repository.GrievanceRepository
	regions    repository.RegionRepository
}

// NewStatsService constructs the service.
func NewStatsService(grievances repository.GrievanceRepository, regions repository.RegionRepository) *StatsService {
	return &StatsService{grievances: grievances, regions: regions}
}

// ProjectStats aggregates counts by status, category and region over a window.
func (s *StatsService) ProjectStats(ctx context.Context, projectID string, from, to time.Time) (*ProjectStats, error) {
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, -3, 0)
	}
	if from.After(to) {
		return nil, apperrors.NewValidationError("from must precede to", map[string]any{
			"from": from, "to": to,
		})
	}

	byStatus, err := s.grievances.CountByStatus(ctx, projectID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byCategory, err := s.grievances.CountByCategory(ctx, projectID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byRegion, err := s.grievances.CountByRegion(ctx, projectID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &ProjectStats{
		ProjectID:  projectID,
		From:       from,
		To:         to,
		ByStatus:   byStatus,
		ByCategory: byCategory,
		ByRegion:   byRegion,
	}, nil
}

// StatusByTrackingCode resolves the public status view for a tracking code.
// Drafts are invisible; they have no public existence yet.
func (s *StatsService) StatusByTrackingCode(ctx context.Context, code string) (*PublicStatus, error) {
	grievance, err := s.grievances.GetByTrackingCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("grievance", map[string]any{"tracking_code": code})
		}
		return nil, apperrors.MapError(err)
	}
	if grievance.Status == domain.GrievanceStatusDraft {
		return nil, apperrors.NewNotFound("grievance", map[string]any{"tracking_code": code})
	}

	regionName := ""
	region, err := s.regions.GetByID(ctx, grievance.RegionID)
	if err == nil {
		regionName = region.Name
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	return &PublicStatus{
		TrackingCode:    grievance.TrackingCode,
		Status:          grievance.Status,
		RegionName:      regionName,
		SubmittedAt:     grievance.SubmittedAt,
		AckDueAt:        grievance.SLA.AckDueAt,
		ResolutionDueAt: grievance.SLA.ResolutionDueAt,
		DaysRemaining:   grievance.SLA.DaysRemaining,
		EscalationCount: grievance.SLA.EscalationCount,
	}, nil
}
