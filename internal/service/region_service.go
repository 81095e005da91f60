package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// RegionService manages region levels and the per-project administrative
// hierarchy. Level configuration is validated on save so the SLA calculator
// never has to handle broken timeframes.
type RegionService struct {
	regions  repository.RegionRepository
	levels   repository.LevelRepository
	projects repository.ProjectRepository
}

// NewRegionService constructs the service.
func NewRegionService(regions repository.RegionRepository, levels repository.LevelRepository, projects repository.ProjectRepository) *RegionService {
	return &RegionService{regions: regions, levels: levels, projects: projects}
}

// RegionInput carries region create/update parameters.
type RegionInput struct {
	ProjectID string
	Name      string
	LevelID   string
	ParentID  *string
}

// CreateLevel validates and stores a level definition.
func (s *RegionService) CreateLevel(ctx context.Context, level *domain.RegionLevel) error {
	if err := level.Validate(); err != nil {
		return err
	}
	if err := s.ensureUniqueRank(ctx, level); err != nil {
		return err
	}
	if err := s.levels.Create(ctx, level); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// UpdateLevel validates and stores changed level configuration. Existing
// grievances keep their computed due dates; new computations pick up the new
// timeframes.
func (s *RegionService) UpdateLevel(ctx context.Context, level *domain.RegionLevel) error {
	if err := level.Validate(); err != nil {
		return err
	}
	if err := s.ensureUniqueRank(ctx, level); err != nil {
		return err
	}
	if err := s.levels.Update(ctx, level); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("region level", map[string]any{"level_id": level.ID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// DeleteLevel removes a level only when no region references it.
func (s *RegionService) DeleteLevel(ctx context.Context, levelID string) error {
	count, err := s.regions.CountByLevel(ctx, levelID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if count > 0 {
		return apperrors.NewConflict("level is referenced by regions", map[string]any{
			"level_id":     levelID,
			"region_count": count,
		})
	}
	if err := s.levels.Delete(ctx, levelID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("region level", map[string]any{"level_id": levelID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ListLevels returns levels for a project ordered by rank.
func (s *RegionService) ListLevels(ctx context.Context, projectID string) ([]domain.RegionLevel, error) {
	levels, err := s.levels.ListByProject(ctx, projectID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return levels, nil
}

// GetLevel fetches one level.
func (s *RegionService) GetLevel(ctx context.Context, levelID string) (*domain.RegionLevel, error) {
	level, err := s.levels.GetByID(ctx, levelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("region level", map[string]any{"level_id": levelID})
		}
		return nil, apperrors.MapError(err)
	}
	return level, nil
}

// CreateRegion inserts a region under its parent and materializes its path.
// The path needs the generated id, so creation is insert-then-path-update.
func (s *RegionService) CreateRegion(ctx context.Context, input RegionInput) (*domain.AdministrativeRegion, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("region name required", nil)
	}
	if _, err := s.projects.GetByID(ctx, input.ProjectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("project", map[string]any{"project_id": input.ProjectID})
		}
		return nil, apperrors.MapError(err)
	}
	level, err := s.levels.GetByID(ctx, input.LevelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("region level", map[string]any{"level_id": input.LevelID})
		}
		return nil, apperrors.MapError(err)
	}
	if level.ProjectID != input.ProjectID {
		return nil, apperrors.NewValidationError("level belongs to a different project", map[string]any{
			"level_id": level.ID,
		})
	}

	parentPath := ""
	if input.ParentID != nil {
		parent, err := s.regions.GetByID(ctx, *input.ParentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("parent region", map[string]any{"region_id": *input.ParentID})
			}
			return nil, apperrors.MapError(err)
		}
		if parent.ProjectID != input.ProjectID {
			return nil, apperrors.NewValidationError("parent region belongs to a different project", map[string]any{
				"parent_id": parent.ID,
			})
		}
		parentPath = parent.Path
	}

	region := &domain.AdministrativeRegion{
		ProjectID: input.ProjectID,
		Name:      strings.TrimSpace(input.Name),
		LevelID:   input.LevelID,
		ParentID:  input.ParentID,
		Path:      parentPath,
	}
	if err := s.regions.Create(ctx, region); err != nil {
		return nil, apperrors.MapError(err)
	}
	region.Path = domain.BuildPath(parentPath, region.ID)
	if err := s.regions.Update(ctx, region); err != nil {
		return nil, apperrors.MapError(err)
	}
	return region, nil
}

// UpdateRegion renames a region, changes its level or moves it to a new
// parent. A move rejects cycles and rewrites the materialized paths of the
// whole subtree so path-based queries stay consistent.
func (s *RegionService) UpdateRegion(ctx context.Context, regionID string, input RegionInput) (*domain.AdministrativeRegion, error) {
	region, err := s.regions.GetByID(ctx, regionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("region", map[string]any{"region_id": regionID})
		}
		return nil, apperrors.MapError(err)
	}

	if input.Name != "" {
		region.Name = strings.TrimSpace(input.Name)
	}
	if input.LevelID != "" && input.LevelID != region.LevelID {
		level, err := s.levels.GetByID(ctx, input.LevelID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("region level", map[string]any{"level_id": input.LevelID})
			}
			return nil, apperrors.MapError(err)
		}
		if level.ProjectID != region.ProjectID {
			return nil, apperrors.NewValidationError("level belongs to a different project", map[string]any{
				"level_id": level.ID,
			})
		}
		region.LevelID = input.LevelID
	}

	moved := !sameParent(region.ParentID, input.ParentID)
	if moved {
		oldPath := region.Path
		newParentPath := ""
		if input.ParentID != nil {
			parent, err := s.regions.GetByID(ctx, *input.ParentID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, apperrors.NewNotFound("parent region", map[string]any{"region_id": *input.ParentID})
				}
				return nil, apperrors.MapError(err)
			}
			if parent.ProjectID != region.ProjectID {
				return nil, apperrors.NewValidationError("parent region belongs to a different project", map[string]any{
					"parent_id": parent.ID,
				})
			}
			if parent.ID == region.ID || parent.IsDescendantOf(region) {
				return nil, apperrors.NewConflict("move would create a cycle", map[string]any{
					"region_id": region.ID,
					"parent_id": parent.ID,
				})
			}
			newParentPath = parent.Path
		}
		region.ParentID = input.ParentID
		region.Path = domain.BuildPath(newParentPath, region.ID)

		if err := s.regions.Update(ctx, region); err != nil {
			return nil, apperrors.MapError(err)
		}
		if err := s.rewriteSubtreePaths(ctx, oldPath, region.Path, region.ID); err != nil {
			return nil, err
		}
		return region, nil
	}

	if err := s.regions.Update(ctx, region); err != nil {
		return nil, apperrors.MapError(err)
	}
	return region, nil
}

// GetRegion fetches one region.
func (s *RegionService) GetRegion(ctx context.Context, regionID string) (*domain.AdministrativeRegion, error) {
	region, err := s.regions.GetByID(ctx, regionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("region", map[string]any{"region_id": regionID})
		}
		return nil, apperrors.MapError(err)
	}
	return region, nil
}

// ListRegions returns a project's regions in path order, which yields a
// depth-first hierarchy traversal.
func (s *RegionService) ListRegions(ctx context.Context, projectID string) ([]domain.AdministrativeRegion, error) {
	regions, err := s.regions.ListByProject(ctx, projectID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return regions, nil
}

// ListSubtree returns a region and everything below it.
func (s *RegionService) ListSubtree(ctx context.Context, regionID string) ([]domain.AdministrativeRegion, error) {
	region, err := s.GetRegion(ctx, regionID)
	if err != nil {
		return nil, err
	}
	regions, err := s.regions.ListSubtree(ctx, region.Path)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return regions, nil
}

func (s *RegionService) rewriteSubtreePaths(ctx context.Context, oldPath, newPath, movedID string) error {
	subtree, err := s.regions.ListSubtree(ctx, oldPath)
	if err != nil {
		return apperrors.MapError(err)
	}
	for i := range subtree {
		node := subtree[i]
		if node.ID == movedID {
			continue
		}
		node.Path = newPath + strings.TrimPrefix(node.Path, oldPath)
		if err := s.regions.Update(ctx, &node); err != nil {
			return apperrors.MapError(err)
		}
	}
	return nil
}

func (s *RegionService) ensureUniqueRank(ctx context.Context, level *domain.RegionLevel) error {
	existing, err := s.levels.ListByProject(ctx, level.ProjectID)
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, candidate := range existing {
		if candidate.Rank == level.Rank && candidate.ID != level.ID {
			return apperrors.NewConfigurationError("rank already used by another level", map[string]any{
				"rank":     level.Rank,
				"level_id": candidate.ID,
			})
		}
	}
	return nil
}

func sameParent(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
