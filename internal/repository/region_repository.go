package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// RegionRepository encapsulates administrative region persistence.
type RegionRepository interface {
	Create(ctx context.Context, region *domain.AdministrativeRegion) error
	Update(ctx context.Context, region *domain.AdministrativeRegion) error
	GetByID(ctx context.Context, id string) (*domain.AdministrativeRegion, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.AdministrativeRegion, error)
	ListSubtree(ctx context.Context, path string) ([]domain.AdministrativeRegion, error)
	CountByLevel(ctx context.Context, levelID string) (int, error)
}

type regionRepository struct {
	pool *pgxpool.Pool
}

// NewRegionRepository instantiates repository.
func NewRegionRepository(pool *pgxpool.Pool) RegionRepository {
	return &regionRepository{pool: pool}
}

func (r *regionRepository) Create(ctx context.Context, region *domain.AdministrativeRegion) error {
	const query = `
        INSERT INTO administrative_regions (project_id, name, level_id, parent_id, path)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		region.ProjectID,
		region.Name,
		region.LevelID,
		region.ParentID,
		region.Path,
	).Scan(&region.ID, &region.CreatedAt, &region.UpdatedAt)
}

func (r *regionRepository) Update(ctx context.Context, region *domain.AdministrativeRegion) error {
	const query = `
        UPDATE administrative_regions SET name=$1, level_id=$2, parent_id=$3, path=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		region.Name,
		region.LevelID,
		region.ParentID,
		region.Path,
		region.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *regionRepository) GetByID(ctx context.Context, id string) (*domain.AdministrativeRegion, error) {
	const query = `
        SELECT id, project_id, name, level_id, parent_id, path, created_at, updated_at
        FROM administrative_regions WHERE id=$1`
	var region domain.AdministrativeRegion
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&region.ID,
		&region.ProjectID,
		&region.Name,
		&region.LevelID,
		&region.ParentID,
		&region.Path,
		&region.CreatedAt,
		&region.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &region, nil
}

func (r *regionRepository) ListByProject(ctx context.Context, projectID string) ([]domain.AdministrativeRegion, error) {
	const query = `
        SELECT id, project_id, name, level_id, parent_id, path, created_at, updated_at
        FROM administrative_regions WHERE project_id=$1 ORDER BY path`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRegions(rows)
}

// ListSubtree returns the region at path plus all its descendants, judged by
// materialized path prefix.
func (r *regionRepository) ListSubtree(ctx context.Context, path string) ([]domain.AdministrativeRegion, error) {
	const query = `
        SELECT id, project_id, name, level_id, parent_id, path, created_at, updated_at
        FROM administrative_regions
        WHERE path = $1 OR path LIKE $2
        ORDER BY path`
	rows, err := r.pool.Query(ctx, query, path, path+domain.PathSeparator+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRegions(rows)
}

func (r *regionRepository) CountByLevel(ctx context.Context, levelID string) (int, error) {
	const query = `SELECT COUNT(*) FROM administrative_regions WHERE level_id=$1`
	var count int
	if err := r.pool.QueryRow(ctx, query, levelID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanRegions(rows pgx.Rows) ([]domain.AdministrativeRegion, error) {
	var result []domain.AdministrativeRegion
	for rows.Next() {
		var region domain.AdministrativeRegion
		if err := rows.Scan(
			&region.ID,
			&region.ProjectID,
			&region.Name,
			&region.LevelID,
			&region.ParentID,
			&region.Path,
			&region.CreatedAt,
			&region.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, region)
	}
	return result, rows.Err()
}
