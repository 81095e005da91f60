package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// LevelRepository encapsulates region level (SLA configuration) persistence.
type LevelRepository interface {
	Create(ctx context.Context, level *domain.RegionLevel) error
	Update(ctx context.Context, level *domain.RegionLevel) error
	GetByID(ctx context.Context, id string) (*domain.RegionLevel, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.RegionLevel, error)
	Delete(ctx context.Context, id string) error
}

type levelRepository struct {
	pool *pgxpool.Pool
}

// NewLevelRepository instantiates repository.
func NewLevelRepository(pool *pgxpool.Pool) LevelRepository {
	return &levelRepository{pool: pool}
}

func (r *levelRepository) Create(ctx context.Context, level *domain.RegionLevel) error {
	const query = `
        INSERT INTO region_levels (project_id, name, rank, acknowledgment_days, resolution_days,
            reminder_lead_days, auto_escalate)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		level.ProjectID,
		level.Name,
		level.Rank,
		level.AcknowledgmentDays,
		level.ResolutionDays,
		level.ReminderLeadDays,
		level.AutoEscalate,
	).Scan(&level.ID, &level.CreatedAt, &level.UpdatedAt)
}

func (r *levelRepository) Update(ctx context.Context, level *domain.RegionLevel) error {
	const query = `
        UPDATE region_levels SET name=$1, rank=$2, acknowledgment_days=$3, resolution_days=$4,
            reminder_lead_days=$5, auto_escalate=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		level.Name,
		level.Rank,
		level.AcknowledgmentDays,
		level.ResolutionDays,
		level.ReminderLeadDays,
		level.AutoEscalate,
		level.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *levelRepository) GetByID(ctx context.Context, id string) (*domain.RegionLevel, error) {
	const query = `
        SELECT id, project_id, name, rank, acknowledgment_days, resolution_days,
               reminder_lead_days, auto_escalate, created_at, updated_at
        FROM region_levels WHERE id=$1`
	var level domain.RegionLevel
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&level.ID,
		&level.ProjectID,
		&level.Name,
		&level.Rank,
		&level.AcknowledgmentDays,
		&level.ResolutionDays,
		&level.ReminderLeadDays,
		&level.AutoEscalate,
		&level.CreatedAt,
		&level.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *levelRepository) ListByProject(ctx context.Context, projectID string) ([]domain.RegionLevel, error) {
	const query = `
        SELECT id, project_id, name, rank, acknowledgment_days, resolution_days,
               reminder_lead_days, auto_escalate, created_at, updated_at
        FROM region_levels WHERE project_id=$1 ORDER BY rank`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []domain.RegionLevel
	for rows.Next() {
		var level domain.RegionLevel
		if err := rows.Scan(
			&level.ID,
			&level.ProjectID,
			&level.Name,
			&level.Rank,
			&level.AcknowledgmentDays,
			&level.ResolutionDays,
			&level.ReminderLeadDays,
			&level.AutoEscalate,
			&level.CreatedAt,
			&level.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, level)
	}
	return result, rows.Err()
}

func (r *levelRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM region_levels WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
