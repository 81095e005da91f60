package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// ActivityRepository persists the grievance audit trail.
type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.GrievanceActivity) error
	ListByGrievance(ctx context.Context, grievanceID string, limit, offset int) ([]domain.GrievanceActivity, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository instantiates repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Create(ctx context.Context, entry *domain.GrievanceActivity) error {
	const query = `
        INSERT INTO grievance_activity (grievance_id, actor_type, actor_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.GrievanceID,
		entry.ActorType,
		entry.ActorID,
		entry.ChangeType,
		entry.OldValue,
		entry.NewValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *activityRepository) ListByGrievance(ctx context.Context, grievanceID string, limit, offset int) ([]domain.GrievanceActivity, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, grievance_id, actor_type, actor_id, change_type, old_value, new_value, created_at
        FROM grievance_activity WHERE grievance_id=$1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, grievanceID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []domain.GrievanceActivity
	for rows.Next() {
		var entry domain.GrievanceActivity
		if err := rows.Scan(
			&entry.ID,
			&entry.GrievanceID,
			&entry.ActorType,
			&entry.ActorID,
			&entry.ChangeType,
			&entry.OldValue,
			&entry.NewValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
