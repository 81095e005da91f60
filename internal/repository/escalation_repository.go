package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// EscalationRepository persists the escalation audit trail.
type EscalationRepository interface {
	Create(ctx context.Context, record *domain.EscalationRecord) error
	ListByGrievance(ctx context.Context, grievanceID string) ([]domain.EscalationRecord, error)
}

type escalationRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationRepository instantiates repository.
func NewEscalationRepository(pool *pgxpool.Pool) EscalationRepository {
	return &escalationRepository{pool: pool}
}

func (r *escalationRepository) Create(ctx context.Context, record *domain.EscalationRecord) error {
	const query = `
        INSERT INTO escalation_records (grievance_id, from_region_id, to_region_id, trigger_kind, reason, actor_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		record.GrievanceID,
		record.FromRegionID,
		record.ToRegionID,
		record.Trigger,
		record.Reason,
		record.ActorID,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *escalationRepository) ListByGrievance(ctx context.Context, grievanceID string) ([]domain.EscalationRecord, error) {
	const query = `
        SELECT id, grievance_id, from_region_id, to_region_id, trigger_kind, reason, actor_id, created_at
        FROM escalation_records WHERE grievance_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, grievanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []domain.EscalationRecord
	for rows.Next() {
		var record domain.EscalationRecord
		if err := rows.Scan(
			&record.ID,
			&record.GrievanceID,
			&record.FromRegionID,
			&record.ToRegionID,
			&record.Trigger,
			&record.Reason,
			&record.ActorID,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
