package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// OfficerRepository encapsulates officer account persistence.
type OfficerRepository interface {
	Create(ctx context.Context, officer *domain.Officer) error
	GetByID(ctx context.Context, id string) (*domain.Officer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Officer, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type officerRepository struct {
	pool *pgxpool.Pool
}

// NewOfficerRepository instantiates repository.
func NewOfficerRepository(pool *pgxpool.Pool) OfficerRepository {
	return &officerRepository{pool: pool}
}

func (r *officerRepository) Create(ctx context.Context, officer *domain.Officer) error {
	const query = `
        INSERT INTO officers (name, email, password_hash, role, project_id, region_id, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		officer.Name,
		officer.Email,
		officer.PasswordHash,
		officer.Role,
		officer.ProjectID,
		officer.RegionID,
		officer.Active,
	).Scan(&officer.ID, &officer.CreatedAt, &officer.UpdatedAt)
}

func (r *officerRepository) GetByID(ctx context.Context, id string) (*domain.Officer, error) {
	const query = `
        SELECT id, name, email, password_hash, role, project_id, region_id, active, created_at, updated_at
        FROM officers WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *officerRepository) GetByEmail(ctx context.Context, email string) (*domain.Officer, error) {
	const query = `
        SELECT id, name, email, password_hash, role, project_id, region_id, active, created_at, updated_at
        FROM officers WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *officerRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Officer, error) {
	var officer domain.Officer
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&officer.ID,
		&officer.Name,
		&officer.Email,
		&officer.PasswordHash,
		&officer.Role,
		&officer.ProjectID,
		&officer.RegionID,
		&officer.Active,
		&officer.CreatedAt,
		&officer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &officer, nil
}

func (r *officerRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE officers SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
