package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// NoteRepository encapsulates grievance note persistence.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.GrievanceNote) error
	ListByGrievance(ctx context.Context, grievanceID string) ([]domain.GrievanceNote, error)
}

type noteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository instantiates repository.
func NewNoteRepository(pool *pgxpool.Pool) NoteRepository {
	return &noteRepository{pool: pool}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.GrievanceNote) error {
	const query = `
        INSERT INTO grievance_notes (grievance_id, author_type, author_id, visibility, body)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		note.GrievanceID,
		note.AuthorType,
		note.AuthorID,
		note.Visibility,
		note.Body,
	).Scan(&note.ID, &note.CreatedAt)
}

func (r *noteRepository) ListByGrievance(ctx context.Context, grievanceID string) ([]domain.GrievanceNote, error) {
	const query = `
        SELECT id, grievance_id, author_type, author_id, visibility, body, created_at
        FROM grievance_notes WHERE grievance_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, grievanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []domain.GrievanceNote
	for rows.Next() {
		var note domain.GrievanceNote
		if err := rows.Scan(
			&note.ID,
			&note.GrievanceID,
			&note.AuthorType,
			&note.AuthorID,
			&note.Visibility,
			&note.Body,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}
