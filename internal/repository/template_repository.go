package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// TemplateRepository encapsulates notification template persistence.
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.NotificationTemplate) error
	Update(ctx context.Context, template *domain.NotificationTemplate) error
	GetByID(ctx context.Context, id string) (*domain.NotificationTemplate, error)
	// GetActive returns the active template for the event scoped to the given
	// project (nil = shared default). pgx.ErrNoRows when none exists.
	GetActive(ctx context.Context, projectID *string, event domain.NotificationEventType) (*domain.NotificationTemplate, error)
	List(ctx context.Context, projectID *string) ([]domain.NotificationTemplate, error)
}

type templateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository instantiates repository.
func NewTemplateRepository(pool *pgxpool.Pool) TemplateRepository {
	return &templateRepository{pool: pool}
}

const templateColumns = `id, event_type, project_id, email_template_ref, sms_enabled, sms_body, active, created_at, updated_at`

func (r *templateRepository) Create(ctx context.Context, template *domain.NotificationTemplate) error {
	const query = `
        INSERT INTO notification_templates (event_type, project_id, email_template_ref, sms_enabled, sms_body, active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		template.EventType,
		template.ProjectID,
		template.EmailTemplateRef,
		template.SMSEnabled,
		template.SMSBody,
		template.Active,
	).Scan(&template.ID, &template.CreatedAt, &template.UpdatedAt)
}

func (r *templateRepository) Update(ctx context.Context, template *domain.NotificationTemplate) error {
	const query = `
        UPDATE notification_templates SET event_type=$1, project_id=$2, email_template_ref=$3,
            sms_enabled=$4, sms_body=$5, active=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		template.EventType,
		template.ProjectID,
		template.EmailTemplateRef,
		template.SMSEnabled,
		template.SMSBody,
		template.Active,
		template.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *templateRepository) GetByID(ctx context.Context, id string) (*domain.NotificationTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM notification_templates WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *templateRepository) GetActive(ctx context.Context, projectID *string, event domain.NotificationEventType) (*domain.NotificationTemplate, error) {
	if projectID == nil {
		query := `SELECT ` + templateColumns + ` FROM notification_templates
            WHERE project_id IS NULL AND event_type=$1 AND active = TRUE
            ORDER BY updated_at DESC LIMIT 1`
		return r.fetchSingle(ctx, query, event)
	}
	query := `SELECT ` + templateColumns + ` FROM notification_templates
        WHERE project_id=$1 AND event_type=$2 AND active = TRUE
        ORDER BY updated_at DESC LIMIT 1`
	var template domain.NotificationTemplate
	if err := r.pool.QueryRow(ctx, query, *projectID, event).Scan(
		&template.ID,
		&template.EventType,
		&template.ProjectID,
		&template.EmailTemplateRef,
		&template.SMSEnabled,
		&template.SMSBody,
		&template.Active,
		&template.CreatedAt,
		&template.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.NotificationTemplate, error) {
	var template domain.NotificationTemplate
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&template.ID,
		&template.EventType,
		&template.ProjectID,
		&template.EmailTemplateRef,
		&template.SMSEnabled,
		&template.SMSBody,
		&template.Active,
		&template.CreatedAt,
		&template.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) List(ctx context.Context, projectID *string) ([]domain.NotificationTemplate, error) {
	var rows pgx.Rows
	var err error
	if projectID == nil {
		rows, err = r.pool.Query(ctx, `SELECT `+templateColumns+` FROM notification_templates WHERE project_id IS NULL ORDER BY event_type`)
	} else {
		rows, err = r.pool.Query(ctx, `SELECT `+templateColumns+` FROM notification_templates WHERE project_id=$1 ORDER BY event_type`, *projectID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []domain.NotificationTemplate
	for rows.Next() {
		var template domain.NotificationTemplate
		if err := rows.Scan(
			&template.ID,
			&template.EventType,
			&template.ProjectID,
			&template.EmailTemplateRef,
			&template.SMSEnabled,
			&template.SMSBody,
			&template.Active,
			&template.CreatedAt,
			&template.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, template)
	}
	return result, rows.Err()
}
