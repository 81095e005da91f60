package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// NotificationLogRepository records accepted dispatches and backs the
// at-most-once guarantee per (grievance, event).
type NotificationLogRepository interface {
	Create(ctx context.Context, record *domain.NotificationRecord) error
	Exists(ctx context.Context, grievanceID string, event domain.NotificationEventType) (bool, error)
	ListByGrievance(ctx context.Context, grievanceID string) ([]domain.NotificationRecord, error)
}

type notificationLogRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationLogRepository instantiates repository.
func NewNotificationLogRepository(pool *pgxpool.Pool) NotificationLogRepository {
	return &notificationLogRepository{pool: pool}
}

func (r *notificationLogRepository) Create(ctx context.Context, record *domain.NotificationRecord) error {
	const query = `
        INSERT INTO notification_log (grievance_id, event_type, channel, recipient)
        VALUES ($1,$2,$3,$4)
        RETURNING id, sent_at`
	return r.pool.QueryRow(ctx, query,
		record.GrievanceID,
		record.EventType,
		record.Channel,
		record.Recipient,
	).Scan(&record.ID, &record.SentAt)
}

func (r *notificationLogRepository) Exists(ctx context.Context, grievanceID string, event domain.NotificationEventType) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM notification_log WHERE grievance_id=$1 AND event_type=$2
        )`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, grievanceID, event).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *notificationLogRepository) ListByGrievance(ctx context.Context, grievanceID string) ([]domain.NotificationRecord, error) {
	const query = `
        SELECT id, grievance_id, event_type, channel, recipient, sent_at
        FROM notification_log WHERE grievance_id=$1 ORDER BY sent_at DESC`
	rows, err := r.pool.Query(ctx, query, grievanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []domain.NotificationRecord
	for rows.Next() {
		var record domain.NotificationRecord
		if err := rows.Scan(
			&record.ID,
			&record.GrievanceID,
			&record.EventType,
			&record.Channel,
			&record.Recipient,
			&record.SentAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
