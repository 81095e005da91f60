package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// GrievanceFilter captures listing parameters.
type GrievanceFilter struct {
	ComplainantID *string
	ProjectID     *string
	RegionID      *string
	RegionSubtree *string // materialized path prefix: region and everything below
	Statuses      []domain.GrievanceStatus
	Categories    []domain.GrievanceCategory
	SearchTerm    *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
	Offset        int
}

// StatusCount aggregates grievances per status value.
type StatusCount struct {
	Status domain.GrievanceStatus
	Count  int
}

// CategoryCount aggregates grievances per category.
type CategoryCount struct {
	Category domain.GrievanceCategory
	Count    int
}

// RegionCount aggregates grievances per region.
type RegionCount struct {
	RegionID   string
	RegionName string
	Count      int
}

// EscalationWrite carries the full SLA mutation applied by one escalation hop.
type EscalationWrite struct {
	GrievanceID      string
	ExpectedRegionID string
	NewRegionID      string
	AckDueAt         time.Time
	ResolutionDueAt  time.Time
	AckStatus        domain.SLAStatus
	ResolutionStatus domain.SLAStatus
	DaysRemaining    int
	EscalatedAt      time.Time
	Reason           string
}

// GrievanceRepository encapsulates grievance persistence.
type GrievanceRepository interface {
	Create(ctx context.Context, grievance *domain.Grievance) error
	Update(ctx context.Context, grievance *domain.Grievance) error
	GetByID(ctx context.Context, id string) (*domain.Grievance, error)
	GetByTrackingCode(ctx context.Context, code string) (*domain.Grievance, error)
	ListWithFilter(ctx context.Context, filter GrievanceFilter) ([]domain.Grievance, error)
	ListOpenForSweep(ctx context.Context, limit int) ([]domain.Grievance, error)
	UpdateSLAStatus(ctx context.Context, id string, ackStatus, resolutionStatus domain.SLAStatus, daysRemaining int) error
	ApplyEscalation(ctx context.Context, write EscalationWrite) (bool, error)
	CountByStatus(ctx context.Context, projectID string, from, to time.Time) ([]StatusCount, error)
	CountByCategory(ctx context.Context, projectID string, from, to time.Time) ([]CategoryCount, error)
	CountByRegion(ctx context.Context, projectID string, from, to time.Time) ([]RegionCount, error)
}

type grievanceRepository struct {
	pool *pgxpool.Pool
}

// NewGrievanceRepository instantiates repository.
func NewGrievanceRepository(pool *pgxpool.Pool) GrievanceRepository {
	return &grievanceRepository{pool: pool}
}

const grievanceColumns = `id, tracking_code, project_id, region_id, complainant_user_id, complainant_name,
               category, subject, description, status,
               ack_due_at, resolution_due_at, ack_status, resolution_status, days_remaining,
               acknowledged_at, resolved_at, escalation_count, last_escalated_at, last_escalation_reason,
               submitted_at, created_at, updated_at, closed_at`

func (r *grievanceRepository) Create(ctx context.Context, grievance *domain.Grievance) error {
	const query = `
        INSERT INTO grievances (tracking_code, project_id, region_id, complainant_user_id, complainant_name,
            category, subject, description, status,
            ack_due_at, resolution_due_at, ack_status, resolution_status, days_remaining, submitted_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		grievance.TrackingCode,
		grievance.ProjectID,
		grievance.RegionID,
		grievance.ComplainantID,
		grievance.ComplainantName,
		grievance.Category,
		grievance.Subject,
		grievance.Description,
		grievance.Status,
		grievance.SLA.AckDueAt,
		grievance.SLA.ResolutionDueAt,
		nullableStatus(grievance.SLA.AckStatus),
		nullableStatus(grievance.SLA.ResolutionStatus),
		grievance.SLA.DaysRemaining,
		grievance.SubmittedAt,
	).Scan(&grievance.ID, &grievance.CreatedAt, &grievance.UpdatedAt)
}

func (r *grievanceRepository) Update(ctx context.Context, grievance *domain.Grievance) error {
	const query = `
        UPDATE grievances SET region_id=$1, category=$2, subject=$3, description=$4, status=$5,
            ack_due_at=$6, resolution_due_at=$7, ack_status=$8, resolution_status=$9, days_remaining=$10,
            acknowledged_at=$11, resolved_at=$12, escalation_count=$13, last_escalated_at=$14,
            last_escalation_reason=$15, submitted_at=$16, closed_at=$17, updated_at=NOW()
        WHERE id=$18`
	cmd, err := r.pool.Exec(ctx, query,
		grievance.RegionID,
		grievance.Category,
		grievance.Subject,
		grievance.Description,
		grievance.Status,
		grievance.SLA.AckDueAt,
		grievance.SLA.ResolutionDueAt,
		nullableStatus(grievance.SLA.AckStatus),
		nullableStatus(grievance.SLA.ResolutionStatus),
		grievance.SLA.DaysRemaining,
		grievance.SLA.AcknowledgedAt,
		grievance.SLA.ResolvedAt,
		grievance.SLA.EscalationCount,
		grievance.SLA.LastEscalatedAt,
		grievance.SLA.LastEscalationReason,
		grievance.SubmittedAt,
		grievance.ClosedAt,
		grievance.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *grievanceRepository) GetByID(ctx context.Context, id string) (*domain.Grievance, error) {
	query := fmt.Sprintf(`SELECT %s FROM grievances WHERE id=$1`, grievanceColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *grievanceRepository) GetByTrackingCode(ctx context.Context, code string) (*domain.Grievance, error) {
	query := fmt.Sprintf(`SELECT %s FROM grievances WHERE tracking_code=$1`, grievanceColumns)
	return r.fetchSingle(ctx, query, code)
}

func (r *grievanceRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Grievance, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	grievance, err := scanGrievance(row)
	if err != nil {
		return nil, err
	}
	return grievance, nil
}

// ListOpenForSweep returns grievances whose SLA clock is running: submitted,
// not in a terminal grievance status, resolution dimension non-terminal.
func (r *grievanceRepository) ListOpenForSweep(ctx context.Context, limit int) ([]domain.Grievance, error) {
	if limit <= 0 {
		limit = 500
	}
	query := fmt.Sprintf(`
        SELECT %s FROM grievances
        WHERE submitted_at IS NOT NULL
          AND status NOT IN ('DRAFT','CLOSED','REJECTED')
          AND (resolution_status IS NULL OR resolution_status <> 'RESOLVED')
        ORDER BY resolution_due_at ASC NULLS LAST
        LIMIT %d`, grievanceColumns, limit)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGrievances(rows)
}

// UpdateSLAStatus persists reclassified status fields only; due dates and
// bookkeeping stay untouched.
func (r *grievanceRepository) UpdateSLAStatus(ctx context.Context, id string, ackStatus, resolutionStatus domain.SLAStatus, daysRemaining int) error {
	const query = `
        UPDATE grievances SET ack_status=$1, resolution_status=$2, days_remaining=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query, ackStatus, resolutionStatus, daysRemaining, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ApplyEscalation performs the guarded escalation write. The WHERE clause
// re-checks the expected source region and a non-terminal resolution status so
// a concurrent escalation or resolve surfaces as a zero-row update rather than
// a lost write. Returns false when the guard rejected the write.
func (r *grievanceRepository) ApplyEscalation(ctx context.Context, write EscalationWrite) (bool, error) {
	const query = `
        UPDATE grievances SET region_id=$1,
            ack_due_at=$2, resolution_due_at=$3, ack_status=$4, resolution_status=$5, days_remaining=$6,
            escalation_count=escalation_count+1, last_escalated_at=$7, last_escalation_reason=$8,
            updated_at=NOW()
        WHERE id=$9 AND region_id=$10
          AND (resolution_status IS NULL OR resolution_status <> 'RESOLVED')`
	cmd, err := r.pool.Exec(ctx, query,
		write.NewRegionID,
		write.AckDueAt,
		write.ResolutionDueAt,
		write.AckStatus,
		write.ResolutionStatus,
		write.DaysRemaining,
		write.EscalatedAt,
		write.Reason,
		write.GrievanceID,
		write.ExpectedRegionID,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *grievanceRepository) ListWithFilter(ctx context.Context, filter GrievanceFilter) ([]domain.Grievance, error) {
	base := fmt.Sprintf(`SELECT %s FROM grievances g`, strings.ReplaceAll(grievanceColumns, "id,", "g.id,"))
	clauses := []string{"1=1"}
	args := []any{}
	joinRegions := false

	if filter.ComplainantID != nil {
		args = append(args, *filter.ComplainantID)
		clauses = append(clauses, fmt.Sprintf("complainant_user_id=$%d", len(args)))
	}
	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		clauses = append(clauses, fmt.Sprintf("g.project_id=$%d", len(args)))
	}
	if filter.RegionID != nil {
		args = append(args, *filter.RegionID)
		clauses = append(clauses, fmt.Sprintf("g.region_id=$%d", len(args)))
	}
	if filter.RegionSubtree != nil {
		joinRegions = true
		args = append(args, *filter.RegionSubtree, *filter.RegionSubtree+domain.PathSeparator+"%")
		clauses = append(clauses, fmt.Sprintf("(r.path=$%d OR r.path LIKE $%d)", len(args)-1, len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, category := range filter.Categories {
			args = append(args, category)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("g.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("g.created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(subject) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	join := ""
	if joinRegions {
		join = " JOIN administrative_regions r ON g.region_id = r.id"
	}
	query := fmt.Sprintf(`%s%s WHERE %s ORDER BY g.updated_at DESC LIMIT %d OFFSET %d`,
		base, join, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGrievances(rows)
}

func (r *grievanceRepository) CountByStatus(ctx context.Context, projectID string, from, to time.Time) ([]StatusCount, error) {
	const query = `
        SELECT status, COUNT(*) FROM grievances
        WHERE project_id=$1 AND created_at >= $2 AND created_at <= $3 AND status <> 'DRAFT'
        GROUP BY status ORDER BY status`
	rows, err := r.pool.Query(ctx, query, projectID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []StatusCount
	for rows.Next() {
		var entry StatusCount
		if err := rows.Scan(&entry.Status, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *grievanceRepository) CountByCategory(ctx context.Context, projectID string, from, to time.Time) ([]CategoryCount, error) {
	const query = `
        SELECT category, COUNT(*) FROM grievances
        WHERE project_id=$1 AND created_at >= $2 AND created_at <= $3 AND status <> 'DRAFT'
        GROUP BY category ORDER BY category`
	rows, err := r.pool.Query(ctx, query, projectID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []CategoryCount
	for rows.Next() {
		var entry CategoryCount
		if err := rows.Scan(&entry.Category, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *grievanceRepository) CountByRegion(ctx context.Context, projectID string, from, to time.Time) ([]RegionCount, error) {
	const query = `
        SELECT g.region_id, r.name, COUNT(*) FROM grievances g
        JOIN administrative_regions r ON g.region_id = r.id
        WHERE g.project_id=$1 AND g.created_at >= $2 AND g.created_at <= $3 AND g.status <> 'DRAFT'
        GROUP BY g.region_id, r.name ORDER BY COUNT(*) DESC`
	rows, err := r.pool.Query(ctx, query, projectID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []RegionCount
	for rows.Next() {
		var entry RegionCount
		if err := rows.Scan(&entry.RegionID, &entry.RegionName, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func nullableStatus(status domain.SLAStatus) *string {
	if status == "" {
		return nil
	}
	value := string(status)
	return &value
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrievance(row rowScanner) (*domain.Grievance, error) {
	var grievance domain.Grievance
	var ackStatus, resolutionStatus, escalationReason *string
	if err := row.Scan(
		&grievance.ID,
		&grievance.TrackingCode,
		&grievance.ProjectID,
		&grievance.RegionID,
		&grievance.ComplainantID,
		&grievance.ComplainantName,
		&grievance.Category,
		&grievance.Subject,
		&grievance.Description,
		&grievance.Status,
		&grievance.SLA.AckDueAt,
		&grievance.SLA.ResolutionDueAt,
		&ackStatus,
		&resolutionStatus,
		&grievance.SLA.DaysRemaining,
		&grievance.SLA.AcknowledgedAt,
		&grievance.SLA.ResolvedAt,
		&grievance.SLA.EscalationCount,
		&grievance.SLA.LastEscalatedAt,
		&escalationReason,
		&grievance.SubmittedAt,
		&grievance.CreatedAt,
		&grievance.UpdatedAt,
		&grievance.ClosedAt,
	); err != nil {
		return nil, err
	}
	if ackStatus != nil {
		grievance.SLA.AckStatus = domain.SLAStatus(*ackStatus)
	}
	if resolutionStatus != nil {
		grievance.SLA.ResolutionStatus = domain.SLAStatus(*resolutionStatus)
	}
	if escalationReason != nil {
		grievance.SLA.LastEscalationReason = *escalationReason
	}
	return &grievance, nil
}

func scanGrievances(rows pgx.Rows) ([]domain.Grievance, error) {
	var result []domain.Grievance
	for rows.Next() {
		grievance, err := scanGrievance(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *grievance)
	}
	return result, rows.Err()
}
