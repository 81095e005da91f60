package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/sla"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// GrievanceService coordinates the grievance lifecycle. Side effects are
// sequenced explicitly: validate, persist, record activity, publish events;
// there are no implicit persistence hooks.
type GrievanceService struct {
	grievances repository.GrievanceRepository
	regions    repository.RegionRepository
	levels     repository.LevelRepository
	projects   repository.ProjectRepository
	notes      repository.NoteRepository
	activity   repository.ActivityRepository
	calculator *sla.Calculator
	dispatcher events.Dispatcher
	now        func() time.Time
}

// GrievanceDependencies bundles repositories for the grievance service.
type GrievanceDependencies struct {
	GrievanceRepo repository.GrievanceRepository
	RegionRepo    repository.RegionRepository
	LevelRepo     repository.LevelRepository
	ProjectRepo   repository.ProjectRepository
	NoteRepo      repository.NoteRepository
	ActivityRepo  repository.ActivityRepository
	Calculator    *sla.Calculator
	Dispatcher    events.Dispatcher
	Now           func() time.Time
}

// GrievanceCreateInput describes grievance creation payload.
type GrievanceCreateInput struct {
	ProjectID   string
	RegionID    string
	Category    domain.GrievanceCategory
	Subject     string
	Description string
}

// NewGrievanceService constructs the service.
func NewGrievanceService(deps GrievanceDependencies) *GrievanceService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	calculator := deps.Calculator
	if calculator == nil {
		calculator = sla.NewCalculator()
	}
	return &GrievanceService{
		grievances: deps.GrievanceRepo,
		regions:    deps.RegionRepo,
		levels:     deps.LevelRepo,
		projects:   deps.ProjectRepo,
		notes:      deps.NoteRepo,
		activity:   deps.ActivityRepo,
		calculator: calculator,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// CreateDraft stores a grievance without starting any SLA clock.
func (s *GrievanceService) CreateDraft(ctx context.Context, user *domain.User, input GrievanceCreateInput) (*domain.Grievance, error) {
	project, err := s.projects.GetByID(ctx, input.ProjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("project", map[string]any{"project_id": input.ProjectID})
		}
		return nil, apperrors.MapError(err)
	}
	if !project.IsActive {
		return nil, apperrors.NewConflict("project inactive", map[string]any{"project_id": project.ID})
	}
	region, err := s.regions.GetByID(ctx, input.RegionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("region", map[string]any{"region_id": input.RegionID})
		}
		return nil, apperrors.MapError(err)
	}
	if region.ProjectID != input.ProjectID {
		return nil, apperrors.NewValidationError("region not part of project", map[string]any{
			"region_id":  region.ID,
			"project_id": input.ProjectID,
		})
	}

	grievance := &domain.Grievance{
		TrackingCode:    generateTrackingCode(),
		ProjectID:       input.ProjectID,
		RegionID:        input.RegionID,
		ComplainantID:   user.ID,
		ComplainantName: user.Name,
		Category:        input.Category,
		Subject:         strings.TrimSpace(input.Subject),
		Description:     strings.TrimSpace(input.Description),
		Status:          domain.GrievanceStatusDraft,
	}
	if grievance.Category == "" {
		grievance.Category = domain.CategoryOther
	}

	if err := s.grievances.Create(ctx, grievance); err != nil {
		return nil, apperrors.MapError(err)
	}
	return grievance, nil
}

// Submit activates a draft: stamps the submission time, initializes the SLA
// state against the region's level configuration and emits the receipt event.
// This is the only place initialization happens; escalation alone may redo it.
func (s *GrievanceService) Submit(ctx context.Context, userID, grievanceID string) (*domain.Grievance, error) {
	grievance, err := s.getOwned(ctx, userID, grievanceID)
	if err != nil {
		return nil, err
	}
	if grievance.Status != domain.GrievanceStatusDraft {
		return nil, apperrors.NewConflict("grievance already submitted", map[string]any{"grievance_id": grievance.ID})
	}

	region, err := s.regions.GetByID(ctx, grievance.RegionID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	level, err := s.levels.GetByID(ctx, region.LevelID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	grievance.SubmittedAt = &now
	grievance.Status = domain.GrievanceStatusOpen
	s.calculator.Initialize(&grievance.SLA, level, now, now)

	if err := s.grievances.Update(ctx, grievance); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordActivity(ctx, domain.ActorTypeUser, &userID, grievance.ID, domain.ChangeTypeSubmitted,
		map[string]any{"status": domain.GrievanceStatusDraft},
		map[string]any{"status": grievance.Status, "ack_due_at": grievance.SLA.AckDueAt, "resolution_due_at": grievance.SLA.ResolutionDueAt})
	s.publishEvent(ctx, events.Event{
		Type:        events.EventGrievanceSubmitted,
		GrievanceID: grievance.ID,
		Actor:       userActor(userID),
		Payload: events.GrievanceSubmittedPayload{
			TrackingCode:    grievance.TrackingCode,
			ProjectID:       grievance.ProjectID,
			RegionID:        grievance.RegionID,
			Category:        grievance.Category,
			AckDueAt:        grievance.SLA.AckDueAt,
			ResolutionDueAt: grievance.SLA.ResolutionDueAt,
		},
	})
	return grievance, nil
}

// Acknowledge stops the acknowledgment clock. The terminal status wins over
// any timing from here on.
func (s *GrievanceService) Acknowledge(ctx context.Context, officer *domain.Officer, grievanceID string) (*domain.Grievance, error) {
	if officer == nil {
		return nil, apperrors.NewUnauthorized("officer required")
	}
	grievance, err := s.getForOfficer(ctx, officer, grievanceID)
	if err != nil {
		return nil, err
	}
	if grievance.SubmittedAt == nil {
		return nil, apperrors.NewConflict("grievance not yet submitted", map[string]any{"grievance_id": grievance.ID})
	}
	if grievance.SLA.AcknowledgedAt != nil {
		return nil, apperrors.NewConflict("grievance already acknowledged", map[string]any{"grievance_id": grievance.ID})
	}

	now := s.now()
	grievance.SLA.AcknowledgedAt = &now
	grievance.SLA.AckStatus = domain.SLAStatusAcknowledged
	if err := s.grievances.Update(ctx, grievance); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordActivity(ctx, domain.ActorTypeOfficer, &officer.ID, grievance.ID, domain.ChangeTypeAcknowledged,
		nil, map[string]any{"acknowledged_at": now})
	s.publishEvent(ctx, events.Event{
		Type:        events.EventGrievanceAcknowledged,
		GrievanceID: grievance.ID,
		Actor:       officerActor(officer.ID),
	})
	return grievance, nil
}

// UpdateStatus moves the grievance along the status machine.
func (s *GrievanceService) UpdateStatus(ctx context.Context, officer *domain.Officer, grievanceID string, newStatus domain.GrievanceStatus, comment string) (*domain.Grievance, error) {
	if officer == nil {
		return nil, apperrors.NewUnauthorized("officer required")
	}
	grievance, err := s.getForOfficer(ctx, officer, grievanceID)
	if err != nil {
		return nil, err
	}
	if !domain.IsValidTransition(grievance.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": grievance.Status,
			"to":   newStatus,
		})
	}

	now := s.now()
	oldStatus := grievance.Status
	grievance.Status = newStatus
	switch newStatus {
	case domain.GrievanceStatusResolved:
		grievance.SLA.ResolvedAt = &now
		grievance.SLA.ResolutionStatus = domain.SLAStatusResolved
	case domain.GrievanceStatusClosed, domain.GrievanceStatusRejected:
		grievance.ClosedAt = &now
	case domain.GrievanceStatusInProgress:
		// reopening a resolved grievance restarts the resolution dimension
		if oldStatus == domain.GrievanceStatusResolved {
			grievance.SLA.ResolvedAt = nil
			region, err := s.regions.GetByID(ctx, grievance.RegionID)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			level, err := s.levels.GetByID(ctx, region.LevelID)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			s.calculator.Reclassify(&grievance.SLA, level, now)
		}
	}

	if err := s.grievances.Update(ctx, grievance); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordActivity(ctx, domain.ActorTypeOfficer, &officer.ID, grievance.ID, domain.ChangeTypeStatus,
		map[string]any{"status": oldStatus},
		map[string]any{"status": newStatus, "comment": comment})
	s.publishEvent(ctx, events.Event{
		Type:        events.EventGrievanceStatusChanged,
		GrievanceID: grievance.ID,
		Actor:       officerActor(officer.ID),
		Payload: events.GrievanceStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
	return grievance, nil
}

// CloseAsUser lets the complainant confirm a resolved grievance.
func (s *GrievanceService) CloseAsUser(ctx context.Context, userID, grievanceID string) (*domain.Grievance, error) {
	grievance, err := s.getOwned(ctx, userID, grievanceID)
	if err != nil {
		return nil, err
	}
	if grievance.Status != domain.GrievanceStatusResolved {
		return nil, apperrors.NewConflict("grievance cannot be closed in current status", map[string]any{
			"status": grievance.Status,
		})
	}
	now := s.now()
	oldStatus := grievance.Status
	grievance.Status = domain.GrievanceStatusClosed
	grievance.ClosedAt = &now
	if err := s.grievances.Update(ctx, grievance); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordActivity(ctx, domain.ActorTypeUser, &userID, grievance.ID, domain.ChangeTypeStatus,
		map[string]any{"status": oldStatus},
		map[string]any{"status": grievance.Status, "comment": "closed_by_complainant"})
	s.publishEvent(ctx, events.Event{
		Type:        events.EventGrievanceStatusChanged,
		GrievanceID: grievance.ID,
		Actor:       userActor(userID),
		Payload: events.GrievanceStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: grievance.Status,
			Comment:   "closed_by_complainant",
		},
	})
	return grievance, nil
}

// AddNote appends a note to a grievance thread.
func (s *GrievanceService) AddNote(ctx context.Context, actor domain.ActorType, actorID string, officer *domain.Officer, grievanceID string, visibility domain.NoteVisibility, body string) (*domain.GrievanceNote, error) {
	grievance, err := s.grievances.GetByID(ctx, grievanceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("grievance", map[string]any{"grievance_id": grievanceID})
		}
		return nil, apperrors.MapError(err)
	}
	switch actor {
	case domain.ActorTypeUser:
		if grievance.ComplainantID != actorID {
			return nil, apperrors.NewForbidden("access denied")
		}
		if visibility != domain.NotePublic {
			return nil, apperrors.NewValidationError("citizens can only post public notes", nil)
		}
	case domain.ActorTypeOfficer:
		if officer == nil {
			return nil, apperrors.NewUnauthorized("officer context required")
		}
		if !officerCanAccess(officer, grievance) {
			return nil, apperrors.NewForbidden("access denied")
		}
	default:
		return nil, apperrors.NewValidationError("unknown actor", nil)
	}

	note := &domain.GrievanceNote{
		GrievanceID: grievance.ID,
		AuthorType:  actor,
		AuthorID:    &actorID,
		Visibility:  visibility,
		Body:        strings.TrimSpace(body),
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:        events.EventGrievanceNoteAdded,
		GrievanceID: grievance.ID,
		Actor:       actorFor(actor, actorID),
		Payload: events.GrievanceNoteAddedPayload{
			NoteID:      note.ID,
			Visibility:  note.Visibility,
			AuthorType:  note.AuthorType,
			AuthorID:    note.AuthorID,
			BodyPreview: stringPreview(note.Body, 120),
		},
	})
	return note, nil
}

// ListUserGrievances returns paginated grievances for a complainant.
func (s *GrievanceService) ListUserGrievances(ctx context.Context, userID string, filter repository.GrievanceFilter) ([]domain.Grievance, error) {
	filter.ComplainantID = &userID
	return s.grievances.ListWithFilter(ctx, filter)
}

// GetGrievanceForUser fetches a grievance ensuring ownership, with its
// citizen-visible notes.
func (s *GrievanceService) GetGrievanceForUser(ctx context.Context, userID, grievanceID string) (*domain.Grievance, []domain.GrievanceNote, error) {
	grievance, err := s.getOwned(ctx, userID, grievanceID)
	if err != nil {
		return nil, nil, err
	}
	notes, err := s.notes.ListByGrievance(ctx, grievance.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	visible := make([]domain.GrievanceNote, 0, len(notes))
	for _, note := range notes {
		if note.Visibility == domain.NoteInternal {
			continue
		}
		visible = append(visible, note)
	}
	return grievance, visible, nil
}

// ListOfficerGrievances returns grievances within the officer's scope.
func (s *GrievanceService) ListOfficerGrievances(ctx context.Context, officer *domain.Officer, filter repository.GrievanceFilter) ([]domain.Grievance, error) {
	if officer == nil {
		return nil, apperrors.NewUnauthorized("officer required")
	}
	applyOfficerScope(&filter, officer)
	return s.grievances.ListWithFilter(ctx, filter)
}

// GetGrievanceForOfficer fetches a grievance ensuring officer access.
func (s *GrievanceService) GetGrievanceForOfficer(ctx context.Context, officer *domain.Officer, grievanceID string) (*domain.Grievance, []domain.GrievanceNote, error) {
	grievance, err := s.getForOfficer(ctx, officer, grievanceID)
	if err != nil {
		return nil, nil, err
	}
	notes, err := s.notes.ListByGrievance(ctx, grievance.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return grievance, notes, nil
}

// ListActivity returns audit entries for a grievance in the officer's scope.
func (s *GrievanceService) ListActivity(ctx context.Context, officer *domain.Officer, grievanceID string, limit, offset int) ([]domain.GrievanceActivity, error) {
	if _, err := s.getForOfficer(ctx, officer, grievanceID); err != nil {
		return nil, err
	}
	return s.activity.ListByGrievance(ctx, grievanceID, limit, offset)
}

func (s *GrievanceService) getOwned(ctx context.Context, userID, grievanceID string) (*domain.Grievance, error) {
	grievance, err := s.grievances.GetByID(ctx, grievanceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("grievance", map[string]any{"grievance_id": grievanceID})
		}
		return nil, apperrors.MapError(err)
	}
	if grievance.ComplainantID != userID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return grievance, nil
}

func (s *GrievanceService) getForOfficer(ctx context.Context, officer *domain.Officer, grievanceID string) (*domain.Grievance, error) {
	if officer == nil {
		return nil, apperrors.NewUnauthorized("officer required")
	}
	grievance, err := s.grievances.GetByID(ctx, grievanceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("grievance", map[string]any{"grievance_id": grievanceID})
		}
		return nil, apperrors.MapError(err)
	}
	if !officerCanAccess(officer, grievance) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return grievance, nil
}

func (s *GrievanceService) recordActivity(ctx context.Context, actorType domain.ActorType, actorID *string, grievanceID string, changeType domain.ActivityChangeType, oldValue, newValue map[string]any) {
	if s.activity == nil {
		return
	}
	entry := &domain.GrievanceActivity{
		GrievanceID: grievanceID,
		ActorType:   actorType,
		ActorID:     actorID,
		ChangeType:  changeType,
		OldValue:    oldValue,
		NewValue:    newValue,
	}
	_ = s.activity.Create(ctx, entry)
}

func (s *GrievanceService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func officerCanAccess(officer *domain.Officer, grievance *domain.Grievance) bool {
	if officer == nil {
		return false
	}
	if officer.Role == domain.OfficerRoleAdmin {
		return true
	}
	if officer.ProjectID != nil && *officer.ProjectID != grievance.ProjectID {
		return false
	}
	return true
}

func applyOfficerScope(filter *repository.GrievanceFilter, officer *domain.Officer) {
	if officer == nil || officer.Role == domain.OfficerRoleAdmin {
		return
	}
	if officer.ProjectID != nil {
		filter.ProjectID = officer.ProjectID
	}
	if officer.RegionID != nil && filter.RegionID == nil && filter.RegionSubtree == nil {
		filter.RegionID = officer.RegionID
	}
}

func generateTrackingCode() string {
	return "GRM-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func userActor(userID string) events.Actor {
	return events.Actor{
		Type:   domain.ActorTypeUser,
		UserID: &userID,
	}
}

func officerActor(officerID string) events.Actor {
	return events.Actor{
		Type:      domain.ActorTypeOfficer,
		OfficerID: &officerID,
	}
}

func systemActor() events.Actor {
	return events.Actor{Type: domain.ActorTypeSystem}
}

func actorFor(actor domain.ActorType, id string) events.Actor {
	switch actor {
	case domain.ActorTypeOfficer:
		return officerActor(id)
	case domain.ActorTypeSystem:
		return systemActor()
	default:
		return userActor(id)
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
