package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/sla"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// EscalationService moves a grievance one level up the administrative
// hierarchy and restarts its SLA clock at the parent level's timeframes.
type EscalationService struct {
	grievances  repository.GrievanceRepository
	regions     repository.RegionRepository
	levels      repository.LevelRepository
	escalations repository.EscalationRepository
	activity    repository.ActivityRepository
	calculator  *sla.Calculator
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// EscalationDependencies bundles collaborators for the escalation service.
type EscalationDependencies struct {
	GrievanceRepo  repository.GrievanceRepository
	RegionRepo     repository.RegionRepository
	LevelRepo      repository.LevelRepository
	EscalationRepo repository.EscalationRepository
	ActivityRepo   repository.ActivityRepository
	Calculator     *sla.Calculator
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Now            func() time.Time
}

// NewEscalationService constructs the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	calculator := deps.Calculator
	if calculator == nil {
		calculator = sla.NewCalculator()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EscalationService{
		grievances:  deps.GrievanceRepo,
		regions:     deps.RegionRepo,
		levels:      deps.LevelRepo,
		escalations: deps.EscalationRepo,
		activity:    deps.ActivityRepo,
		calculator:  calculator,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		now:         now,
	}
}

// Escalate reassigns the grievance to the parent region and recomputes both
// due dates from the escalation instant, not the original submission, so the
// receiving level gets its full timeframe. The write is applied through a
// guarded update: if the grievance moved or resolved concurrently the guard
// rejects it and the caller sees a stale-state conflict.
func (s *EscalationService) Escalate(ctx context.Context, grievanceID string, trigger domain.EscalationTrigger, reason string, actorID *string) (*domain.Grievance, error) {
	grievance, err := s.grievances.GetByID(ctx, grievanceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("grievance", map[string]any{"grievance_id": grievanceID})
		}
		return nil, apperrors.MapError(err)
	}
	if grievance.SubmittedAt == nil {
		return nil, apperrors.NewConflict("grievance not yet submitted", map[string]any{"grievance_id": grievance.ID})
	}
	if grievance.SLA.ResolutionStatus.IsTerminal() || grievance.Status == domain.GrievanceStatusResolved || grievance.Status.IsTerminal() {
		return nil, apperrors.NewAlreadyResolved(grievance.ID)
	}

	region, err := s.regions.GetByID(ctx, grievance.RegionID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if region.IsRoot() {
		return nil, apperrors.NewNoParentRegion(region.ID)
	}
	parent, err := s.regions.GetByID(ctx, *region.ParentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	parentLevel, err := s.levels.GetByID(ctx, parent.LevelID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	if reason == "" {
		reason = domain.AutoEscalationReason
	}

	state := grievance.SLA
	s.calculator.Initialize(&state, parentLevel, now, now)

	write := repository.EscalationWrite{
		GrievanceID:      grievance.ID,
		ExpectedRegionID: region.ID,
		NewRegionID:      parent.ID,
		AckDueAt:         *state.AckDueAt,
		ResolutionDueAt:  *state.ResolutionDueAt,
		AckStatus:        state.AckStatus,
		ResolutionStatus: state.ResolutionStatus,
		DaysRemaining:    state.DaysRemaining,
		EscalatedAt:      now,
		Reason:           reason,
	}
	applied, err := s.grievances.ApplyEscalation(ctx, write)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !applied {
		return nil, apperrors.NewStaleState("grievance changed concurrently, re-read and retry", map[string]any{
			"grievance_id":       grievance.ID,
			"expected_region_id": region.ID,
		})
	}

	record := &domain.EscalationRecord{
		GrievanceID:  grievance.ID,
		FromRegionID: region.ID,
		ToRegionID:   parent.ID,
		Trigger:      trigger,
		Reason:       reason,
		ActorID:      actorID,
	}
	if err := s.escalations.Create(ctx, record); err != nil {
		s.logger.Error("escalation record write failed",
			zap.String("grievance_id", grievance.ID), zap.Error(err))
	}

	grievance.RegionID = parent.ID
	grievance.SLA = state
	grievance.SLA.EscalationCount++
	grievance.SLA.LastEscalatedAt = &now
	grievance.SLA.LastEscalationReason = reason

	if s.activity != nil {
		entry := &domain.GrievanceActivity{
			GrievanceID: grievance.ID,
			ActorType:   actorTypeForTrigger(trigger, actorID),
			ActorID:     actorID,
			ChangeType:  domain.ChangeTypeEscalated,
			OldValue:    map[string]any{"region_id": region.ID},
			NewValue: map[string]any{
				"region_id":         parent.ID,
				"ack_due_at":        write.AckDueAt,
				"resolution_due_at": write.ResolutionDueAt,
				"reason":            reason,
			},
		}
		_ = s.activity.Create(ctx, entry)
	}

	if s.dispatcher != nil {
		actor := systemActor()
		if trigger == domain.TriggerManual && actorID != nil {
			actor = officerActor(*actorID)
		}
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:        events.EventGrievanceEscalated,
			GrievanceID: grievance.ID,
			Actor:       actor,
			Timestamp:   now,
			Payload: events.GrievanceEscalatedPayload{
				FromRegionID:    region.ID,
				ToRegionID:      parent.ID,
				Trigger:         trigger,
				Reason:          reason,
				EscalationCount: grievance.SLA.EscalationCount,
			},
		})
	}
	return grievance, nil
}

// History returns the ordered escalation trail for a grievance.
func (s *EscalationService) History(ctx context.Context, grievanceID string) ([]domain.EscalationRecord, error) {
	records, err := s.escalations.ListByGrievance(ctx, grievanceID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return records, nil
}

func actorTypeForTrigger(trigger domain.EscalationTrigger, actorID *string) domain.ActorType {
	if trigger == domain.TriggerManual && actorID != nil {
		return domain.ActorTypeOfficer
	}
	return domain.ActorTypeSystem
}
