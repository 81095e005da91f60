package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/sla"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

const sweepLockKeyFormat = "grm:sla:sweep:%s"

// PeriodLocker guards the monitor against duplicate runs within one period.
type PeriodLocker interface {
	AcquirePeriodLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// SweepResult summarizes one monitor pass.
type SweepResult struct {
	Processed int
	Reminders int
	Escalated int
	Failures  int
}

// MonitorService runs the scheduled SLA sweep: reclassify every open
// grievance, emit reminders on deadline-approach crossings and auto-escalate
// fresh breaches. Failures on one grievance never stop the rest of the sweep.
type MonitorService struct {
	grievances repository.GrievanceRepository
	regions    repository.RegionRepository
	levels     repository.LevelRepository
	escalator  *EscalationService
	calculator *sla.Calculator
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	locker     PeriodLocker
	logger     *zap.Logger
	batchSize  int
	now        func() time.Time
}

// MonitorDependencies bundles collaborators for the monitor service.
type MonitorDependencies struct {
	GrievanceRepo repository.GrievanceRepository
	RegionRepo    repository.RegionRepository
	LevelRepo     repository.LevelRepository
	Escalator     *EscalationService
	Calculator    *sla.Calculator
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Locker        PeriodLocker
	Logger        *zap.Logger
	BatchSize     int
	Now           func() time.Time
}

// NewMonitorService constructs the service.
func NewMonitorService(deps MonitorDependencies) *MonitorService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	batch := deps.BatchSize
	if batch <= 0 {
		batch = 500
	}
	calculator := deps.Calculator
	if calculator == nil {
		calculator = sla.NewCalculator()
	}
	return &MonitorService{
		grievances: deps.GrievanceRepo,
		regions:    deps.RegionRepo,
		levels:     deps.LevelRepo,
		escalator:  deps.Escalator,
		calculator: calculator,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		locker:     deps.Locker,
		logger:     logger,
		batchSize:  batch,
		now:        now,
	}
}

// RunScheduled is the cron entry point. It acquires a per-day lock first so
// overlapping schedules or multiple instances sweep at most once per period.
func (s *MonitorService) RunScheduled(ctx context.Context) (SweepResult, error) {
	now := s.now()
	if s.locker != nil {
		key := fmt.Sprintf(sweepLockKeyFormat, now.UTC().Format("2006-01-02"))
		won, err := s.locker.AcquirePeriodLock(ctx, key, 24*time.Hour)
		if err != nil {
			s.logger.Warn("sweep lock unavailable, running anyway", zap.Error(err))
		} else if !won {
			s.logger.Info("sweep already ran for period", zap.String("key", key))
			return SweepResult{}, nil
		}
	}
	return s.Sweep(ctx)
}

// Sweep examines every open grievance once. Status snapshots loaded from
// storage are compared against fresh classifications; only crossings trigger
// reminders, which keeps repeated sweeps from re-notifying.
func (s *MonitorService) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	grievances, err := s.grievances.ListOpenForSweep(ctx, s.batchSize)
	if err != nil {
		return result, apperrors.MapError(err)
	}

	now := s.now()
	for i := range grievances {
		grievance := grievances[i]
		reminders, escalated, err := s.sweepOne(ctx, &grievance, now)
		result.Processed++
		result.Reminders += reminders
		if escalated {
			result.Escalated++
		}
		if err != nil {
			result.Failures++
			s.logger.Error("sweep item failed",
				zap.String("grievance_id", grievance.ID),
				zap.Error(err))
		}
	}

	s.metrics.RecordSweep(result.Processed, result.Reminders, result.Escalated, result.Failures)
	s.logger.Info("sla sweep completed",
		zap.Int("processed", result.Processed),
		zap.Int("reminders", result.Reminders),
		zap.Int("escalated", result.Escalated),
		zap.Int("failures", result.Failures))
	return result, nil
}

func (s *MonitorService) sweepOne(ctx context.Context, grievance *domain.Grievance, now time.Time) (reminders int, escalated bool, err error) {
	region, err := s.regions.GetByID(ctx, grievance.RegionID)
	if err != nil {
		return 0, false, err
	}
	level, err := s.levels.GetByID(ctx, region.LevelID)
	if err != nil {
		return 0, false, err
	}

	previous := grievance.SLA
	s.calculator.Reclassify(&grievance.SLA, level, now)

	if crossedIntoNearing(previous.AckStatus, grievance.SLA.AckStatus) {
		s.publishReminder(ctx, grievance, "acknowledgment", grievance.SLA.AckDueAt)
		reminders++
	}
	if crossedIntoNearing(previous.ResolutionStatus, grievance.SLA.ResolutionStatus) {
		s.publishReminder(ctx, grievance, "resolution", grievance.SLA.ResolutionDueAt)
		reminders++
	}

	// The escalation attempt runs before the breached snapshot is persisted:
	// once BREACHED is stored the crossing is consumed, so a persisted-first
	// order would never retry an escalation that failed transiently.
	newlyBreached := grievance.SLA.ResolutionStatus == domain.SLAStatusBreached &&
		previous.ResolutionStatus != domain.SLAStatusBreached
	if newlyBreached && level.AutoEscalate && !region.IsRoot() {
		if _, escErr := s.escalator.Escalate(ctx, grievance.ID, domain.TriggerAuto, domain.AutoEscalationReason, nil); escErr != nil {
			// stale state means someone else already moved it; not a failure
			if apperrors.IsCode(escErr, "STALE_STATE") {
				s.logger.Info("auto-escalation skipped, state moved concurrently",
					zap.String("grievance_id", grievance.ID))
				return reminders, false, nil
			}
			// hold the stored resolution status so the next sweep sees the
			// breach crossing again and retries
			grievance.SLA.ResolutionStatus = previous.ResolutionStatus
			err = escErr
		} else {
			// escalation re-initialized and persisted the SLA state itself
			return reminders, true, nil
		}
	}

	changed := previous.AckStatus != grievance.SLA.AckStatus ||
		previous.ResolutionStatus != grievance.SLA.ResolutionStatus ||
		previous.DaysRemaining != grievance.SLA.DaysRemaining
	if changed {
		if updateErr := s.grievances.UpdateSLAStatus(ctx, grievance.ID, grievance.SLA.AckStatus, grievance.SLA.ResolutionStatus, grievance.SLA.DaysRemaining); updateErr != nil {
			return reminders, false, updateErr
		}
	}
	return reminders, false, err
}

func (s *MonitorService) publishReminder(ctx context.Context, grievance *domain.Grievance, dimension string, dueAt *time.Time) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:        events.EventSLAReminderDue,
		GrievanceID: grievance.ID,
		Actor:       systemActor(),
		Timestamp:   s.now(),
		Payload: events.SLAReminderDuePayload{
			Dimension:     dimension,
			DueAt:         dueAt,
			DaysRemaining: grievance.SLA.DaysRemaining,
		},
	})
}

func crossedIntoNearing(previous, current domain.SLAStatus) bool {
	return current == domain.SLAStatusNearingDue && previous != domain.SLAStatusNearingDue
}
