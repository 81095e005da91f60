package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
)

func newMonitorService(f *escalationFixture, locker PeriodLocker) *MonitorService {
	return NewMonitorService(MonitorDependencies{
		GrievanceRepo: f.grievances,
		RegionRepo:    f.regions,
		LevelRepo:     f.levels,
		Escalator:     f.service,
		Dispatcher:    f.dispatcher,
		Locker:        locker,
		Now:           func() time.Time { return f.now },
	})
}

func TestSweepEmitsReminderOnceOnCrossing(t *testing.T) {
	f := newEscalationFixture(t)
	ctx := context.Background()
	monitor := newMonitorService(f, nil)

	// ack due in 1 day with a 2-day lead: freshly nearing. Resolution stays
	// comfortably on time so only one dimension crosses.
	grievance := f.submittedGrievance(t, f.child.ID)
	ackDue := f.now.AddDate(0, 0, 1)
	resolutionDue := f.now.AddDate(0, 0, 30)
	grievance.SLA.AckDueAt = &ackDue
	grievance.SLA.ResolutionDueAt = &resolutionDue
	grievance.SLA.AckStatus = domain.SLAStatusOnTime
	grievance.SLA.ResolutionStatus = domain.SLAStatusOnTime
	grievance.SLA.DaysRemaining = 30
	require.NoError(t, f.grievances.Update(ctx, grievance))

	result, err := monitor.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Reminders)
	assert.Zero(t, result.Escalated)
	assert.Zero(t, result.Failures)

	reminders := f.dispatcher.eventsOfType(events.EventSLAReminderDue)
	require.Len(t, reminders, 1)
	payload, ok := reminders[0].Payload.(events.SLAReminderDuePayload)
	require.True(t, ok)
	assert.Equal(t, "acknowledgment", payload.Dimension)

	stored, err := f.grievances.GetByID(ctx, grievance.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SLAStatusNearingDue, stored.SLA.AckStatus)

	// second sweep sees the persisted NEARING_DUE snapshot: no crossing, no
	// second reminder
	result, err = monitor.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Reminders)
	assert.Len(t, f.dispatcher.eventsOfType(events.EventSLAReminderDue), 1)
}

func TestSweepAutoEscalatesFreshBreach(t *testing.T) {
	f := newEscalationFixture(t)
	ctx := context.Background()
	monitor := newMonitorService(f, nil)

	// resolution due yesterday, stored status still NEARING_DUE: the sweep
	// detects the fresh breach on a level configured to auto-escalate
	grievance := f.submittedGrievance(t, f.child.ID)
	ackDue := f.now.AddDate(0, 0, -3)
	resolutionDue := f.now.AddDate(0, 0, -1)
	grievance.SLA.AckDueAt = &ackDue
	grievance.SLA.ResolutionDueAt = &resolutionDue
	grievance.SLA.AckStatus = domain.SLAStatusBreached
	grievance.SLA.ResolutionStatus = domain.SLAStatusNearingDue
	require.NoError(t, f.grievances.Update(ctx, grievance))

	result, err := monitor.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Escalated)
	assert.Zero(t, result.Failures)

	stored, err := f.grievances.GetByID(ctx, grievance.ID)
	require.NoError(t, err)
	assert.Equal(t, f.root.ID, stored.RegionID)
	assert.Equal(t, 1, stored.SLA.EscalationCount)
	assert.Equal(t, domain.AutoEscalationReason, stored.SLA.LastEscalationReason)

	// next sweep: breach already recorded, nothing new to escalate
	result, err = monitor.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Escalated)
	stored, err = f.grievances.GetByID(ctx, grievance.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.SLA.EscalationCount)
}

func TestSweepRetriesEscalationAfterTransientFailure(t *testing.T) {
	f := newEscalationFixture(t)
	ctx := context.Background()
	monitor := newMonitorService(f, nil)

	grievance := f.submittedGrievance(t, f.child.ID)
	ackDue := f.now.AddDate(0, 0, -3)
	resolutionDue := f.now.AddDate(0, 0, -1)
	grievance.SLA.AckDueAt = &ackDue
	grievance.SLA.ResolutionDueAt = &resolutionDue
	grievance.SLA.AckStatus = domain.SLAStatusBreached
	grievance.SLA.ResolutionStatus = domain.SLAStatusNearingDue
	require.NoError(t, f.grievances.Update(ctx, grievance))

	// parent region briefly unreadable, so the escalation attempt fails
	f.regions.failIDs[f.root.ID] = errors.New("connection reset")

	result, err := monitor.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failures)
	assert.Zero(t, result.Escalated)

	// the stored resolution status must not record the breach yet: a
	// persisted BREACHED would consume the crossing and the escalation
	// would never be retried
	stored, err := f.grievances.GetByID(ctx, grievance.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SLAStatusNearingDue, stored.SLA.ResolutionStatus)
	assert.Zero(t, stored.SLA.EscalationCount)

	delete(f.regions.failIDs, f.root.ID)

	result, err = monitor.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Escalated)
	assert.Zero(t, result.Failures)

	stored, err = f.grievances.GetByID(ctx, grievance.ID)
	require.NoError(t, err)
	assert.Equal(t, f.root.ID, stored.RegionID)
	assert.Equal(t, 1, stored.SLA.EscalationCount)
}

func TestSweepIsolatesPerItemFailures(t *testing.T) {
	f := newEscalationFixture(t)
	ctx := context.Background()
	monitor := newMonitorService(f, nil)

	broken := f.submittedGrievance(t, f.child.ID)
	broken.RegionID = "missing-region"
	require.NoError(t, f.grievances.Update(ctx, broken))

	healthy := f.submittedGrievance(t, f.child.ID)
	ackDue := f.now.AddDate(0, 0, 1)
	resolutionDue := f.now.AddDate(0, 0, 30)
	healthy.SLA.AckDueAt = &ackDue
	healthy.SLA.ResolutionDueAt = &resolutionDue
	healthy.SLA.AckStatus = domain.SLAStatusOnTime
	healthy.SLA.ResolutionStatus = domain.SLAStatusOnTime
	healthy.SLA.DaysRemaining = 30
	require.NoError(t, f.grievances.Update(ctx, healthy))

	result, err := monitor.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failures)
	assert.Equal(t, 1, result.Reminders)

	stored, err := f.grievances.GetByID(ctx, healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SLAStatusNearingDue, stored.SLA.AckStatus)
}

func TestRunScheduledSkipsWhenLockNotWon(t *testing.T) {
	f := newEscalationFixture(t)
	ctx := context.Background()
	locker := &fakeLocker{won: false}
	monitor := newMonitorService(f, locker)

	grievance := f.submittedGrievance(t, f.child.ID)
	ackDue := f.now.AddDate(0, 0, 1)
	grievance.SLA.AckDueAt = &ackDue
	grievance.SLA.AckStatus = domain.SLAStatusOnTime
	require.NoError(t, f.grievances.Update(ctx, grievance))

	result, err := monitor.RunScheduled(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Processed)
	assert.Empty(t, f.dispatcher.eventsOfType(events.EventSLAReminderDue))
	require.Len(t, locker.keys, 1)
	assert.Equal(t, "grm:sla:sweep:2025-03-03", locker.keys[0])
}

func TestRunScheduledSweepsDespiteLockError(t *testing.T) {
	f := newEscalationFixture(t)
	ctx := context.Background()
	locker := &fakeLocker{won: false, err: context.DeadlineExceeded}
	monitor := newMonitorService(f, locker)

	f.submittedGrievance(t, f.child.ID)

	result, err := monitor.RunScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
}
