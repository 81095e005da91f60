package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

type grievanceFixture struct {
	service    *GrievanceService
	grievances *fakeGrievanceRepo
	notes      *fakeNoteRepo
	activity   *fakeActivityRepo
	dispatcher *recordingDispatcher
	user       *domain.User
	officer    *domain.Officer
	region     *domain.AdministrativeRegion
	now        time.Time
}

func newGrievanceFixture(t *testing.T) *grievanceFixture {
	t.Helper()
	ctx := context.Background()

	projects := newFakeProjectRepo()
	require.NoError(t, projects.Create(ctx, &domain.Project{ID: "p1", Name: "Rural Water Programme", IsActive: true}))
	require.NoError(t, projects.Create(ctx, &domain.Project{ID: "p2", Name: "Dormant Programme", IsActive: false}))

	levels := newFakeLevelRepo()
	level := &domain.RegionLevel{ProjectID: "p1", Name: "District", Rank: 1, AcknowledgmentDays: 2, ResolutionDays: 10, ReminderLeadDays: 1}
	require.NoError(t, levels.Create(ctx, level))

	regions := newFakeRegionRepo()
	region := &domain.AdministrativeRegion{ProjectID: "p1", Name: "District A", LevelID: level.ID}
	require.NoError(t, regions.Create(ctx, region))
	region.Path = region.ID
	require.NoError(t, regions.Update(ctx, region))

	fixedNow := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC) // a Monday
	grievances := newFakeGrievanceRepo()
	notes := &fakeNoteRepo{}
	activity := &fakeActivityRepo{}
	dispatcher := newRecordingDispatcher()

	svc := NewGrievanceService(GrievanceDependencies{
		GrievanceRepo: grievances,
		RegionRepo:    regions,
		LevelRepo:     levels,
		ProjectRepo:   projects,
		NoteRepo:      notes,
		ActivityRepo:  activity,
		Dispatcher:    dispatcher,
		Now:           func() time.Time { return fixedNow },
	})

	projectID := "p1"
	return &grievanceFixture{
		service:    svc,
		grievances: grievances,
		notes:      notes,
		activity:   activity,
		dispatcher: dispatcher,
		user:       &domain.User{ID: "u1", Name: "Amina Yusuf", Email: "amina@example.org"},
		officer:    &domain.Officer{ID: "o1", Role: domain.OfficerRoleOfficer, ProjectID: &projectID, Active: true},
		region:     region,
		now:        fixedNow,
	}
}

func (f *grievanceFixture) draft(t *testing.T) *domain.Grievance {
	t.Helper()
	grievance, err := f.service.CreateDraft(context.Background(), f.user, GrievanceCreateInput{
		ProjectID:   "p1",
		RegionID:    f.region.ID,
		Category:    domain.CategoryInfrastructure,
		Subject:     "Broken water pump",
		Description: "The pump near the school has been out for a week.",
	})
	require.NoError(t, err)
	return grievance
}

func (f *grievanceFixture) submitted(t *testing.T) *domain.Grievance {
	t.Helper()
	grievance := f.draft(t)
	submitted, err := f.service.Submit(context.Background(), f.user.ID, grievance.ID)
	require.NoError(t, err)
	return submitted
}

func TestCreateDraft(t *testing.T) {
	f := newGrievanceFixture(t)
	grievance := f.draft(t)

	assert.Equal(t, domain.GrievanceStatusDraft, grievance.Status)
	assert.True(t, strings.HasPrefix(grievance.TrackingCode, "GRM-"))
	assert.Len(t, grievance.TrackingCode, 14)
	assert.Nil(t, grievance.SubmittedAt)
	assert.False(t, grievance.SLA.Active())
}

func TestCreateDraftDefaultsCategory(t *testing.T) {
	f := newGrievanceFixture(t)
	grievance, err := f.service.CreateDraft(context.Background(), f.user, GrievanceCreateInput{
		ProjectID:   "p1",
		RegionID:    f.region.ID,
		Subject:     "No subject category",
		Description: "desc",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryOther, grievance.Category)
}

func TestCreateDraftRejectsInactiveProject(t *testing.T) {
	f := newGrievanceFixture(t)
	_, err := f.service.CreateDraft(context.Background(), f.user, GrievanceCreateInput{
		ProjectID:   "p2",
		RegionID:    f.region.ID,
		Subject:     "s",
		Description: "d",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestSubmitStartsSLAClock(t *testing.T) {
	f := newGrievanceFixture(t)
	grievance := f.submitted(t)

	assert.Equal(t, domain.GrievanceStatusOpen, grievance.Status)
	require.NotNil(t, grievance.SubmittedAt)
	assert.Equal(t, f.now, *grievance.SubmittedAt)
	require.True(t, grievance.SLA.Active())
	// 2 and 10 business days from Monday 2025-03-03
	assert.Equal(t, time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC), *grievance.SLA.AckDueAt)
	assert.Equal(t, time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC), *grievance.SLA.ResolutionDueAt)
	assert.Equal(t, domain.SLAStatusOnTime, grievance.SLA.AckStatus)

	published := f.dispatcher.eventsOfType(events.EventGrievanceSubmitted)
	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.GrievanceSubmittedPayload)
	require.True(t, ok)
	assert.Equal(t, grievance.TrackingCode, payload.TrackingCode)

	// double submit is a conflict
	_, err := f.service.Submit(context.Background(), f.user.ID, grievance.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestSubmitRequiresOwnership(t *testing.T) {
	f := newGrievanceFixture(t)
	grievance := f.draft(t)

	_, err := f.service.Submit(context.Background(), "someone-else", grievance.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestAcknowledge(t *testing.T) {
	f := newGrievanceFixture(t)
	ctx := context.Background()
	grievance := f.submitted(t)

	acked, err := f.service.Acknowledge(ctx, f.officer, grievance.ID)
	require.NoError(t, err)
	require.NotNil(t, acked.SLA.AcknowledgedAt)
	assert.Equal(t, domain.SLAStatusAcknowledged, acked.SLA.AckStatus)
	assert.Len(t, f.dispatcher.eventsOfType(events.EventGrievanceAcknowledged), 1)

	_, err = f.service.Acknowledge(ctx, f.officer, grievance.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newGrievanceFixture(t)
	ctx := context.Background()
	grievance := f.submitted(t)

	_, err := f.service.UpdateStatus(ctx, f.officer, grievance.ID, domain.GrievanceStatusClosed, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	resolved, err := f.service.UpdateStatus(ctx, f.officer, grievance.ID, domain.GrievanceStatusResolved, "pump fixed")
	require.NoError(t, err)
	require.NotNil(t, resolved.SLA.ResolvedAt)
	assert.Equal(t, domain.SLAStatusResolved, resolved.SLA.ResolutionStatus)

	// reopening clears the resolution timestamp and restarts classification
	reopened, err := f.service.UpdateStatus(ctx, f.officer, grievance.ID, domain.GrievanceStatusInProgress, "still broken")
	require.NoError(t, err)
	assert.Nil(t, reopened.SLA.ResolvedAt)
	assert.NotEqual(t, domain.SLAStatusResolved, reopened.SLA.ResolutionStatus)

	published := f.dispatcher.eventsOfType(events.EventGrievanceStatusChanged)
	assert.Len(t, published, 2)
}

func TestCloseAsUserRequiresResolved(t *testing.T) {
	f := newGrievanceFixture(t)
	ctx := context.Background()
	grievance := f.submitted(t)

	_, err := f.service.CloseAsUser(ctx, f.user.ID, grievance.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	_, err = f.service.UpdateStatus(ctx, f.officer, grievance.ID, domain.GrievanceStatusResolved, "")
	require.NoError(t, err)

	closed, err := f.service.CloseAsUser(ctx, f.user.ID, grievance.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GrievanceStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
}

func TestAddNoteVisibilityRules(t *testing.T) {
	f := newGrievanceFixture(t)
	ctx := context.Background()
	grievance := f.submitted(t)

	// citizens may only post public notes
	_, err := f.service.AddNote(ctx, domain.ActorTypeUser, f.user.ID, nil, grievance.ID, domain.NoteInternal, "secret?")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	note, err := f.service.AddNote(ctx, domain.ActorTypeUser, f.user.ID, nil, grievance.ID, domain.NotePublic, "Any update?")
	require.NoError(t, err)
	assert.Equal(t, domain.NotePublic, note.Visibility)

	internal, err := f.service.AddNote(ctx, domain.ActorTypeOfficer, f.officer.ID, f.officer, grievance.ID, domain.NoteInternal, "checking with field team")
	require.NoError(t, err)
	assert.Equal(t, domain.NoteInternal, internal.Visibility)

	// internal notes are filtered from the citizen view
	_, visible, err := f.service.GetGrievanceForUser(ctx, f.user.ID, grievance.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, domain.NotePublic, visible[0].Visibility)
}

func TestOfficerScopeBlocksForeignProject(t *testing.T) {
	f := newGrievanceFixture(t)
	ctx := context.Background()
	grievance := f.submitted(t)

	otherProject := "p9"
	foreign := &domain.Officer{ID: "o2", Role: domain.OfficerRoleOfficer, ProjectID: &otherProject, Active: true}
	_, _, err := f.service.GetGrievanceForOfficer(ctx, foreign, grievance.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	admin := &domain.Officer{ID: "o3", Role: domain.OfficerRoleAdmin, Active: true}
	_, _, err = f.service.GetGrievanceForOfficer(ctx, admin, grievance.ID)
	require.NoError(t, err)
}
