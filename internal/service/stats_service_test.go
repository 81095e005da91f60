package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-service/internal/domain"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

func TestStatusByTrackingCode(t *testing.T) {
	ctx := context.Background()
	grievances := newFakeGrievanceRepo()
	regions := newFakeRegionRepo()

	region := &domain.AdministrativeRegion{ProjectID: "p1", Name: "District A", LevelID: "l1"}
	require.NoError(t, regions.Create(ctx, region))

	submitted := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	resolutionDue := submitted.AddDate(0, 0, 14)
	grievance := &domain.Grievance{
		TrackingCode:    "GRM-PUBLIC0001",
		ProjectID:       "p1",
		RegionID:        region.ID,
		ComplainantID:   "u1",
		ComplainantName: "Amina Yusuf",
		Subject:         "Broken water pump",
		Status:          domain.GrievanceStatusOpen,
		SubmittedAt:     &submitted,
		SLA: domain.SLAState{
			ResolutionDueAt: &resolutionDue,
			DaysRemaining:   9,
			EscalationCount: 1,
		},
	}
	require.NoError(t, grievances.Create(ctx, grievance))

	svc := NewStatsService(grievances, regions)

	status, err := svc.StatusByTrackingCode(ctx, "GRM-PUBLIC0001")
	require.NoError(t, err)
	assert.Equal(t, domain.GrievanceStatusOpen, status.Status)
	assert.Equal(t, "District A", status.RegionName)
	assert.Equal(t, 9, status.DaysRemaining)
	assert.Equal(t, 1, status.EscalationCount)

	_, err = svc.StatusByTrackingCode(ctx, "GRM-NOPE")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestStatusByTrackingCodeHidesDrafts(t *testing.T) {
	ctx := context.Background()
	grievances := newFakeGrievanceRepo()
	draft := &domain.Grievance{
		TrackingCode:  "GRM-DRAFT00001",
		ProjectID:     "p1",
		RegionID:      "r1",
		ComplainantID: "u1",
		Status:        domain.GrievanceStatusDraft,
	}
	require.NoError(t, grievances.Create(ctx, draft))

	svc := NewStatsService(grievances, newFakeRegionRepo())
	_, err := svc.StatusByTrackingCode(ctx, "GRM-DRAFT00001")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestProjectStatsRejectsInvertedWindow(t *testing.T) {
	svc := NewStatsService(newFakeGrievanceRepo(), newFakeRegionRepo())

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.ProjectStats(context.Background(), "p1", from, to)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestProjectStatsDefaultsWindow(t *testing.T) {
	svc := NewStatsService(newFakeGrievanceRepo(), newFakeRegionRepo())

	stats, err := svc.ProjectStats(context.Background(), "p1", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "p1", stats.ProjectID)
	assert.WithinDuration(t, time.Now(), stats.To, time.Minute)
	assert.WithinDuration(t, stats.To.AddDate(0, -3, 0), stats.From, time.Minute)
}
