package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// Monday 2025-01-06 10:00 UTC.
var monday = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

func TestAddBusinessDays(t *testing.T) {
	calc := NewCalculator()

	tests := []struct {
		name  string
		start time.Time
		days  int
		want  time.Time
	}{
		{
			name:  "zero days returns start unchanged",
			start: monday,
			days:  0,
			want:  monday,
		},
		{
			name:  "negative days returns start unchanged",
			start: monday,
			days:  -3,
			want:  monday,
		},
		{
			name:  "within the same week",
			start: monday,
			days:  3,
			want:  time.Date(2025, 1, 9, 10, 0, 0, 0, time.UTC), // Thursday
		},
		{
			name:  "crossing one weekend",
			start: monday,
			days:  7,
			want:  time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC), // Wednesday next week
		},
		{
			name:  "friday plus one lands on monday",
			start: time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC),
			days:  1,
			want:  time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "saturday start counts from next workdays",
			start: time.Date(2025, 1, 11, 10, 0, 0, 0, time.UTC),
			days:  1,
			want:  time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.AddBusinessDays(tt.start, tt.days)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeDueDates(t *testing.T) {
	calc := NewCalculator()
	level := &domain.RegionLevel{AcknowledgmentDays: 7, ResolutionDays: 30}

	ackDue, resolutionDue := calc.ComputeDueDates(monday, level)

	// 7 business days from Monday Jan 6 is Wednesday Jan 15
	assert.Equal(t, time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC), ackDue)
	// 30 business days is exactly 6 weeks: Monday Feb 17
	assert.Equal(t, time.Date(2025, 2, 17, 10, 0, 0, 0, time.UTC), resolutionDue)
	assert.False(t, ackDue.After(resolutionDue))
}

func TestComputeDueDatesAckNeverAfterResolution(t *testing.T) {
	calc := NewCalculator()
	for ack := 0; ack <= 10; ack++ {
		level := &domain.RegionLevel{AcknowledgmentDays: ack, ResolutionDays: 10}
		ackDue, resolutionDue := calc.ComputeDueDates(monday, level)
		assert.False(t, ackDue.After(resolutionDue), "ack=%d", ack)
	}
}

func TestClassify(t *testing.T) {
	due := monday.AddDate(0, 0, 10)
	completed := monday.AddDate(0, 0, 2)

	tests := []struct {
		name        string
		now         time.Time
		completedAt *time.Time
		lead        int
		want        domain.SLAStatus
	}{
		{
			name: "well before due",
			now:  monday,
			lead: 3,
			want: domain.SLAStatusOnTime,
		},
		{
			name: "inside reminder window",
			now:  due.AddDate(0, 0, -2),
			lead: 3,
			want: domain.SLAStatusNearingDue,
		},
		{
			name: "exactly at due is not breached",
			now:  due,
			lead: 3,
			want: domain.SLAStatusNearingDue,
		},
		{
			name: "past due",
			now:  due.Add(time.Hour),
			lead: 3,
			want: domain.SLAStatusBreached,
		},
		{
			name:        "completion wins regardless of timing",
			now:         due.AddDate(0, 0, 5),
			completedAt: &completed,
			lead:        3,
			want:        domain.SLAStatusResolved,
		},
		{
			name: "zero lead stays on-time right up to due",
			now:  due.Add(-time.Hour),
			lead: 0,
			want: domain.SLAStatusOnTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(due, tt.now, tt.completedAt, domain.SLAStatusResolved, tt.lead)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDaysRemaining(t *testing.T) {
	due := monday.AddDate(0, 0, 5)

	assert.Equal(t, 5, DaysRemaining(due, monday))
	assert.Equal(t, 1, DaysRemaining(due, due.Add(-2*time.Hour)))
	assert.Equal(t, 0, DaysRemaining(due, due))
	assert.Equal(t, -2, DaysRemaining(due, due.AddDate(0, 0, 2)))
}

func TestInitializeAndReclassify(t *testing.T) {
	calc := NewCalculator()
	level := &domain.RegionLevel{AcknowledgmentDays: 2, ResolutionDays: 5, ReminderLeadDays: 1}

	var state domain.SLAState
	calc.Initialize(&state, level, monday, monday)

	require.True(t, state.Active())
	assert.Equal(t, domain.SLAStatusOnTime, state.AckStatus)
	assert.Equal(t, domain.SLAStatusOnTime, state.ResolutionStatus)
	assert.Positive(t, state.DaysRemaining)

	// repeated reclassification with the same clock changes nothing
	before := state
	calc.Reclassify(&state, level, monday)
	assert.Equal(t, before, state)

	// past the resolution deadline both dimensions are breached
	late := state.ResolutionDueAt.AddDate(0, 0, 1)
	calc.Reclassify(&state, level, late)
	assert.Equal(t, domain.SLAStatusBreached, state.AckStatus)
	assert.Equal(t, domain.SLAStatusBreached, state.ResolutionStatus)
	assert.Negative(t, state.DaysRemaining)

	// acknowledgment pins its dimension even after the deadline
	acked := monday.AddDate(0, 0, 1)
	state.AcknowledgedAt = &acked
	calc.Reclassify(&state, level, late)
	assert.Equal(t, domain.SLAStatusAcknowledged, state.AckStatus)
	assert.Equal(t, domain.SLAStatusBreached, state.ResolutionStatus)
}

func TestReclassifyInactiveStateIsNoop(t *testing.T) {
	calc := NewCalculator()
	level := &domain.RegionLevel{AcknowledgmentDays: 2, ResolutionDays: 5}

	var state domain.SLAState
	calc.Reclassify(&state, level, monday)
	assert.Equal(t, domain.SLAState{}, state)
}
