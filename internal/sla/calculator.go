// Package sla computes grievance due dates and deadline status. All
// computation is deterministic and side-effect free; callers decide what to
// persist and when.
package sla

import (
	"math"
	"time"

	"github.com/rickar/cal/v2"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// Calculator performs business-day arithmetic against a working calendar.
type Calculator struct {
	calendar *cal.BusinessCalendar
}

// NewCalculator builds a calculator over a Mon-Fri working week with no
// holiday calendar.
func NewCalculator() *Calculator {
	c := cal.NewBusinessCalendar()
	c.SetWorkday(time.Saturday, false)
	c.SetWorkday(time.Sunday, false)
	return &Calculator{calendar: c}
}

// AddBusinessDays steps forward one calendar day at a time, counting only
// working days, until days working days have elapsed. days <= 0 returns the
// start unchanged.
func (c *Calculator) AddBusinessDays(start time.Time, days int) time.Time {
	if days <= 0 {
		return start
	}
	result := start
	for added := 0; added < days; {
		result = result.AddDate(0, 0, 1)
		if c.calendar.IsWorkday(result) {
			added++
		}
	}
	return result
}

// BusinessDaysBetween counts working days strictly after start up to and
// including end.
func (c *Calculator) BusinessDaysBetween(start, end time.Time) int {
	count := 0
	for d := start.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		if c.calendar.IsWorkday(d) {
			count++
		}
	}
	return count
}

// ComputeDueDates derives both deadlines from the submission time and the
// region level's SLA configuration.
func (c *Calculator) ComputeDueDates(submittedAt time.Time, level *domain.RegionLevel) (ackDue, resolutionDue time.Time) {
	ackDue = c.AddBusinessDays(submittedAt, level.AcknowledgmentDays)
	resolutionDue = c.AddBusinessDays(submittedAt, level.ResolutionDays)
	return ackDue, resolutionDue
}

// Classify maps one SLA dimension to its status. A set completedAt always
// yields the terminal status regardless of timing.
func Classify(dueAt, now time.Time, completedAt *time.Time, terminal domain.SLAStatus, reminderLeadDays int) domain.SLAStatus {
	if completedAt != nil {
		return terminal
	}
	if now.After(dueAt) {
		return domain.SLAStatusBreached
	}
	if dueAt.Sub(now) <= time.Duration(reminderLeadDays)*24*time.Hour {
		return domain.SLAStatusNearingDue
	}
	return domain.SLAStatusOnTime
}

// DaysRemaining returns ceil(dueAt - now) in days, negative once breached.
func DaysRemaining(dueAt, now time.Time) int {
	return int(math.Ceil(dueAt.Sub(now).Hours() / 24))
}

// Initialize derives a fresh SLA state at submission (or escalation) time.
// The from time is the moment the clock starts: submission for new
// grievances, the escalation instant for escalated ones.
func (c *Calculator) Initialize(state *domain.SLAState, level *domain.RegionLevel, from, now time.Time) {
	ackDue, resolutionDue := c.ComputeDueDates(from, level)
	state.AckDueAt = &ackDue
	state.ResolutionDueAt = &resolutionDue
	c.Reclassify(state, level, now)
}

// Reclassify recomputes both status dimensions and the remaining-days counter
// from current due dates. Safe to repeat; identical inputs yield identical
// state.
func (c *Calculator) Reclassify(state *domain.SLAState, level *domain.RegionLevel, now time.Time) {
	if !state.Active() {
		return
	}
	state.AckStatus = Classify(*state.AckDueAt, now, state.AcknowledgedAt, domain.SLAStatusAcknowledged, level.ReminderLeadDays)
	state.ResolutionStatus = Classify(*state.ResolutionDueAt, now, state.ResolvedAt, domain.SLAStatusResolved, level.ReminderLeadDays)
	state.DaysRemaining = DaysRemaining(*state.ResolutionDueAt, now)
}
