package calculator

import (
	"time"

	"github.com/mmynk/settlements/internal/models"
)

// StartOfDay returns midnight of now's calendar day in loc.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// IsDue reports whether a pending settlement scheduled at scheduledPayoutAt
// counts as paid out when viewed at now.
func IsDue(scheduledPayoutAt, now time.Time, loc *time.Location) bool {
	return scheduledPayoutAt.Before(StartOfDay(now, loc))
}

// Project returns the settlement as callers should see it at now.
//
// A pending settlement whose payout date is before today is shown as completed,
// with CompletedAt defaulting to the scheduled payout time. The argument is
// never modified and nothing is written back to storage: only an explicit
// status transition persists completed.
func Project(s models.Settlement, now time.Time, loc *time.Location) models.Settlement {
	if s.Status != models.StatusPending || !IsDue(s.ScheduledPayoutAt, now, loc) {
		return s
	}

	s.Status = models.StatusCompleted
	if s.CompletedAt == nil {
		completedAt := s.ScheduledPayoutAt
		s.CompletedAt = &completedAt
	}
	return s
}

// ProjectAll applies Project to every settlement and returns new values.
func ProjectAll(items []*models.Settlement, now time.Time, loc *time.Location) []*models.Settlement {
	out := make([]*models.Settlement, len(items))
	for i, item := range items {
		projected := Project(*item, now, loc)
		out[i] = &projected
	}
	return out
}
