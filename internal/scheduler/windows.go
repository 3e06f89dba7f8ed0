package scheduler

import (
	"time"

	"poolroute_backend/internal/visits/domain"
)

// rollingWindow returns [today, today+days-1] with days clamped to [1, maxDays].
func rollingWindow(now time.Time, loc *time.Location, days, maxDays int) domain.DateRange {
	if days < 1 {
		days = 1
	}
	if days > maxDays {
		days = maxDays
	}
	today := domain.DateOf(now.In(loc))
	return domain.DateRange{Start: today, End: today.AddDate(0, 0, days-1)}
}

// absenceWindow clips an absence to the dates still worth reconciling.
// ok is false when the absence lies entirely in the past.
func absenceWindow(now time.Time, loc *time.Location, start, end time.Time) (domain.DateRange, bool) {
	today := domain.DateOf(now.In(loc))
	from := domain.DateOf(start)
	if from.Before(today) {
		from = today
	}
	to := domain.DateOf(end)
	if to.Before(from) {
		return domain.DateRange{}, false
	}
	if limit := from.AddDate(0, 0, domain.MaxReconcileDays-1); to.After(limit) {
		to = limit
	}
	return domain.DateRange{Start: from, End: to}, true
}
