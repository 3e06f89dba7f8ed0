package domain

import (
	"fmt"
	"time"

	"poolroute_backend/platform/apperr"

	"github.com/google/uuid"
)

// MaxGenerationDays bounds a single generation period.
const MaxGenerationDays = 92

// Cadence describes which dates a route template recurs on.
type Cadence struct {
	Weekday       time.Weekday
	IntervalWeeks int
	// Anchor is the first date the cadence may produce. With IntervalWeeks > 1
	// it also fixes which weeks are "on".
	Anchor time.Time
}

// Validate checks the cadence is usable for expansion.
func (c Cadence) Validate() error {
	if c.Weekday < time.Sunday || c.Weekday > time.Saturday {
		return apperr.Validation("weekday must be between 0 (Sunday) and 6 (Saturday)")
	}
	if c.IntervalWeeks < 1 {
		return apperr.Validation("intervalWeeks must be at least 1")
	}
	if c.IntervalWeeks > 1 && c.Anchor.IsZero() {
		return apperr.Validation("anchorDate is required when intervalWeeks is greater than 1")
	}
	return nil
}

// Matches reports whether the cadence produces a visit on date.
func (c Cadence) Matches(date time.Time) bool {
	d := DateOf(date)
	if d.Weekday() != c.Weekday {
		return false
	}
	if c.Anchor.IsZero() {
		return c.IntervalWeeks <= 1
	}
	first := c.firstOnOrAfterAnchor()
	if d.Before(first) {
		return false
	}
	if c.IntervalWeeks <= 1 {
		return true
	}
	days := int(d.Sub(first).Hours() / 24)
	return days%(7*c.IntervalWeeks) == 0
}

func (c Cadence) firstOnOrAfterAnchor() time.Time {
	a := DateOf(c.Anchor)
	shift := (int(c.Weekday) - int(a.Weekday()) + 7) % 7
	return a.AddDate(0, 0, shift)
}

// GenerationKey identifies one generated visit. At most one visit per key
// may exist among the rows a template produced.
type GenerationKey struct {
	TemplateID uuid.UUID
	PoolID     uuid.UUID
	Date       time.Time
}

func (k GenerationKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.TemplateID, k.PoolID, k.Date.Format(DateLayout))
}

// TemplateSpec is the part of a route template expansion depends on.
type TemplateSpec struct {
	ID           uuid.UUID
	TechnicianID *uuid.UUID
	PoolIDs      []uuid.UUID
	Cadence      Cadence
}

// Occurrence is one visit a template wants to exist.
type Occurrence struct {
	Key          GenerationKey
	TechnicianID *uuid.UUID
}

// NewGenerationPeriod validates a generation window.
func NewGenerationPeriod(start, end time.Time) (DateRange, error) {
	period, err := NewDateRange(start, end)
	if err != nil {
		return DateRange{}, err
	}
	if period.Days() > MaxGenerationDays {
		return DateRange{}, apperr.Validation(fmt.Sprintf("period cannot exceed %d days", MaxGenerationDays))
	}
	return period, nil
}

// Expand lists the occurrences of spec inside period, ordered by date and
// then by the template's pool order. Repeated pool ids collapse to one.
func Expand(spec TemplateSpec, period DateRange) []Occurrence {
	pools := uniquePools(spec.PoolIDs)
	if len(pools) == 0 {
		return nil
	}

	var out []Occurrence
	for d := period.Start; !d.After(period.End); d = d.AddDate(0, 0, 1) {
		if !spec.Cadence.Matches(d) {
			continue
		}
		for _, poolID := range pools {
			out = append(out, Occurrence{
				Key:          GenerationKey{TemplateID: spec.ID, PoolID: poolID, Date: d},
				TechnicianID: spec.TechnicianID,
			})
		}
	}
	return out
}

func uniquePools(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
