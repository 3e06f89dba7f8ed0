package domain

import (
	"sort"
	"time"

	"poolroute_backend/platform/apperr"

	"github.com/google/uuid"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar date at UTC midnight.
// The calendar day is read in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid date, expected YYYY-MM-DD")
	}
	return t, nil
}

// DateRange is an inclusive span of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange normalises both ends to calendar dates and rejects end < start.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: DateOf(start), End: DateOf(end)}
	if r.End.Before(r.Start) {
		return DateRange{}, apperr.Validation("end date must not be before start date")
	}
	return r, nil
}

// Days returns the number of calendar dates in the range.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Covers reports whether date falls inside the range, ends included.
func (r DateRange) Covers(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Overlaps reports whether two inclusive ranges share at least one date.
func Overlaps(a, b DateRange) bool {
	return !a.End.Before(b.Start) && !b.End.Before(a.Start)
}

// Absence is a technician's unavailability over an inclusive date range.
type Absence struct {
	ID           uuid.UUID
	TechnicianID uuid.UUID
	Range        DateRange
	Reason       string
}

// CoveringAbsences returns the absences of technicianID that cover date,
// earliest start first. Overlapping absences are a union, so any one match
// makes the technician unavailable.
func CoveringAbsences(absences []Absence, technicianID uuid.UUID, date time.Time) []Absence {
	var out []Absence
	for _, a := range absences {
		if a.TechnicianID == technicianID && a.Range.Covers(date) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Range.Start.Before(out[j].Range.Start)
	})
	return out
}

// FirstCovering returns the earliest-starting absence covering date.
func FirstCovering(absences []Absence, technicianID uuid.UUID, date time.Time) (Absence, bool) {
	covering := CoveringAbsences(absences, technicianID, date)
	if len(covering) == 0 {
		return Absence{}, false
	}
	return covering[0], true
}
