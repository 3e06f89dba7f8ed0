package domain

import (
	"testing"
	"time"

	"poolroute_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestExpandWeeklyTemplate(t *testing.T) {
	tech := uuid.New()
	p1, p2 := uuid.New(), uuid.New()
	spec := TemplateSpec{
		ID:           uuid.New(),
		TechnicianID: &tech,
		PoolIDs:      []uuid.UUID{p1, p2, p1},
		Cadence:      Cadence{Weekday: time.Monday, IntervalWeeks: 1},
	}
	// 2026-03-02 is a Monday; the period holds two Mondays.
	period, err := NewGenerationPeriod(day("2026-03-01"), day("2026-03-14"))
	if err != nil {
		t.Fatalf("period: %v", err)
	}

	got := Expand(spec, period)
	if len(got) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(got))
	}
	if got[0].Key.PoolID != p1 || got[1].Key.PoolID != p2 {
		t.Fatalf("expected template pool order preserved")
	}
	if !got[0].Key.Date.Equal(day("2026-03-02")) || !got[2].Key.Date.Equal(day("2026-03-09")) {
		t.Fatalf("unexpected dates %v, %v", got[0].Key.Date, got[2].Key.Date)
	}
	if got[0].TechnicianID == nil || *got[0].TechnicianID != tech {
		t.Fatalf("expected technician copied from template")
	}
}

func TestExpandIsDeterministic(t *testing.T) {
	spec := TemplateSpec{
		ID:      uuid.New(),
		PoolIDs: []uuid.UUID{uuid.New()},
		Cadence: Cadence{Weekday: time.Friday, IntervalWeeks: 1},
	}
	period := DateRange{Start: day("2026-01-01"), End: day("2026-03-31")}
	a, b := Expand(spec, period), Expand(spec, period)
	if len(a) != len(b) {
		t.Fatalf("expansion length differs")
	}
	for i := range a {
		if a[i].Key != b[i].Key {
			t.Fatalf("expansion differs at %d", i)
		}
	}
}

func TestBiweeklyCadenceFollowsAnchor(t *testing.T) {
	c := Cadence{Weekday: time.Monday, IntervalWeeks: 2, Anchor: day("2026-03-04")}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	// First Monday on or after the Wednesday anchor is 2026-03-09.
	want := map[string]bool{
		"2026-03-02": false,
		"2026-03-09": true,
		"2026-03-16": false,
		"2026-03-23": true,
		"2026-03-24": false,
	}
	for d, expected := range want {
		if got := c.Matches(day(d)); got != expected {
			t.Fatalf("Matches(%s) = %v, want %v", d, got, expected)
		}
	}
}

func TestCadenceValidate(t *testing.T) {
	bad := []Cadence{
		{Weekday: 7, IntervalWeeks: 1},
		{Weekday: time.Monday, IntervalWeeks: 0},
		{Weekday: time.Monday, IntervalWeeks: 3},
	}
	for _, c := range bad {
		if !apperr.Is(c.Validate(), apperr.KindValidation) {
			t.Fatalf("expected validation error for %+v", c)
		}
	}
}

func TestGenerationPeriodLimits(t *testing.T) {
	if _, err := NewGenerationPeriod(day("2026-03-10"), day("2026-03-01")); err == nil {
		t.Fatalf("expected error for inverted period")
	}
	start := day("2026-01-01")
	if _, err := NewGenerationPeriod(start, start.AddDate(0, 0, MaxGenerationDays-1)); err != nil {
		t.Fatalf("expected %d-day period accepted: %v", MaxGenerationDays, err)
	}
	if _, err := NewGenerationPeriod(start, start.AddDate(0, 0, MaxGenerationDays)); err == nil {
		t.Fatalf("expected period over the limit rejected")
	}
}
