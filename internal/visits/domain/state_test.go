package domain

import (
	"testing"

	"poolroute_backend/platform/apperr"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from   Status
		origin Origin
		action Action
		want   Status
		ok     bool
	}{
		{StatusScheduled, OriginTemplate, ActionAssign, StatusAssigned, true},
		{StatusAssigned, OriginTemplate, ActionAssign, StatusAssigned, true},
		{StatusOrphaned, OriginTemplate, ActionAssign, StatusAssigned, true},
		{StatusOrphaned, OriginTemplate, ActionClearOrphan, StatusScheduled, true},
		{StatusScheduled, OriginTemplate, ActionClearOrphan, "", false},
		{StatusInProgress, OriginTemplate, ActionReschedule, "", false},
		{StatusInProgress, OriginTemplate, ActionComplete, StatusCompleted, true},
		{StatusOrphaned, OriginTemplate, ActionStart, "", false},
		{StatusScheduled, OriginTemplate, ActionCancel, "", false},
		{StatusScheduled, OriginSpecial, ActionCancel, StatusCancelled, true},
		{StatusOrphaned, OriginSpecial, ActionCancel, StatusCancelled, true},
	}
	for _, tc := range cases {
		got, err := Transition(tc.from, tc.origin, tc.action)
		if tc.ok {
			if err != nil {
				t.Fatalf("%s --%s--> unexpected error: %v", tc.from, tc.action, err)
			}
			if got != tc.want {
				t.Fatalf("%s --%s--> got %s, want %s", tc.from, tc.action, got, tc.want)
			}
			continue
		}
		if !apperr.Is(err, apperr.KindInvalidTransition) {
			t.Fatalf("%s --%s--> expected invalid transition, got %v", tc.from, tc.action, err)
		}
	}
}

func TestNoTransitionOutOfTerminalStates(t *testing.T) {
	actions := []Action{ActionAssign, ActionStart, ActionComplete, ActionOrphan, ActionClearOrphan, ActionReschedule, ActionCancel}
	for _, from := range []Status{StatusCompleted, StatusCancelled, StatusRescheduled} {
		if !from.IsTerminal() {
			t.Fatalf("%s should be terminal", from)
		}
		for _, origin := range []Origin{OriginTemplate, OriginSpecial} {
			for _, action := range actions {
				if CanTransition(from, origin, action) {
					t.Fatalf("%s allowed %s", from, action)
				}
			}
		}
	}
}

func TestOpenStatusesAreNotTerminal(t *testing.T) {
	for _, s := range OpenStatuses() {
		if s.IsTerminal() || !s.Valid() {
			t.Fatalf("%s should be a valid open status", s)
		}
	}
	if Status("PAUSED").Valid() {
		t.Fatalf("unknown status reported valid")
	}
}
