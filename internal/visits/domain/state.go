// Package domain holds the pure scheduling rules: the visit lifecycle,
// date interval arithmetic, template expansion and work-order validation.
// Nothing here touches storage or the clock.
package domain

import (
	"fmt"

	"poolroute_backend/platform/apperr"
)

// Status is the lifecycle state of a visit.
type Status string

const (
	StatusScheduled   Status = "SCHEDULED"
	StatusAssigned    Status = "ASSIGNED"
	StatusInProgress  Status = "IN_PROGRESS"
	StatusOrphaned    Status = "ORPHANED"
	StatusRescheduled Status = "RESCHEDULED"
	StatusCompleted   Status = "COMPLETED"
	StatusCancelled   Status = "CANCELLED"
)

// Action is a request to move a visit through its lifecycle.
type Action string

const (
	ActionAssign      Action = "assign"
	ActionStart       Action = "start"
	ActionComplete    Action = "complete"
	ActionOrphan      Action = "orphan"
	ActionClearOrphan Action = "clear_orphan"
	ActionReschedule  Action = "reschedule"
	ActionCancel      Action = "cancel"

	// ActionCreate appears only in the audit trail; it is not a transition.
	ActionCreate Action = "create"
)

// Origin records how a visit came to exist.
type Origin string

const (
	OriginTemplate Origin = "TEMPLATE"
	OriginSpecial  Origin = "SPECIAL"
)

var transitions = map[Status]map[Action]Status{
	StatusScheduled: {
		ActionAssign:     StatusAssigned,
		ActionStart:      StatusInProgress,
		ActionComplete:   StatusCompleted,
		ActionOrphan:     StatusOrphaned,
		ActionReschedule: StatusRescheduled,
		ActionCancel:     StatusCancelled,
	},
	StatusAssigned: {
		ActionAssign:     StatusAssigned,
		ActionStart:      StatusInProgress,
		ActionComplete:   StatusCompleted,
		ActionOrphan:     StatusOrphaned,
		ActionReschedule: StatusRescheduled,
		ActionCancel:     StatusCancelled,
	},
	StatusInProgress: {
		ActionComplete: StatusCompleted,
		ActionOrphan:   StatusOrphaned,
		ActionCancel:   StatusCancelled,
	},
	StatusOrphaned: {
		ActionAssign:      StatusAssigned,
		ActionComplete:    StatusCompleted,
		ActionClearOrphan: StatusScheduled,
		ActionReschedule:  StatusRescheduled,
		ActionCancel:      StatusCancelled,
	},
}

// Transition returns the state reached by applying action to a visit in
// status from. Cancellation is reserved for special visits.
func Transition(from Status, origin Origin, action Action) (Status, error) {
	if action == ActionCancel && origin != OriginSpecial {
		return "", apperr.InvalidTransition("only special visits can be cancelled").
			WithDetails(transitionDetails(from, action))
	}
	next, ok := transitions[from][action]
	if !ok {
		return "", apperr.InvalidTransition(fmt.Sprintf("cannot %s a visit in status %s", action, from)).
			WithDetails(transitionDetails(from, action))
	}
	return next, nil
}

// CanTransition reports whether action is allowed from status without building an error.
func CanTransition(from Status, origin Origin, action Action) bool {
	_, err := Transition(from, origin, action)
	return err == nil
}

// IsTerminal reports whether a visit in s can no longer change.
// RESCHEDULED is retired in favour of its successor and is treated the same.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRescheduled:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusAssigned, StatusInProgress, StatusOrphaned,
		StatusRescheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// OpenStatuses lists the statuses that still need work.
func OpenStatuses() []Status {
	return []Status{StatusScheduled, StatusAssigned, StatusInProgress, StatusOrphaned}
}

func transitionDetails(from Status, action Action) map[string]string {
	return map[string]string{"status": string(from), "action": string(action)}
}
