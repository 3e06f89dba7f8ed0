package domain

import (
	"fmt"
	"time"

	"poolroute_backend/platform/apperr"

	"github.com/google/uuid"
)

// MaxReconcileDays bounds one reconciliation pass, which locks every open
// visit in its period.
const MaxReconcileDays = 366

// NewReconcilePeriod validates a reconciliation window.
func NewReconcilePeriod(start, end time.Time) (DateRange, error) {
	period, err := NewDateRange(start, end)
	if err != nil {
		return DateRange{}, err
	}
	if period.Days() > MaxReconcileDays {
		return DateRange{}, apperr.Validation(fmt.Sprintf("reconciliation period cannot exceed %d days", MaxReconcileDays))
	}
	return period, nil
}

// ReconcileOutcome is what a reconciliation pass should do with one visit.
type ReconcileOutcome int

const (
	ReconcileKeep ReconcileOutcome = iota
	ReconcileOrphan
	ReconcileClear
	// ReconcileRefreshReason keeps an orphaned visit orphaned but the
	// covering absence now carries a different reason.
	ReconcileRefreshReason
)

// ReconcileInput is the slice of a visit the reconciler decides on.
type ReconcileInput struct {
	Status       Status
	TechnicianID *uuid.UUID
	Date         time.Time
	OrphanReason string
}

// ReconcileDecision pairs an outcome with the orphan reason to store.
type ReconcileDecision struct {
	Outcome ReconcileOutcome
	Reason  string
}

// DecideReconcile compares a visit with the tenant's absences.
// Only SCHEDULED and ASSIGNED visits become orphaned; a visit already in
// progress stays with its technician. Terminal visits are never touched.
func DecideReconcile(in ReconcileInput, absences []Absence) ReconcileDecision {
	switch in.Status {
	case StatusScheduled, StatusAssigned:
		if in.TechnicianID == nil {
			return ReconcileDecision{Outcome: ReconcileKeep}
		}
		if a, ok := FirstCovering(absences, *in.TechnicianID, in.Date); ok {
			return ReconcileDecision{Outcome: ReconcileOrphan, Reason: a.Reason}
		}
	case StatusOrphaned:
		if in.TechnicianID == nil {
			return ReconcileDecision{Outcome: ReconcileClear}
		}
		a, ok := FirstCovering(absences, *in.TechnicianID, in.Date)
		if !ok {
			return ReconcileDecision{Outcome: ReconcileClear}
		}
		if a.Reason != in.OrphanReason {
			return ReconcileDecision{Outcome: ReconcileRefreshReason, Reason: a.Reason}
		}
	}
	return ReconcileDecision{Outcome: ReconcileKeep}
}
