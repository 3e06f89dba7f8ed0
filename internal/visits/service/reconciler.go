package service

import (
	"context"
	"time"

	"poolroute_backend/internal/events"
	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/repository"

	"github.com/google/uuid"
)

// ReconcileResult lists the visits a pass changed.
type ReconcileResult struct {
	Orphaned []uuid.UUID `json:"orphaned"`
	Cleared  []uuid.UUID `json:"cleared"`
	// Refreshed visits stay orphaned but now carry a different absence reason.
	Refreshed []uuid.UUID `json:"refreshed"`
}

// Reconcile compares every open visit in the period with the tenant's
// absences in a single transaction. Covered SCHEDULED/ASSIGNED visits become
// ORPHANED; ORPHANED visits whose absence is gone return to SCHEDULED.
// A second pass over unchanged data writes nothing.
func (s *Service) Reconcile(ctx context.Context, tenantID uuid.UUID, periodStart, periodEnd time.Time) (*ReconcileResult, error) {
	started := s.now()
	period, err := domain.NewReconcilePeriod(periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	var result *ReconcileResult
	var orphaned []events.OrphanedVisit
	var transitions []visitTransition

	err = s.store.InTx(ctx, func(q repository.Queries) error {
		// Reset on every attempt so a rolled back pass reports nothing.
		result = &ReconcileResult{Orphaned: []uuid.UUID{}, Cleared: []uuid.UUID{}, Refreshed: []uuid.UUID{}}
		orphaned, transitions = nil, nil

		visits, err := q.ListVisitsForReconcile(ctx, tenantID, period)
		if err != nil {
			return err
		}
		if len(visits) == 0 {
			return nil
		}

		rows, err := q.ListAvailability(ctx, repository.AvailabilityFilter{
			OrganizationID: tenantID,
			From:           &period.Start,
			To:             &period.End,
		})
		if err != nil {
			return err
		}
		absences := repository.Absences(rows)

		for i := range visits {
			v := &visits[i]
			decision := domain.DecideReconcile(v.ReconcileInput(), absences)
			switch decision.Outcome {
			case domain.ReconcileOrphan:
				reason := decision.Reason
				v.Orphaned = true
				v.OrphanReason = &reason
				from, err := s.applyTransition(ctx, q, v, domain.ActionOrphan, nil, reason)
				if err != nil {
					return err
				}
				result.Orphaned = append(result.Orphaned, v.ID)
				transitions = append(transitions, visitTransition{visit: *v, from: from, action: domain.ActionOrphan})
				orphaned = append(orphaned, events.OrphanedVisit{
					VisitID:       v.ID,
					PoolID:        v.PoolID,
					TechnicianID:  *v.TechnicianID,
					ScheduledDate: v.ScheduledDate,
					Reason:        reason,
				})
			case domain.ReconcileClear:
				v.Orphaned = false
				v.OrphanReason = nil
				from, err := s.applyTransition(ctx, q, v, domain.ActionClearOrphan, nil, "")
				if err != nil {
					return err
				}
				result.Cleared = append(result.Cleared, v.ID)
				transitions = append(transitions, visitTransition{visit: *v, from: from, action: domain.ActionClearOrphan})
			case domain.ReconcileRefreshReason:
				reason := decision.Reason
				v.OrphanReason = &reason
				if err := q.UpdateVisit(ctx, v); err != nil {
					return err
				}
				result.Refreshed = append(result.Refreshed, v.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, t := range transitions {
		s.logTransition(ctx, &t.visit, t.from, t.action)
	}
	s.log.WithContext(ctx).ReconcileRun(tenantID.String(), len(result.Orphaned), len(result.Cleared), s.now().Sub(started))

	if len(orphaned) > 0 {
		s.publish(ctx, events.VisitsOrphaned{
			BaseEvent: events.NewBaseEvent(),
			TenantID:  tenantID,
			Visits:    orphaned,
		})
	}
	for _, id := range result.Cleared {
		s.publish(ctx, events.VisitOrphanCleared{
			BaseEvent: events.NewBaseEvent(),
			TenantID:  tenantID,
			VisitID:   id,
		})
	}
	return result, nil
}

type visitTransition struct {
	visit  repository.Visit
	from   domain.Status
	action domain.Action
}
