package service

import (
	"context"
	"time"

	"poolroute_backend/internal/events"
	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/platform/apperr"
	"poolroute_backend/platform/sanitize"

	"github.com/google/uuid"
)

// SpecialVisitInput describes an ad-hoc visit outside any route template.
type SpecialVisitInput struct {
	PoolID       uuid.UUID
	Date         time.Time
	TechnicianID *uuid.UUID
	Force        bool
	ActorID      *uuid.UUID
}

// RescheduleResult holds both sides of a reschedule.
type RescheduleResult struct {
	Retired   *repository.Visit `json:"retired"`
	Successor *repository.Visit `json:"successor"`
}

// AssignTechnician puts technicianID on the visit. When an absence covers the
// visit date the call fails with an unavailable error unless force is set.
func (s *Service) AssignTechnician(ctx context.Context, tenantID, visitID, technicianID uuid.UUID, force bool, actorID *uuid.UUID) (*repository.Visit, error) {
	var visit *repository.Visit
	var from domain.Status

	err := s.store.InTx(ctx, func(q repository.Queries) error {
		v, err := q.GetVisitForUpdate(ctx, tenantID, visitID)
		if err != nil {
			return err
		}
		tech, err := q.GetTechnician(ctx, tenantID, technicianID)
		if err != nil {
			return err
		}
		if !tech.Active {
			return apperr.Validation(msgTechnicianInactive)
		}
		if _, err := domain.Transition(v.Status, v.Origin, domain.ActionAssign); err != nil {
			return err
		}

		covering, err := s.coveringAbsences(ctx, q, tenantID, technicianID, v.ScheduledDate)
		if err != nil {
			return err
		}
		if len(covering) > 0 && !force {
			return errTechnicianAbsent(covering)
		}

		v.TechnicianID = &tech.ID
		v.Orphaned = false
		v.OrphanReason = nil
		v.ForceAssigned = force && len(covering) > 0
		reason := ""
		if v.ForceAssigned {
			reason = "forced over " + covering[0].Reason
		}
		if from, err = s.applyTransition(ctx, q, v, domain.ActionAssign, actorID, reason); err != nil {
			return err
		}
		visit = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, visit, from, domain.ActionAssign)
	s.publish(ctx, events.VisitAssigned{
		BaseEvent:    events.NewBaseEvent(),
		TenantID:     tenantID,
		VisitID:      visit.ID,
		TechnicianID: technicianID,
		Forced:       visit.ForceAssigned,
		ActorID:      actorID,
	})
	return visit, nil
}

// RescheduleVisit retires the visit and creates its successor on newDate.
// The successor keeps pool, client, technician, origin and template and
// points back at the retired visit. Availability on the new date is left to
// the next reconciliation pass.
func (s *Service) RescheduleVisit(ctx context.Context, tenantID, visitID uuid.UUID, newDate time.Time, actorID *uuid.UUID) (*RescheduleResult, error) {
	newDate = domain.DateOf(newDate)
	var result RescheduleResult
	var from domain.Status

	err := s.store.InTx(ctx, func(q repository.Queries) error {
		v, err := q.GetVisitForUpdate(ctx, tenantID, visitID)
		if err != nil {
			return err
		}
		if v.ScheduledDate.Equal(newDate) {
			return apperr.Validation("new date must differ from the current date")
		}
		if err := ensureRouteDateFree(ctx, q, v, newDate); err != nil {
			return err
		}

		v.Orphaned = false
		v.OrphanReason = nil
		if from, err = s.applyTransition(ctx, q, v, domain.ActionReschedule, actorID, newDate.Format(domain.DateLayout)); err != nil {
			return err
		}

		now := s.now().UTC()
		retiredID := v.ID
		successor := repository.Visit{
			ID:                uuid.New(),
			OrganizationID:    tenantID,
			PoolID:            v.PoolID,
			ClientID:          v.ClientID,
			TechnicianID:      v.TechnicianID,
			ScheduledDate:     newDate,
			Origin:            v.Origin,
			TemplateID:        v.TemplateID,
			Status:            domain.StatusScheduled,
			RescheduledFromID: &retiredID,
			Version:           1,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := q.InsertVisit(ctx, successor); err != nil {
			return err
		}
		if err := s.recordTransition(ctx, q, &successor, nil, domain.ActionCreate, actorID, "rescheduled from "+v.ScheduledDate.Format(domain.DateLayout)); err != nil {
			return err
		}

		result.Retired = v
		result.Successor = &successor
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, result.Retired, from, domain.ActionReschedule)
	s.publish(ctx, events.VisitRescheduled{
		BaseEvent:   events.NewBaseEvent(),
		TenantID:    tenantID,
		VisitID:     result.Retired.ID,
		SuccessorID: result.Successor.ID,
		NewDate:     newDate,
		ActorID:     actorID,
	})
	return &result, nil
}

// ensureRouteDateFree rejects moving a template visit onto a date where the
// same template already has an open visit for the pool.
func ensureRouteDateFree(ctx context.Context, q repository.Queries, v *repository.Visit, date time.Time) error {
	if v.Origin != domain.OriginTemplate || v.TemplateID == nil {
		return nil
	}
	key := domain.GenerationKey{TemplateID: *v.TemplateID, PoolID: v.PoolID, Date: date}
	id, found, err := q.FindGeneratedVisit(ctx, v.OrganizationID, key)
	if err != nil || !found {
		return err
	}
	other, err := q.GetVisit(ctx, v.OrganizationID, id)
	if err != nil {
		return err
	}
	if other.Status.IsTerminal() {
		return nil
	}
	return apperr.Conflict(msgRouteDateTaken).
		WithDetails(map[string]string{"visitId": other.ID.String()})
}

// CreateSpecialVisit creates an ad-hoc SCHEDULED visit for a pool.
func (s *Service) CreateSpecialVisit(ctx context.Context, tenantID uuid.UUID, in SpecialVisitInput) (*repository.Visit, error) {
	var visit repository.Visit

	err := s.store.InTx(ctx, func(q repository.Queries) error {
		pool, err := q.GetPool(ctx, tenantID, in.PoolID)
		if err != nil {
			return err
		}
		if !pool.Active {
			return apperr.Validation(msgPoolInactive)
		}

		date := domain.DateOf(in.Date)
		now := s.now().UTC()
		visit = repository.Visit{
			ID:             uuid.New(),
			OrganizationID: tenantID,
			PoolID:         pool.ID,
			ClientID:       pool.ClientID,
			ScheduledDate:  date,
			Origin:         domain.OriginSpecial,
			Status:         domain.StatusScheduled,
			Version:        1,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if in.TechnicianID != nil {
			tech, err := q.GetTechnician(ctx, tenantID, *in.TechnicianID)
			if err != nil {
				return err
			}
			if !tech.Active {
				return apperr.Validation(msgTechnicianInactive)
			}
			covering, err := s.coveringAbsences(ctx, q, tenantID, tech.ID, date)
			if err != nil {
				return err
			}
			if len(covering) > 0 && !in.Force {
				return errTechnicianAbsent(covering)
			}
			visit.TechnicianID = &tech.ID
			visit.ForceAssigned = len(covering) > 0
		}

		if err := q.InsertVisit(ctx, visit); err != nil {
			return err
		}
		return s.recordTransition(ctx, q, &visit, nil, domain.ActionCreate, in.ActorID, "")
	})
	if err != nil {
		return nil, err
	}
	return &visit, nil
}

// CancelSpecialVisit cancels a SPECIAL visit. Template visits cannot be cancelled.
func (s *Service) CancelSpecialVisit(ctx context.Context, tenantID, visitID uuid.UUID, reason string, actorID *uuid.UUID) (*repository.Visit, error) {
	reason = sanitize.Text(reason)
	var visit *repository.Visit
	var from domain.Status

	err := s.store.InTx(ctx, func(q repository.Queries) error {
		v, err := q.GetVisitForUpdate(ctx, tenantID, visitID)
		if err != nil {
			return err
		}
		if reason != "" {
			v.CancelReason = &reason
		}
		v.Orphaned = false
		v.OrphanReason = nil
		if from, err = s.applyTransition(ctx, q, v, domain.ActionCancel, actorID, reason); err != nil {
			return err
		}
		visit = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, visit, from, domain.ActionCancel)
	s.publish(ctx, events.VisitCancelled{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenantID,
		VisitID:   visit.ID,
		Reason:    reason,
		ActorID:   actorID,
	})
	return visit, nil
}

// StartVisit marks the visit IN_PROGRESS. Only the assigned technician may start it.
func (s *Service) StartVisit(ctx context.Context, tenantID, visitID, technicianID uuid.UUID) (*repository.Visit, error) {
	var visit *repository.Visit
	var from domain.Status

	err := s.store.InTx(ctx, func(q repository.Queries) error {
		v, err := q.GetVisitForUpdate(ctx, tenantID, visitID)
		if err != nil {
			return err
		}
		if v.TechnicianID == nil || *v.TechnicianID != technicianID {
			return apperr.Forbidden(msgNotAssigned)
		}
		if from, err = s.applyTransition(ctx, q, v, domain.ActionStart, &technicianID, ""); err != nil {
			return err
		}
		visit = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, visit, from, domain.ActionStart)
	return visit, nil
}

func (s *Service) coveringAbsences(ctx context.Context, q repository.Queries, tenantID, technicianID uuid.UUID, date time.Time) ([]domain.Absence, error) {
	rows, err := q.ListAvailability(ctx, repository.AvailabilityFilter{
		OrganizationID: tenantID,
		TechnicianID:   &technicianID,
		From:           &date,
		To:             &date,
	})
	if err != nil {
		return nil, err
	}
	return domain.CoveringAbsences(repository.Absences(rows), technicianID, date), nil
}
