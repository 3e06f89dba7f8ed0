package service

import (
	"context"

	"poolroute_backend/internal/events"
	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/platform/apperr"
	"poolroute_backend/platform/sanitize"

	"github.com/google/uuid"
)

// SubmitWorkOrder records the technician's completion payload and closes the
// visit. Only the assigned technician may submit, and a visit that already
// reached a terminal state rejects the payload before it is inspected.
func (s *Service) SubmitWorkOrder(ctx context.Context, tenantID, visitID, technicianID uuid.UUID, payload domain.WorkOrder) (*repository.Visit, error) {
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
		if _, err := domain.Transition(v.Status, v.Origin, domain.ActionComplete); err != nil {
			return err
		}
		if err := payload.Validate(); err != nil {
			return err
		}

		completedAt := s.now().UTC()
		payload.Notes = sanitize.Text(payload.Notes)
		payload.CompletedAt = completedAt
		payload.SubmittedBy = technicianID
		if payload.Readings == nil {
			payload.Readings = []domain.Reading{}
		}
		if payload.Products == nil {
			payload.Products = []domain.ProductLine{}
		}

		v.WorkOrder = &payload
		v.CompletedAt = &completedAt
		v.Orphaned = false
		v.OrphanReason = nil
		if from, err = s.applyTransition(ctx, q, v, domain.ActionComplete, &technicianID, ""); err != nil {
			return err
		}
		visit = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, visit, from, domain.ActionComplete)
	s.publish(ctx, events.VisitCompleted{
		BaseEvent:    events.NewBaseEvent(),
		TenantID:     tenantID,
		VisitID:      visit.ID,
		TechnicianID: technicianID,
	})
	return visit, nil
}
