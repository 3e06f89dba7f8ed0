package service

import (
	"context"
	"time"

	"poolroute_backend/internal/events"
	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/platform/logger"

	"github.com/google/uuid"
)

// Service provides the visit scheduling operations. Every method takes the
// tenant explicitly and never reads or writes another tenant's rows.
type Service struct {
	store    repository.Store
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new visits service. eventBus may be nil.
func New(store repository.Store, eventBus events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		store:    store,
		eventBus: eventBus,
		log:      log,
		now:      time.Now,
	}
}

// SetClock replaces the wall clock. Used by tests and the scheduler's dry runs.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, event)
	}
}

// recordTransition appends to the audit trail inside the caller's transaction.
func (s *Service) recordTransition(ctx context.Context, q repository.Queries, v *repository.Visit, from *domain.Status, action domain.Action, actorID *uuid.UUID, reason string) error {
	e := repository.VisitEvent{
		ID:             uuid.New(),
		OrganizationID: v.OrganizationID,
		VisitID:        v.ID,
		Action:         action,
		FromStatus:     from,
		ToStatus:       v.Status,
		ActorID:        actorID,
		OccurredAt:     s.now().UTC(),
	}
	if reason != "" {
		e.Reason = &reason
	}
	return q.InsertVisitEvent(ctx, e)
}

// applyTransition moves v along action and records the audit row.
func (s *Service) applyTransition(ctx context.Context, q repository.Queries, v *repository.Visit, action domain.Action, actorID *uuid.UUID, reason string) (domain.Status, error) {
	from := v.Status
	next, err := domain.Transition(from, v.Origin, action)
	if err != nil {
		return "", err
	}
	v.Status = next
	if err := q.UpdateVisit(ctx, v); err != nil {
		return "", err
	}
	if err := s.recordTransition(ctx, q, v, &from, action, actorID, reason); err != nil {
		return "", err
	}
	return from, nil
}

func (s *Service) logTransition(ctx context.Context, v *repository.Visit, from domain.Status, action domain.Action) {
	s.log.WithContext(ctx).VisitTransition(v.ID.String(), string(from), string(v.Status), string(action))
}

// GetVisit returns one visit. A non-nil onlyTechnician hides visits assigned to anyone else.
func (s *Service) GetVisit(ctx context.Context, tenantID, visitID uuid.UUID, onlyTechnician *uuid.UUID) (*repository.Visit, error) {
	v, err := s.store.GetVisit(ctx, tenantID, visitID)
	if err != nil {
		return nil, err
	}
	if !visibleTo(v, onlyTechnician) {
		return nil, errVisitNotFound()
	}
	return v, nil
}

// ListVisitEvents returns a visit's audit trail.
func (s *Service) ListVisitEvents(ctx context.Context, tenantID, visitID uuid.UUID, onlyTechnician *uuid.UUID) ([]repository.VisitEvent, error) {
	if _, err := s.GetVisit(ctx, tenantID, visitID, onlyTechnician); err != nil {
		return nil, err
	}
	return s.store.ListVisitEvents(ctx, tenantID, visitID)
}

// ListVisits returns a filtered page of visits.
func (s *Service) ListVisits(ctx context.Context, params repository.VisitListParams) (*repository.VisitListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	params.PageSize = clampPageSize(params.PageSize)
	if params.From != nil && params.To != nil && params.To.Before(*params.From) {
		return nil, errInvertedRange()
	}
	return s.store.ListVisits(ctx, params)
}

func visibleTo(v *repository.Visit, onlyTechnician *uuid.UUID) bool {
	if onlyTechnician == nil {
		return true
	}
	return v.TechnicianID != nil && *v.TechnicianID == *onlyTechnician
}

// clampPageSize ensures page size is within valid range.
func clampPageSize(size int) int {
	if size < 1 || size > 100 {
		return 50
	}
	return size
}
