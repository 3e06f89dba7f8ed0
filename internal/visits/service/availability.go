package service

import (
	"context"
	"time"

	"poolroute_backend/internal/events"
	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/platform/sanitize"

	"github.com/google/uuid"
)

// AvailabilityInput records one technician absence.
type AvailabilityInput struct {
	TechnicianID uuid.UUID
	StartDate    time.Time
	EndDate      time.Time
	Reason       string
	CreatedBy    *uuid.UUID
}

// CreateAvailability stores an absence. Visits are not touched here; the
// next reconciliation pass orphans whatever the absence covers.
func (s *Service) CreateAvailability(ctx context.Context, tenantID uuid.UUID, in AvailabilityInput) (*repository.Availability, error) {
	r, err := domain.NewDateRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetTechnician(ctx, tenantID, in.TechnicianID); err != nil {
		return nil, err
	}

	created, err := s.store.CreateAvailability(ctx, repository.Availability{
		ID:             uuid.New(),
		OrganizationID: tenantID,
		TechnicianID:   in.TechnicianID,
		StartDate:      r.Start,
		EndDate:        r.End,
		Reason:         sanitize.Text(in.Reason),
		CreatedBy:      in.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	s.publishAvailabilityChanged(ctx, created)
	return created, nil
}

// ListAvailability lists absences matching the filter.
func (s *Service) ListAvailability(ctx context.Context, filter repository.AvailabilityFilter) ([]repository.Availability, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, errInvertedRange()
	}
	return s.store.ListAvailability(ctx, filter)
}

// DeleteAvailability removes an absence.
func (s *Service) DeleteAvailability(ctx context.Context, tenantID, availabilityID uuid.UUID) error {
	a, err := s.store.GetAvailability(ctx, tenantID, availabilityID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAvailability(ctx, tenantID, availabilityID); err != nil {
		return err
	}
	s.publishAvailabilityChanged(ctx, a)
	return nil
}

func (s *Service) publishAvailabilityChanged(ctx context.Context, a *repository.Availability) {
	s.publish(ctx, events.AvailabilityChanged{
		BaseEvent:    events.NewBaseEvent(),
		TenantID:     a.OrganizationID,
		TechnicianID: a.TechnicianID,
		StartDate:    a.StartDate,
		EndDate:      a.EndDate,
	})
}
