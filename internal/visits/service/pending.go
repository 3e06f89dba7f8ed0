package service

import (
	"context"

	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// PendingWork groups the visits that need an operator's attention.
// A visit can appear in more than one bucket.
type PendingWork struct {
	Overdue    []repository.Visit `json:"overdue"`
	Orphaned   []repository.Visit `json:"orphaned"`
	Unassigned []repository.Visit `json:"unassigned"`
}

// GetPendingWork reads the three buckets concurrently. Overdue is measured
// against today in the tenant's timezone. Nothing is written.
func (s *Service) GetPendingWork(ctx context.Context, tenantID uuid.UUID) (*PendingWork, error) {
	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	today := domain.DateOf(s.now().In(tenant.Location()))

	var out PendingWork
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		visits, err := s.store.ListOverdueVisits(gctx, tenantID, today)
		out.Overdue = visits
		return err
	})
	g.Go(func() error {
		visits, err := s.store.ListOrphanedVisits(gctx, tenantID)
		out.Orphaned = visits
		return err
	})
	g.Go(func() error {
		visits, err := s.store.ListUnassignedVisits(gctx, tenantID)
		out.Unassigned = visits
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
