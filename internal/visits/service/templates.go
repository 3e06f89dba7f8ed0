package service

import (
	"context"
	"time"

	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/platform/apperr"
	"poolroute_backend/platform/sanitize"

	"github.com/google/uuid"
)

// TemplateInput carries the editable fields of a route template.
type TemplateInput struct {
	Name          string
	TechnicianID  *uuid.UUID
	Weekday       int
	PoolIDs       []uuid.UUID
	IntervalWeeks int
	AnchorDate    *time.Time
	Active        *bool
}

// CreateTemplate stores a new route template after checking its pools and
// technician belong to the tenant.
func (s *Service) CreateTemplate(ctx context.Context, tenantID uuid.UUID, in TemplateInput) (*repository.RouteTemplate, error) {
	tpl := repository.RouteTemplate{
		ID:             uuid.New(),
		OrganizationID: tenantID,
		Active:         true,
	}
	applyTemplateInput(&tpl, in)

	var created *repository.RouteTemplate
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		if err := s.checkTemplate(ctx, q, tpl); err != nil {
			return err
		}
		var err error
		created, err = q.CreateTemplate(ctx, tpl)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTemplate replaces a template's editable fields. Existing visits keep
// their technician; the change applies to future generation runs.
func (s *Service) UpdateTemplate(ctx context.Context, tenantID, templateID uuid.UUID, in TemplateInput) (*repository.RouteTemplate, error) {
	var updated *repository.RouteTemplate
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		tpl, err := q.GetTemplate(ctx, tenantID, templateID)
		if err != nil {
			return err
		}
		applyTemplateInput(tpl, in)
		if err := s.checkTemplate(ctx, q, *tpl); err != nil {
			return err
		}
		updated, err = q.UpdateTemplate(ctx, *tpl)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetTemplate returns one template.
func (s *Service) GetTemplate(ctx context.Context, tenantID, templateID uuid.UUID) (*repository.RouteTemplate, error) {
	return s.store.GetTemplate(ctx, tenantID, templateID)
}

// ListTemplates returns the tenant's templates.
func (s *Service) ListTemplates(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]repository.RouteTemplate, error) {
	return s.store.ListTemplates(ctx, tenantID, activeOnly)
}

// DisableTemplate stops a template from generating. Its visits are untouched.
func (s *Service) DisableTemplate(ctx context.Context, tenantID, templateID uuid.UUID) error {
	return s.store.SetTemplateActive(ctx, tenantID, templateID, false)
}

// DeleteTemplate removes a template that never produced a visit.
func (s *Service) DeleteTemplate(ctx context.Context, tenantID, templateID uuid.UUID) error {
	return s.store.InTx(ctx, func(q repository.Queries) error {
		if _, err := q.GetTemplate(ctx, tenantID, templateID); err != nil {
			return err
		}
		n, err := q.CountVisitsForTemplate(ctx, tenantID, templateID)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict(msgTemplateInUse).WithDetails(map[string]int{"visits": n})
		}
		return q.DeleteTemplate(ctx, tenantID, templateID)
	})
}

func applyTemplateInput(tpl *repository.RouteTemplate, in TemplateInput) {
	tpl.Name = sanitize.Text(in.Name)
	tpl.TechnicianID = in.TechnicianID
	tpl.Weekday = in.Weekday
	tpl.PoolIDs = in.PoolIDs
	tpl.IntervalWeeks = in.IntervalWeeks
	if tpl.IntervalWeeks == 0 {
		tpl.IntervalWeeks = 1
	}
	tpl.AnchorDate = nil
	if in.AnchorDate != nil {
		anchor := domain.DateOf(*in.AnchorDate)
		tpl.AnchorDate = &anchor
	}
	if in.Active != nil {
		tpl.Active = *in.Active
	}
}

func (s *Service) checkTemplate(ctx context.Context, q repository.Queries, tpl repository.RouteTemplate) error {
	if tpl.Name == "" {
		return apperr.Validation("name is required")
	}
	if len(tpl.PoolIDs) == 0 {
		return apperr.Validation("at least one pool is required")
	}
	if err := tpl.Spec().Cadence.Validate(); err != nil {
		return err
	}
	seen := make(map[uuid.UUID]struct{}, len(tpl.PoolIDs))
	for _, id := range tpl.PoolIDs {
		if _, dup := seen[id]; dup {
			return apperr.Validation("pool listed twice").WithDetails(map[string]string{"poolId": id.String()})
		}
		seen[id] = struct{}{}
		if _, err := q.GetPool(ctx, tpl.OrganizationID, id); err != nil {
			return err
		}
	}
	if tpl.TechnicianID != nil {
		tech, err := q.GetTechnician(ctx, tpl.OrganizationID, *tpl.TechnicianID)
		if err != nil {
			return err
		}
		if !tech.Active {
			return apperr.Validation(msgTechnicianInactive)
		}
	}
	return nil
}
