package service

import (
	"context"
	"fmt"
	"time"

	"poolroute_backend/internal/events"
	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/platform/apperr"

	"github.com/google/uuid"
)

// GenerationFailure is one (template, pool, date) item that could not be generated.
type GenerationFailure struct {
	TemplateID uuid.UUID `json:"templateId"`
	PoolID     uuid.UUID `json:"poolId"`
	Date       string    `json:"date"`
	Error      string    `json:"error"`
}

// GenerationResult reports every item a generation run touched.
type GenerationResult struct {
	Created []uuid.UUID         `json:"created"`
	Skipped []uuid.UUID         `json:"skipped"`
	Failed  []GenerationFailure `json:"failed"`
}

// GeneratePeriod expands every active route template of the tenant into
// visits for [periodStart, periodEnd]. Each item commits on its own, so a
// failing pool does not undo the rest. When any item failed the result is
// returned together with a partial-failure error carrying it.
func (s *Service) GeneratePeriod(ctx context.Context, tenantID uuid.UUID, periodStart, periodEnd time.Time) (*GenerationResult, error) {
	started := s.now()
	period, err := domain.NewGenerationPeriod(periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	templates, err := s.store.ListTemplates(ctx, tenantID, true)
	if err != nil {
		return nil, err
	}

	result := &GenerationResult{
		Created: []uuid.UUID{},
		Skipped: []uuid.UUID{},
		Failed:  []GenerationFailure{},
	}
	for _, tpl := range templates {
		for _, occ := range domain.Expand(tpl.Spec(), period) {
			if err := ctx.Err(); err != nil {
				return result, fmt.Errorf("generation interrupted: %w", err)
			}
			id, created, err := s.generateOne(ctx, tenantID, occ)
			switch {
			case err != nil:
				result.Failed = append(result.Failed, GenerationFailure{
					TemplateID: occ.Key.TemplateID,
					PoolID:     occ.Key.PoolID,
					Date:       occ.Key.Date.Format(domain.DateLayout),
					Error:      err.Error(),
				})
			case created:
				result.Created = append(result.Created, id)
			default:
				result.Skipped = append(result.Skipped, id)
			}
		}
	}

	s.log.WithContext(ctx).GenerationRun(tenantID.String(), len(result.Created), len(result.Skipped), len(result.Failed), s.now().Sub(started))

	if len(result.Created) > 0 {
		s.publish(ctx, events.VisitsGenerated{
			BaseEvent:   events.NewBaseEvent(),
			TenantID:    tenantID,
			PeriodStart: period.Start,
			PeriodEnd:   period.End,
			VisitIDs:    result.Created,
		})
	}

	if len(result.Failed) > 0 {
		return result, apperr.PartialFailure(fmt.Sprintf("%d of %d visits could not be generated",
			len(result.Failed), len(result.Created)+len(result.Skipped)+len(result.Failed))).
			WithOp("GeneratePeriod").
			WithDetails(result)
	}
	return result, nil
}

// generateOne creates the visit for one occurrence unless it already exists.
func (s *Service) generateOne(ctx context.Context, tenantID uuid.UUID, occ domain.Occurrence) (uuid.UUID, bool, error) {
	var id uuid.UUID
	var created bool

	err := s.store.InTx(ctx, func(q repository.Queries) error {
		existing, found, err := q.FindGeneratedVisit(ctx, tenantID, occ.Key)
		if err != nil {
			return err
		}
		if found {
			id = existing
			return nil
		}

		pool, err := q.GetPool(ctx, tenantID, occ.Key.PoolID)
		if err != nil {
			return err
		}
		if !pool.Active {
			return apperr.Validation(msgPoolInactive)
		}

		now := s.now().UTC()
		templateID := occ.Key.TemplateID
		v := repository.Visit{
			ID:             uuid.New(),
			OrganizationID: tenantID,
			PoolID:         pool.ID,
			ClientID:       pool.ClientID,
			TechnicianID:   occ.TechnicianID,
			ScheduledDate:  occ.Key.Date,
			Origin:         domain.OriginTemplate,
			TemplateID:     &templateID,
			Status:         domain.StatusScheduled,
			Version:        1,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		inserted, err := q.InsertGeneratedVisit(ctx, v)
		if err != nil {
			return err
		}
		if !inserted {
			// Another run committed the same key between our lookup and insert.
			existing, _, err := q.FindGeneratedVisit(ctx, tenantID, occ.Key)
			if err != nil {
				return err
			}
			id = existing
			return nil
		}

		id, created = v.ID, true
		return s.recordTransition(ctx, q, &v, nil, domain.ActionCreate, nil, "")
	})
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, created, nil
}
