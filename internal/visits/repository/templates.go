package repository

import (
	"context"
	"errors"
	"fmt"

	"poolroute_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const templateNotFoundMsg = "route template not found"

const templateColumns = `id, organization_id, name, technician_id, weekday, pool_ids, interval_weeks,
	anchor_date, active, created_at, updated_at`

func scanTemplate(row pgx.Row) (*RouteTemplate, error) {
	var t RouteTemplate
	if err := row.Scan(
		&t.ID, &t.OrganizationID, &t.Name, &t.TechnicianID, &t.Weekday, &t.PoolIDs, &t.IntervalWeeks,
		&t.AnchorDate, &t.Active, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if t.PoolIDs == nil {
		t.PoolIDs = []uuid.UUID{}
	}
	return &t, nil
}

func (r *Repository) CreateTemplate(ctx context.Context, t RouteTemplate) (*RouteTemplate, error) {
	query := `
		INSERT INTO route_templates
			(id, organization_id, name, technician_id, weekday, pool_ids, interval_weeks, anchor_date, active)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + templateColumns

	saved, err := scanTemplate(r.db.QueryRow(ctx, query,
		t.ID, t.OrganizationID, t.Name, t.TechnicianID, t.Weekday, t.PoolIDs, t.IntervalWeeks, t.AnchorDate, t.Active,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create route template: %w", err)
	}
	return saved, nil
}

func (r *Repository) UpdateTemplate(ctx context.Context, t RouteTemplate) (*RouteTemplate, error) {
	query := `
		UPDATE route_templates SET
			name = $3,
			technician_id = $4,
			weekday = $5,
			pool_ids = $6,
			interval_weeks = $7,
			anchor_date = $8,
			active = $9,
			updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING ` + templateColumns

	saved, err := scanTemplate(r.db.QueryRow(ctx, query,
		t.ID, t.OrganizationID, t.Name, t.TechnicianID, t.Weekday, t.PoolIDs, t.IntervalWeeks, t.AnchorDate, t.Active,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(templateNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update route template: %w", err)
	}
	return saved, nil
}

func (r *Repository) GetTemplate(ctx context.Context, organizationID, id uuid.UUID) (*RouteTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM route_templates WHERE id = $1 AND organization_id = $2`

	t, err := scanTemplate(r.db.QueryRow(ctx, query, id, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(templateNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get route template: %w", err)
	}
	return t, nil
}

func (r *Repository) ListTemplates(ctx context.Context, organizationID uuid.UUID, activeOnly bool) ([]RouteTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM route_templates
		WHERE organization_id = $1 AND ($2 = FALSE OR active)
		ORDER BY weekday, name, id`

	rows, err := r.db.Query(ctx, query, organizationID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list route templates: %w", err)
	}
	defer rows.Close()

	items := make([]RouteTemplate, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan route template: %w", err)
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate route templates: %w", err)
	}
	return items, nil
}

func (r *Repository) SetTemplateActive(ctx context.Context, organizationID, id uuid.UUID, active bool) error {
	result, err := r.db.Exec(ctx,
		`UPDATE route_templates SET active = $3, updated_at = now() WHERE id = $1 AND organization_id = $2`,
		id, organizationID, active)
	if err != nil {
		return fmt.Errorf("failed to update route template status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(templateNotFoundMsg)
	}
	return nil
}

func (r *Repository) DeleteTemplate(ctx context.Context, organizationID, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM route_templates WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("failed to delete route template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(templateNotFoundMsg)
	}
	return nil
}

// CountVisitsForTemplate reports how many visits reference the template.
func (r *Repository) CountVisitsForTemplate(ctx context.Context, organizationID, id uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM visits WHERE organization_id = $1 AND template_id = $2`,
		organizationID, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count template visits: %w", err)
	}
	return count, nil
}
