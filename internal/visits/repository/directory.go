package repository

import (
	"context"
	"errors"
	"fmt"

	"poolroute_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetTenant returns an organization by id.
func (r *Repository) GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	var t Tenant
	err := r.db.QueryRow(ctx,
		`SELECT id, name, timezone, active FROM organizations WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Timezone, &t.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("organization not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &t, nil
}

// ListActiveTenants returns the organizations scheduled jobs run for.
func (r *Repository) ListActiveTenants(ctx context.Context) ([]Tenant, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, timezone, active FROM organizations WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	items := make([]Tenant, 0)
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Timezone, &t.Active); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// GetPool returns a pool of the organization.
func (r *Repository) GetPool(ctx context.Context, organizationID, poolID uuid.UUID) (*Pool, error) {
	var p Pool
	err := r.db.QueryRow(ctx,
		`SELECT id, organization_id, client_id, name, address, active FROM pools WHERE id = $1 AND organization_id = $2`,
		poolID, organizationID,
	).Scan(&p.ID, &p.OrganizationID, &p.ClientID, &p.Name, &p.Address, &p.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("pool not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pool: %w", err)
	}
	return &p, nil
}

// GetTechnician returns a technician of the organization.
func (r *Repository) GetTechnician(ctx context.Context, organizationID, technicianID uuid.UUID) (*Technician, error) {
	var t Technician
	err := r.db.QueryRow(ctx,
		`SELECT id, organization_id, display_name, email, active FROM technicians WHERE id = $1 AND organization_id = $2`,
		technicianID, organizationID,
	).Scan(&t.ID, &t.OrganizationID, &t.DisplayName, &t.Email, &t.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("technician not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get technician: %w", err)
	}
	return &t, nil
}
