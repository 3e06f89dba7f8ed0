package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const availabilityNotFoundMsg = "availability not found"

const availabilityColumns = `id, organization_id, technician_id, start_date, end_date, reason, created_by, created_at`

func scanAvailability(row pgx.Row) (*Availability, error) {
	var a Availability
	if err := row.Scan(
		&a.ID,
		&a.OrganizationID,
		&a.TechnicianID,
		&a.StartDate,
		&a.EndDate,
		&a.Reason,
		&a.CreatedBy,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	a.StartDate = domain.DateOf(a.StartDate)
	a.EndDate = domain.DateOf(a.EndDate)
	return &a, nil
}

func (r *Repository) CreateAvailability(ctx context.Context, a Availability) (*Availability, error) {
	query := `
		INSERT INTO availability
			(id, organization_id, technician_id, start_date, end_date, reason, created_by)
		VALUES
			($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + availabilityColumns

	saved, err := scanAvailability(r.db.QueryRow(ctx, query,
		a.ID,
		a.OrganizationID,
		a.TechnicianID,
		a.StartDate,
		a.EndDate,
		a.Reason,
		a.CreatedBy,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create availability: %w", err)
	}
	return saved, nil
}

func (r *Repository) GetAvailability(ctx context.Context, organizationID, id uuid.UUID) (*Availability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability WHERE id = $1 AND organization_id = $2`

	a, err := scanAvailability(r.db.QueryRow(ctx, query, id, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(availabilityNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}
	return a, nil
}

func (r *Repository) DeleteAvailability(ctx context.Context, organizationID, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM availability WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("failed to delete availability: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(availabilityNotFoundMsg)
	}
	return nil
}

// ListAvailability returns absences matching filter, earliest start first.
func (r *Repository) ListAvailability(ctx context.Context, filter AvailabilityFilter) ([]Availability, error) {
	where := []string{"organization_id = $1"}
	args := []interface{}{filter.OrganizationID}
	if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		where = append(where, fmt.Sprintf("technician_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, domain.DateOf(*filter.From))
		where = append(where, fmt.Sprintf("end_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, domain.DateOf(*filter.To))
		where = append(where, fmt.Sprintf("start_date <= $%d", len(args)))
	}

	query := `SELECT ` + availabilityColumns + ` FROM availability WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY start_date, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	defer rows.Close()

	items := make([]Availability, 0)
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", err)
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate availability: %w", err)
	}
	return items, nil
}
