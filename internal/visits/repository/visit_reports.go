package repository

import (
	"context"
	"fmt"

	"poolroute_backend/internal/visits/domain"

	"github.com/google/uuid"
)

// ListCompletedVisits returns completed visits scheduled inside period, with
// their work orders, for downstream consumption and invoicing reports.
func (r *Repository) ListCompletedVisits(ctx context.Context, organizationID uuid.UUID, period domain.DateRange) ([]Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits
		WHERE organization_id = $1 AND status = 'COMPLETED' AND scheduled_date BETWEEN $2 AND $3
		ORDER BY scheduled_date, id`

	rows, err := r.db.Query(ctx, query, organizationID, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed visits: %w", err)
	}
	return collectVisits(rows, "completed visits")
}
