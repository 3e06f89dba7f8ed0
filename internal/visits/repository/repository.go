package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both the pool and a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Repository provides database operations for visits, templates and availability
type Repository struct {
	pool *pgxpool.Pool
	db   DBTX
}

const (
	visitNotFoundMsg    = "visit not found"
	visitConcurrencyMsg = "visit was modified concurrently, reload and retry"
)

// New creates a new visits repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

// InTx runs fn inside a single transaction.
func (r *Repository) InTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&Repository{pool: r.pool, db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const visitColumns = `id, organization_id, pool_id, client_id, technician_id, scheduled_date, origin,
	template_id, status, orphaned, orphan_reason, force_assigned, rescheduled_from_id, work_order,
	completed_at, cancel_reason, version, created_at, updated_at`

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	var origin, status string
	var workOrder []byte
	if err := row.Scan(
		&v.ID, &v.OrganizationID, &v.PoolID, &v.ClientID, &v.TechnicianID, &v.ScheduledDate, &origin,
		&v.TemplateID, &status, &v.Orphaned, &v.OrphanReason, &v.ForceAssigned, &v.RescheduledFromID, &workOrder,
		&v.CompletedAt, &v.CancelReason, &v.Version, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	v.Origin = domain.Origin(origin)
	v.Status = domain.Status(status)
	v.ScheduledDate = domain.DateOf(v.ScheduledDate)
	if len(workOrder) > 0 {
		var wo domain.WorkOrder
		if err := json.Unmarshal(workOrder, &wo); err != nil {
			return nil, fmt.Errorf("failed to decode work order: %w", err)
		}
		v.WorkOrder = &wo
	}
	return &v, nil
}

func collectVisits(rows pgx.Rows, what string) ([]Visit, error) {
	defer rows.Close()
	items := make([]Visit, 0)
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		items = append(items, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", what, err)
	}
	return items, nil
}

func encodeWorkOrder(wo *domain.WorkOrder) ([]byte, error) {
	if wo == nil {
		return nil, nil
	}
	return json.Marshal(wo)
}

// GetVisit retrieves a visit by its ID
func (r *Repository) GetVisit(ctx context.Context, organizationID, id uuid.UUID) (*Visit, error) {
	return r.getVisit(ctx, organizationID, id, "")
}

// GetVisitForUpdate retrieves a visit and holds its row lock until the transaction ends.
func (r *Repository) GetVisitForUpdate(ctx context.Context, organizationID, id uuid.UUID) (*Visit, error) {
	return r.getVisit(ctx, organizationID, id, " FOR UPDATE")
}

func (r *Repository) getVisit(ctx context.Context, organizationID, id uuid.UUID, lock string) (*Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE id = $1 AND organization_id = $2` + lock
	v, err := scanVisit(r.db.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(visitNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	return v, nil
}

// FindGeneratedVisit looks up the visit that occupies key: the one the template
// produced, whatever its status, or a live reschedule successor of a visit
// from the same template landing on the same pool and date. Open visits win.
func (r *Repository) FindGeneratedVisit(ctx context.Context, organizationID uuid.UUID, key domain.GenerationKey) (uuid.UUID, bool, error) {
	query := `SELECT id FROM visits
		WHERE organization_id = $1 AND template_id = $2 AND pool_id = $3 AND scheduled_date = $4
			AND origin = 'TEMPLATE'
			AND (rescheduled_from_id IS NULL OR status NOT IN ('RESCHEDULED', 'CANCELLED'))
		ORDER BY status IN ('RESCHEDULED', 'CANCELLED', 'COMPLETED'), (rescheduled_from_id IS NULL) DESC, created_at
		LIMIT 1`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query, organizationID, key.TemplateID, key.PoolID, key.Date).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to find generated visit: %w", err)
	}
	return id, true, nil
}

const insertVisitSQL = `
	INSERT INTO visits (
		id, organization_id, pool_id, client_id, technician_id, scheduled_date, origin, template_id,
		status, orphaned, orphan_reason, force_assigned, rescheduled_from_id, work_order, completed_at,
		cancel_reason, version, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 1, $17, $17
	)`

func insertVisitArgs(v Visit) ([]interface{}, error) {
	wo, err := encodeWorkOrder(v.WorkOrder)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		v.ID, v.OrganizationID, v.PoolID, v.ClientID, v.TechnicianID, v.ScheduledDate, string(v.Origin), v.TemplateID,
		string(v.Status), v.Orphaned, v.OrphanReason, v.ForceAssigned, v.RescheduledFromID, wo, v.CompletedAt,
		v.CancelReason, v.CreatedAt,
	}, nil
}

// InsertGeneratedVisit inserts a template visit, doing nothing if its generation key is taken.
func (r *Repository) InsertGeneratedVisit(ctx context.Context, v Visit) (bool, error) {
	args, err := insertVisitArgs(v)
	if err != nil {
		return false, err
	}
	query := insertVisitSQL + `
	ON CONFLICT (organization_id, pool_id, scheduled_date, template_id)
		WHERE origin = 'TEMPLATE' AND rescheduled_from_id IS NULL
	DO NOTHING`

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert generated visit: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// InsertVisit inserts a special visit or a rescheduled successor
func (r *Repository) InsertVisit(ctx context.Context, v Visit) error {
	args, err := insertVisitArgs(v)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, insertVisitSQL, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("visit already exists")
		}
		return fmt.Errorf("failed to insert visit: %w", err)
	}
	return nil
}

// UpdateVisit persists the mutable fields of v when its version still matches.
func (r *Repository) UpdateVisit(ctx context.Context, v *Visit) error {
	wo, err := encodeWorkOrder(v.WorkOrder)
	if err != nil {
		return err
	}
	query := `
		UPDATE visits SET
			technician_id = $3,
			status = $4,
			orphaned = $5,
			orphan_reason = $6,
			force_assigned = $7,
			work_order = $8,
			completed_at = $9,
			cancel_reason = $10,
			version = version + 1,
			updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND version = $11
		RETURNING version, updated_at`

	err = r.db.QueryRow(ctx, query,
		v.ID, v.OrganizationID, v.TechnicianID, string(v.Status), v.Orphaned, v.OrphanReason,
		v.ForceAssigned, wo, v.CompletedAt, v.CancelReason, v.Version,
	).Scan(&v.Version, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Conflict(visitConcurrencyMsg)
	}
	if err != nil {
		return fmt.Errorf("failed to update visit: %w", err)
	}
	return nil
}

// ListVisitsForReconcile locks the open visits in period that reconciliation may change.
// Rows are locked in id order so concurrent passes queue instead of deadlocking.
func (r *Repository) ListVisitsForReconcile(ctx context.Context, organizationID uuid.UUID, period domain.DateRange) ([]Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits
		WHERE organization_id = $1 AND scheduled_date BETWEEN $2 AND $3
			AND ((status IN ('SCHEDULED', 'ASSIGNED') AND technician_id IS NOT NULL) OR status = 'ORPHANED')
		ORDER BY id
		FOR UPDATE`

	rows, err := r.db.Query(ctx, query, organizationID, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits for reconcile: %w", err)
	}
	return collectVisits(rows, "visits for reconcile")
}

const openStatusSQL = `status IN ('SCHEDULED', 'ASSIGNED', 'IN_PROGRESS', 'ORPHANED')`

// ListOverdueVisits returns open visits dated strictly before the given date.
func (r *Repository) ListOverdueVisits(ctx context.Context, organizationID uuid.UUID, before time.Time) ([]Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits
		WHERE organization_id = $1 AND ` + openStatusSQL + ` AND scheduled_date < $2
		ORDER BY scheduled_date, id`

	rows, err := r.db.Query(ctx, query, organizationID, domain.DateOf(before))
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue visits: %w", err)
	}
	return collectVisits(rows, "overdue visits")
}

// ListOrphanedVisits returns visits waiting for a new technician.
func (r *Repository) ListOrphanedVisits(ctx context.Context, organizationID uuid.UUID) ([]Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits
		WHERE organization_id = $1 AND status = 'ORPHANED'
		ORDER BY scheduled_date, id`

	rows, err := r.db.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphaned visits: %w", err)
	}
	return collectVisits(rows, "orphaned visits")
}

// ListUnassignedVisits returns open visits without a technician.
func (r *Repository) ListUnassignedVisits(ctx context.Context, organizationID uuid.UUID) ([]Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits
		WHERE organization_id = $1 AND ` + openStatusSQL + ` AND technician_id IS NULL
		ORDER BY scheduled_date, id`

	rows, err := r.db.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unassigned visits: %w", err)
	}
	return collectVisits(rows, "unassigned visits")
}

// ListVisits retrieves visits with filtering and pagination
func (r *Repository) ListVisits(ctx context.Context, params VisitListParams) (*VisitListResult, error) {
	where := []string{"organization_id = $1"}
	args := []interface{}{params.OrganizationID}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if params.TechnicianID != nil {
		add("technician_id = $%d", *params.TechnicianID)
	}
	if params.PoolID != nil {
		add("pool_id = $%d", *params.PoolID)
	}
	if params.Status != nil {
		add("status = $%d", string(*params.Status))
	}
	if params.From != nil {
		add("scheduled_date >= $%d", domain.DateOf(*params.From))
	}
	if params.To != nil {
		add("scheduled_date <= $%d", domain.DateOf(*params.To))
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM visits WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count visits: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	query := fmt.Sprintf(`SELECT %s FROM visits WHERE %s ORDER BY scheduled_date, id LIMIT $%d OFFSET $%d`,
		visitColumns, whereSQL, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, params.PageSize, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	items, err := collectVisits(rows, "visits")
	if err != nil {
		return nil, err
	}

	return &VisitListResult{Items: items, Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}

// InsertVisitEvent appends to the audit trail
func (r *Repository) InsertVisitEvent(ctx context.Context, e VisitEvent) error {
	query := `
		INSERT INTO visit_events (id, organization_id, visit_id, action, from_status, to_status, actor_id, reason, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var from *string
	if e.FromStatus != nil {
		s := string(*e.FromStatus)
		from = &s
	}
	if _, err := r.db.Exec(ctx, query,
		e.ID, e.OrganizationID, e.VisitID, string(e.Action), from, string(e.ToStatus), e.ActorID, e.Reason, e.OccurredAt,
	); err != nil {
		return fmt.Errorf("failed to insert visit event: %w", err)
	}
	return nil
}

// ListVisitEvents returns a visit's audit trail, oldest first.
func (r *Repository) ListVisitEvents(ctx context.Context, organizationID, visitID uuid.UUID) ([]VisitEvent, error) {
	query := `SELECT id, organization_id, visit_id, action, from_status, to_status, actor_id, reason, occurred_at
		FROM visit_events WHERE organization_id = $1 AND visit_id = $2 ORDER BY occurred_at, id`

	rows, err := r.db.Query(ctx, query, organizationID, visitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visit events: %w", err)
	}
	defer rows.Close()

	items := make([]VisitEvent, 0)
	for rows.Next() {
		var e VisitEvent
		var action, to string
		var from *string
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.VisitID, &action, &from, &to, &e.ActorID, &e.Reason, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan visit event: %w", err)
		}
		e.Action = domain.Action(action)
		e.ToStatus = domain.Status(to)
		if from != nil {
			s := domain.Status(*from)
			e.FromStatus = &s
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visit events: %w", err)
	}
	return items, nil
}

var _ Store = (*Repository)(nil)
