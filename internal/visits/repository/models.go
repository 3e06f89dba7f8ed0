package repository

import (
	"context"
	"time"

	"poolroute_backend/internal/visits/domain"

	"github.com/google/uuid"
)

// Tenant is an organization as seen by the scheduler.
type Tenant struct {
	ID       uuid.UUID
	Name     string
	Timezone string
	Active   bool
}

// Location resolves the tenant's timezone, falling back to UTC.
func (t Tenant) Location() *time.Location {
	if t.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Technician is a field worker maintained by the identity system.
type Technician struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	DisplayName    string
	Email          string
	Active         bool
}

// Pool is a serviced pool maintained by the client directory.
type Pool struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	ClientID       uuid.UUID
	Name           string
	Address        string
	Active         bool
}

// RouteTemplate represents the route_templates database model
type RouteTemplate struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	TechnicianID   *uuid.UUID
	Weekday        int
	PoolIDs        []uuid.UUID
	IntervalWeeks  int
	AnchorDate     *time.Time
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Spec returns the expansion input for the template.
func (t RouteTemplate) Spec() domain.TemplateSpec {
	c := domain.Cadence{Weekday: time.Weekday(t.Weekday), IntervalWeeks: t.IntervalWeeks}
	if t.AnchorDate != nil {
		c.Anchor = *t.AnchorDate
	}
	return domain.TemplateSpec{
		ID:           t.ID,
		TechnicianID: t.TechnicianID,
		PoolIDs:      t.PoolIDs,
		Cadence:      c,
	}
}

// Availability represents one technician absence.
type Availability struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	TechnicianID   uuid.UUID
	StartDate      time.Time
	EndDate        time.Time
	Reason         string
	CreatedBy      *uuid.UUID
	CreatedAt      time.Time
}

// Absence converts the row to the domain interval.
func (a Availability) Absence() domain.Absence {
	return domain.Absence{
		ID:           a.ID,
		TechnicianID: a.TechnicianID,
		Range:        domain.DateRange{Start: domain.DateOf(a.StartDate), End: domain.DateOf(a.EndDate)},
		Reason:       a.Reason,
	}
}

// Absences converts a batch of rows.
func Absences(rows []Availability) []domain.Absence {
	out := make([]domain.Absence, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Absence())
	}
	return out
}

// Visit represents the visits database model
type Visit struct {
	ID                uuid.UUID
	OrganizationID    uuid.UUID
	PoolID            uuid.UUID
	ClientID          uuid.UUID
	TechnicianID      *uuid.UUID
	ScheduledDate     time.Time
	Origin            domain.Origin
	TemplateID        *uuid.UUID
	Status            domain.Status
	Orphaned          bool
	OrphanReason      *string
	ForceAssigned     bool
	RescheduledFromID *uuid.UUID
	WorkOrder         *domain.WorkOrder
	CompletedAt       *time.Time
	CancelReason      *string
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ReconcileInput projects the visit for the reconciliation decision.
func (v Visit) ReconcileInput() domain.ReconcileInput {
	in := domain.ReconcileInput{Status: v.Status, TechnicianID: v.TechnicianID, Date: v.ScheduledDate}
	if v.OrphanReason != nil {
		in.OrphanReason = *v.OrphanReason
	}
	return in
}

// VisitEvent is one row of the append-only visit audit trail.
type VisitEvent struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	VisitID        uuid.UUID
	Action         domain.Action
	FromStatus     *domain.Status
	ToStatus       domain.Status
	ActorID        *uuid.UUID
	Reason         *string
	OccurredAt     time.Time
}

// AvailabilityFilter narrows an availability listing. Nil fields are ignored.
// From/To select absences overlapping that window.
type AvailabilityFilter struct {
	OrganizationID uuid.UUID
	TechnicianID   *uuid.UUID
	From           *time.Time
	To             *time.Time
}

// VisitListParams contains parameters for listing visits
type VisitListParams struct {
	OrganizationID uuid.UUID
	TechnicianID   *uuid.UUID
	PoolID         *uuid.UUID
	Status         *domain.Status
	From           *time.Time
	To             *time.Time
	Page           int
	PageSize       int
}

// VisitListResult contains paginated visit results
type VisitListResult struct {
	Items    []Visit
	Total    int
	Page     int
	PageSize int
}

// Queries is every read and write the visit services perform.
// Every method is scoped by organization; rows of other tenants are invisible.
type Queries interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error)
	ListActiveTenants(ctx context.Context) ([]Tenant, error)
	GetPool(ctx context.Context, organizationID, poolID uuid.UUID) (*Pool, error)
	GetTechnician(ctx context.Context, organizationID, technicianID uuid.UUID) (*Technician, error)

	CreateTemplate(ctx context.Context, t RouteTemplate) (*RouteTemplate, error)
	UpdateTemplate(ctx context.Context, t RouteTemplate) (*RouteTemplate, error)
	GetTemplate(ctx context.Context, organizationID, id uuid.UUID) (*RouteTemplate, error)
	ListTemplates(ctx context.Context, organizationID uuid.UUID, activeOnly bool) ([]RouteTemplate, error)
	SetTemplateActive(ctx context.Context, organizationID, id uuid.UUID, active bool) error
	DeleteTemplate(ctx context.Context, organizationID, id uuid.UUID) error
	CountVisitsForTemplate(ctx context.Context, organizationID, id uuid.UUID) (int, error)

	CreateAvailability(ctx context.Context, a Availability) (*Availability, error)
	GetAvailability(ctx context.Context, organizationID, id uuid.UUID) (*Availability, error)
	DeleteAvailability(ctx context.Context, organizationID, id uuid.UUID) error
	ListAvailability(ctx context.Context, filter AvailabilityFilter) ([]Availability, error)

	GetVisit(ctx context.Context, organizationID, id uuid.UUID) (*Visit, error)
	// GetVisitForUpdate locks the row until the surrounding transaction ends.
	GetVisitForUpdate(ctx context.Context, organizationID, id uuid.UUID) (*Visit, error)
	FindGeneratedVisit(ctx context.Context, organizationID uuid.UUID, key domain.GenerationKey) (uuid.UUID, bool, error)
	// InsertGeneratedVisit reports false when the generation key already exists.
	InsertGeneratedVisit(ctx context.Context, v Visit) (bool, error)
	InsertVisit(ctx context.Context, v Visit) error
	// UpdateVisit writes mutable fields guarded by v.Version and bumps it.
	UpdateVisit(ctx context.Context, v *Visit) error
	// ListVisitsForReconcile locks every open visit in the period.
	ListVisitsForReconcile(ctx context.Context, organizationID uuid.UUID, period domain.DateRange) ([]Visit, error)
	ListOverdueVisits(ctx context.Context, organizationID uuid.UUID, before time.Time) ([]Visit, error)
	ListOrphanedVisits(ctx context.Context, organizationID uuid.UUID) ([]Visit, error)
	ListUnassignedVisits(ctx context.Context, organizationID uuid.UUID) ([]Visit, error)
	ListCompletedVisits(ctx context.Context, organizationID uuid.UUID, period domain.DateRange) ([]Visit, error)
	ListVisits(ctx context.Context, params VisitListParams) (*VisitListResult, error)

	InsertVisitEvent(ctx context.Context, e VisitEvent) error
	ListVisitEvents(ctx context.Context, organizationID, visitID uuid.UUID) ([]VisitEvent, error)
}

// Store adds transactions to Queries.
type Store interface {
	Queries
	// InTx runs fn inside one transaction. fn's error rolls everything back.
	InTx(ctx context.Context, fn func(q Queries) error) error
}
