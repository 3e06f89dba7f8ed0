// Package repositorytest provides an in-memory repository.Store for tests.
package repositorytest

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	templateNotFoundMsg     = "route template not found"
	availabilityNotFoundMsg = "availability not found"
	visitNotFoundMsg        = "visit not found"
	visitConcurrencyMsg     = "visit was modified concurrently, reload and retry"
)

var _ repository.Store = (*Memory)(nil)

// Memory is a Store held in process memory. Transactions are serialized and
// roll back to a snapshot on error, which gives the same observable
// guarantees as row locks for a single process.
type Memory struct {
	mu sync.Mutex
	st *memState

	// insertFailures makes InsertGeneratedVisit fail for the given pools.
	insertFailures map[uuid.UUID]error
}

type memState struct {
	tenants      map[uuid.UUID]repository.Tenant
	technicians  map[uuid.UUID]repository.Technician
	pools        map[uuid.UUID]repository.Pool
	templates    map[uuid.UUID]repository.RouteTemplate
	availability map[uuid.UUID]repository.Availability
	visits       map[uuid.UUID]repository.Visit
	events       []repository.VisitEvent
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		st: &memState{
			tenants:      map[uuid.UUID]repository.Tenant{},
			technicians:  map[uuid.UUID]repository.Technician{},
			pools:        map[uuid.UUID]repository.Pool{},
			templates:    map[uuid.UUID]repository.RouteTemplate{},
			availability: map[uuid.UUID]repository.Availability{},
			visits:       map[uuid.UUID]repository.Visit{},
		},
		insertFailures: map[uuid.UUID]error{},
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		tenants:      make(map[uuid.UUID]repository.Tenant, len(s.tenants)),
		technicians:  make(map[uuid.UUID]repository.Technician, len(s.technicians)),
		pools:        make(map[uuid.UUID]repository.Pool, len(s.pools)),
		templates:    make(map[uuid.UUID]repository.RouteTemplate, len(s.templates)),
		availability: make(map[uuid.UUID]repository.Availability, len(s.availability)),
		visits:       make(map[uuid.UUID]repository.Visit, len(s.visits)),
		events:       append([]repository.VisitEvent(nil), s.events...),
	}
	for k, v := range s.tenants {
		c.tenants[k] = v
	}
	for k, v := range s.technicians {
		c.technicians[k] = v
	}
	for k, v := range s.pools {
		c.pools[k] = v
	}
	for k, v := range s.templates {
		v.PoolIDs = append([]uuid.UUID(nil), v.PoolIDs...)
		c.templates[k] = v
	}
	for k, v := range s.availability {
		c.availability[k] = v
	}
	for k, v := range s.visits {
		c.visits[k] = v
	}
	return c
}

// ---- seeding -------------------------------------------------------------

// AddTenant registers an organization.
func (m *Memory) AddTenant(t repository.Tenant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.tenants[t.ID] = t
}

// AddTechnician registers a technician.
func (m *Memory) AddTechnician(t repository.Technician) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.technicians[t.ID] = t
}

// AddPool registers a pool.
func (m *Memory) AddPool(p repository.Pool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.pools[p.ID] = p
}

// FailInsertsForPool makes generated inserts for poolID fail with err.
// A nil err removes the failure.
func (m *Memory) FailInsertsForPool(poolID uuid.UUID, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.insertFailures, poolID)
		return
	}
	m.insertFailures[poolID] = err
}

// ---- transactions ----------------------------------------------------------

// InTx runs fn with exclusive access and restores the prior state if it fails.
func (m *Memory) InTx(ctx context.Context, fn func(q repository.Queries) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.st.clone()
	if err := fn(&memQueries{st: m.st, failures: m.insertFailures}); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

func (m *Memory) q() *memQueries {
	return &memQueries{st: m.st, failures: m.insertFailures}
}

func (m *Memory) GetTenant(ctx context.Context, id uuid.UUID) (*repository.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().GetTenant(ctx, id)
}

func (m *Memory) ListActiveTenants(ctx context.Context) ([]repository.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListActiveTenants(ctx)
}

func (m *Memory) GetPool(ctx context.Context, organizationID, poolID uuid.UUID) (*repository.Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().GetPool(ctx, organizationID, poolID)
}

func (m *Memory) GetTechnician(ctx context.Context, organizationID, technicianID uuid.UUID) (*repository.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().GetTechnician(ctx, organizationID, technicianID)
}

func (m *Memory) CreateTemplate(ctx context.Context, t repository.RouteTemplate) (*repository.RouteTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().CreateTemplate(ctx, t)
}

func (m *Memory) UpdateTemplate(ctx context.Context, t repository.RouteTemplate) (*repository.RouteTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().UpdateTemplate(ctx, t)
}

func (m *Memory) GetTemplate(ctx context.Context, organizationID, id uuid.UUID) (*repository.RouteTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().GetTemplate(ctx, organizationID, id)
}

func (m *Memory) ListTemplates(ctx context.Context, organizationID uuid.UUID, activeOnly bool) ([]repository.RouteTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListTemplates(ctx, organizationID, activeOnly)
}

func (m *Memory) SetTemplateActive(ctx context.Context, organizationID, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().SetTemplateActive(ctx, organizationID, id, active)
}

func (m *Memory) DeleteTemplate(ctx context.Context, organizationID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().DeleteTemplate(ctx, organizationID, id)
}

func (m *Memory) CountVisitsForTemplate(ctx context.Context, organizationID, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().CountVisitsForTemplate(ctx, organizationID, id)
}

func (m *Memory) CreateAvailability(ctx context.Context, a repository.Availability) (*repository.Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().CreateAvailability(ctx, a)
}

func (m *Memory) GetAvailability(ctx context.Context, organizationID, id uuid.UUID) (*repository.Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().GetAvailability(ctx, organizationID, id)
}

func (m *Memory) DeleteAvailability(ctx context.Context, organizationID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().DeleteAvailability(ctx, organizationID, id)
}

func (m *Memory) ListAvailability(ctx context.Context, filter repository.AvailabilityFilter) ([]repository.Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListAvailability(ctx, filter)
}

func (m *Memory) GetVisit(ctx context.Context, organizationID, id uuid.UUID) (*repository.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().GetVisit(ctx, organizationID, id)
}

func (m *Memory) GetVisitForUpdate(ctx context.Context, organizationID, id uuid.UUID) (*repository.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().GetVisitForUpdate(ctx, organizationID, id)
}

func (m *Memory) FindGeneratedVisit(ctx context.Context, organizationID uuid.UUID, key domain.GenerationKey) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().FindGeneratedVisit(ctx, organizationID, key)
}

func (m *Memory) InsertGeneratedVisit(ctx context.Context, v repository.Visit) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().InsertGeneratedVisit(ctx, v)
}

func (m *Memory) InsertVisit(ctx context.Context, v repository.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().InsertVisit(ctx, v)
}

func (m *Memory) UpdateVisit(ctx context.Context, v *repository.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().UpdateVisit(ctx, v)
}

func (m *Memory) ListVisitsForReconcile(ctx context.Context, organizationID uuid.UUID, period domain.DateRange) ([]repository.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListVisitsForReconcile(ctx, organizationID, period)
}

func (m *Memory) ListOverdueVisits(ctx context.Context, organizationID uuid.UUID, before time.Time) ([]repository.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListOverdueVisits(ctx, organizationID, before)
}

func (m *Memory) ListOrphanedVisits(ctx context.Context, organizationID uuid.UUID) ([]repository.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListOrphanedVisits(ctx, organizationID)
}

func (m *Memory) ListUnassignedVisits(ctx context.Context, organizationID uuid.UUID) ([]repository.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListUnassignedVisits(ctx, organizationID)
}

func (m *Memory) ListCompletedVisits(ctx context.Context, organizationID uuid.UUID, period domain.DateRange) ([]repository.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListCompletedVisits(ctx, organizationID, period)
}

func (m *Memory) ListVisits(ctx context.Context, params repository.VisitListParams) (*repository.VisitListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListVisits(ctx, params)
}

func (m *Memory) InsertVisitEvent(ctx context.Context, e repository.VisitEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().InsertVisitEvent(ctx, e)
}

func (m *Memory) ListVisitEvents(ctx context.Context, organizationID, visitID uuid.UUID) ([]repository.VisitEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListVisitEvents(ctx, organizationID, visitID)
}

// ---- queries ---------------------------------------------------------------

// memQueries operates on state the caller already holds the lock for.
type memQueries struct {
	st       *memState
	failures map[uuid.UUID]error
}

func (q *memQueries) GetTenant(_ context.Context, id uuid.UUID) (*repository.Tenant, error) {
	t, ok := q.st.tenants[id]
	if !ok {
		return nil, apperr.NotFound("organization not found")
	}
	return &t, nil
}

func (q *memQueries) ListActiveTenants(_ context.Context) ([]repository.Tenant, error) {
	out := make([]repository.Tenant, 0, len(q.st.tenants))
	for _, t := range q.st.tenants {
		if t.Active {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].ID, out[j].ID) })
	return out, nil
}

func (q *memQueries) GetPool(_ context.Context, organizationID, poolID uuid.UUID) (*repository.Pool, error) {
	p, ok := q.st.pools[poolID]
	if !ok || p.OrganizationID != organizationID {
		return nil, apperr.NotFound("pool not found")
	}
	return &p, nil
}

func (q *memQueries) GetTechnician(_ context.Context, organizationID, technicianID uuid.UUID) (*repository.Technician, error) {
	t, ok := q.st.technicians[technicianID]
	if !ok || t.OrganizationID != organizationID {
		return nil, apperr.NotFound("technician not found")
	}
	return &t, nil
}

func (q *memQueries) CreateTemplate(_ context.Context, t repository.RouteTemplate) (*repository.RouteTemplate, error) {
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	t.PoolIDs = append([]uuid.UUID{}, t.PoolIDs...)
	q.st.templates[t.ID] = t
	return &t, nil
}

func (q *memQueries) UpdateTemplate(_ context.Context, t repository.RouteTemplate) (*repository.RouteTemplate, error) {
	existing, ok := q.st.templates[t.ID]
	if !ok || existing.OrganizationID != t.OrganizationID {
		return nil, apperr.NotFound(templateNotFoundMsg)
	}
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	t.PoolIDs = append([]uuid.UUID{}, t.PoolIDs...)
	q.st.templates[t.ID] = t
	return &t, nil
}

func (q *memQueries) GetTemplate(_ context.Context, organizationID, id uuid.UUID) (*repository.RouteTemplate, error) {
	t, ok := q.st.templates[id]
	if !ok || t.OrganizationID != organizationID {
		return nil, apperr.NotFound(templateNotFoundMsg)
	}
	return &t, nil
}

func (q *memQueries) ListTemplates(_ context.Context, organizationID uuid.UUID, activeOnly bool) ([]repository.RouteTemplate, error) {
	out := make([]repository.RouteTemplate, 0)
	for _, t := range q.st.templates {
		if t.OrganizationID != organizationID || (activeOnly && !t.Active) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return lessID(out[i].ID, out[j].ID)
	})
	return out, nil
}

func (q *memQueries) SetTemplateActive(_ context.Context, organizationID, id uuid.UUID, active bool) error {
	t, ok := q.st.templates[id]
	if !ok || t.OrganizationID != organizationID {
		return apperr.NotFound(templateNotFoundMsg)
	}
	t.Active = active
	t.UpdatedAt = time.Now().UTC()
	q.st.templates[id] = t
	return nil
}

func (q *memQueries) DeleteTemplate(_ context.Context, organizationID, id uuid.UUID) error {
	t, ok := q.st.templates[id]
	if !ok || t.OrganizationID != organizationID {
		return apperr.NotFound(templateNotFoundMsg)
	}
	delete(q.st.templates, id)
	return nil
}

func (q *memQueries) CountVisitsForTemplate(_ context.Context, organizationID, id uuid.UUID) (int, error) {
	count := 0
	for _, v := range q.st.visits {
		if v.OrganizationID == organizationID && v.TemplateID != nil && *v.TemplateID == id {
			count++
		}
	}
	return count, nil
}

func (q *memQueries) CreateAvailability(_ context.Context, a repository.Availability) (*repository.Availability, error) {
	a.StartDate = domain.DateOf(a.StartDate)
	a.EndDate = domain.DateOf(a.EndDate)
	if a.EndDate.Before(a.StartDate) {
		return nil, apperr.Validation("end date must not be before start date")
	}
	a.CreatedAt = time.Now().UTC()
	q.st.availability[a.ID] = a
	return &a, nil
}

func (q *memQueries) GetAvailability(_ context.Context, organizationID, id uuid.UUID) (*repository.Availability, error) {
	a, ok := q.st.availability[id]
	if !ok || a.OrganizationID != organizationID {
		return nil, apperr.NotFound(availabilityNotFoundMsg)
	}
	return &a, nil
}

func (q *memQueries) DeleteAvailability(_ context.Context, organizationID, id uuid.UUID) error {
	a, ok := q.st.availability[id]
	if !ok || a.OrganizationID != organizationID {
		return apperr.NotFound(availabilityNotFoundMsg)
	}
	delete(q.st.availability, id)
	return nil
}

func (q *memQueries) ListAvailability(_ context.Context, filter repository.AvailabilityFilter) ([]repository.Availability, error) {
	out := make([]repository.Availability, 0)
	for _, a := range q.st.availability {
		if a.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.TechnicianID != nil && a.TechnicianID != *filter.TechnicianID {
			continue
		}
		if filter.From != nil && a.EndDate.Before(domain.DateOf(*filter.From)) {
			continue
		}
		if filter.To != nil && a.StartDate.After(domain.DateOf(*filter.To)) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return lessID(out[i].ID, out[j].ID)
	})
	return out, nil
}

func (q *memQueries) GetVisit(_ context.Context, organizationID, id uuid.UUID) (*repository.Visit, error) {
	v, ok := q.st.visits[id]
	if !ok || v.OrganizationID != organizationID {
		return nil, apperr.NotFound(visitNotFoundMsg)
	}
	return &v, nil
}

func (q *memQueries) GetVisitForUpdate(ctx context.Context, organizationID, id uuid.UUID) (*repository.Visit, error) {
	return q.GetVisit(ctx, organizationID, id)
}

func (q *memQueries) FindGeneratedVisit(_ context.Context, organizationID uuid.UUID, key domain.GenerationKey) (uuid.UUID, bool, error) {
	best, bestRank := uuid.Nil, 0
	for _, v := range q.st.visits {
		if !matchesGenerationKey(v, organizationID, key) {
			continue
		}
		rank := 0
		switch {
		case !v.Status.IsTerminal():
			rank = 3
		case v.RescheduledFromID == nil:
			rank = 2
		case v.Status == domain.StatusCompleted:
			rank = 1
		}
		if rank > bestRank {
			best, bestRank = v.ID, rank
		}
	}
	return best, bestRank > 0, nil
}

func matchesGenerationKey(v repository.Visit, organizationID uuid.UUID, key domain.GenerationKey) bool {
	return v.OrganizationID == organizationID &&
		v.Origin == domain.OriginTemplate &&
		v.TemplateID != nil && *v.TemplateID == key.TemplateID &&
		v.PoolID == key.PoolID &&
		v.ScheduledDate.Equal(domain.DateOf(key.Date))
}

func (q *memQueries) InsertGeneratedVisit(ctx context.Context, v repository.Visit) (bool, error) {
	if err, ok := q.failures[v.PoolID]; ok {
		return false, err
	}
	key := domain.GenerationKey{PoolID: v.PoolID, Date: v.ScheduledDate}
	if v.TemplateID != nil {
		key.TemplateID = *v.TemplateID
	}
	if _, exists, _ := q.FindGeneratedVisit(ctx, v.OrganizationID, key); exists {
		return false, nil
	}
	return true, q.InsertVisit(ctx, v)
}

func (q *memQueries) InsertVisit(_ context.Context, v repository.Visit) error {
	if _, exists := q.st.visits[v.ID]; exists {
		return apperr.Conflict("visit already exists")
	}
	v.ScheduledDate = domain.DateOf(v.ScheduledDate)
	v.Version = 1
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = v.CreatedAt
	}
	q.st.visits[v.ID] = v
	return nil
}

func (q *memQueries) UpdateVisit(_ context.Context, v *repository.Visit) error {
	stored, ok := q.st.visits[v.ID]
	if !ok || stored.OrganizationID != v.OrganizationID {
		return apperr.NotFound(visitNotFoundMsg)
	}
	if stored.Version != v.Version {
		return apperr.Conflict(visitConcurrencyMsg)
	}
	stored.TechnicianID = v.TechnicianID
	stored.Status = v.Status
	stored.Orphaned = v.Orphaned
	stored.OrphanReason = v.OrphanReason
	stored.ForceAssigned = v.ForceAssigned
	stored.WorkOrder = v.WorkOrder
	stored.CompletedAt = v.CompletedAt
	stored.CancelReason = v.CancelReason
	stored.Version++
	stored.UpdatedAt = time.Now().UTC()
	q.st.visits[v.ID] = stored

	v.Version = stored.Version
	v.UpdatedAt = stored.UpdatedAt
	return nil
}

func (q *memQueries) filterVisits(organizationID uuid.UUID, keep func(repository.Visit) bool) []repository.Visit {
	out := make([]repository.Visit, 0)
	for _, v := range q.st.visits {
		if v.OrganizationID == organizationID && keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledDate.Equal(out[j].ScheduledDate) {
			return out[i].ScheduledDate.Before(out[j].ScheduledDate)
		}
		return lessID(out[i].ID, out[j].ID)
	})
	return out
}

func isOpen(s domain.Status) bool {
	return !s.IsTerminal()
}

func (q *memQueries) ListVisitsForReconcile(_ context.Context, organizationID uuid.UUID, period domain.DateRange) ([]repository.Visit, error) {
	out := q.filterVisits(organizationID, func(v repository.Visit) bool {
		if !period.Covers(v.ScheduledDate) {
			return false
		}
		switch v.Status {
		case domain.StatusScheduled, domain.StatusAssigned:
			return v.TechnicianID != nil
		case domain.StatusOrphaned:
			return true
		}
		return false
	})
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].ID, out[j].ID) })
	return out, nil
}

func (q *memQueries) ListOverdueVisits(_ context.Context, organizationID uuid.UUID, before time.Time) ([]repository.Visit, error) {
	cutoff := domain.DateOf(before)
	return q.filterVisits(organizationID, func(v repository.Visit) bool {
		return isOpen(v.Status) && v.ScheduledDate.Before(cutoff)
	}), nil
}

func (q *memQueries) ListOrphanedVisits(_ context.Context, organizationID uuid.UUID) ([]repository.Visit, error) {
	return q.filterVisits(organizationID, func(v repository.Visit) bool {
		return v.Status == domain.StatusOrphaned
	}), nil
}

func (q *memQueries) ListUnassignedVisits(_ context.Context, organizationID uuid.UUID) ([]repository.Visit, error) {
	return q.filterVisits(organizationID, func(v repository.Visit) bool {
		return isOpen(v.Status) && v.TechnicianID == nil
	}), nil
}

func (q *memQueries) ListCompletedVisits(_ context.Context, organizationID uuid.UUID, period domain.DateRange) ([]repository.Visit, error) {
	return q.filterVisits(organizationID, func(v repository.Visit) bool {
		return v.Status == domain.StatusCompleted && period.Covers(v.ScheduledDate)
	}), nil
}

func (q *memQueries) ListVisits(_ context.Context, params repository.VisitListParams) (*repository.VisitListResult, error) {
	all := q.filterVisits(params.OrganizationID, func(v repository.Visit) bool {
		if params.TechnicianID != nil && (v.TechnicianID == nil || *v.TechnicianID != *params.TechnicianID) {
			return false
		}
		if params.PoolID != nil && v.PoolID != *params.PoolID {
			return false
		}
		if params.Status != nil && v.Status != *params.Status {
			return false
		}
		if params.From != nil && v.ScheduledDate.Before(domain.DateOf(*params.From)) {
			return false
		}
		if params.To != nil && v.ScheduledDate.After(domain.DateOf(*params.To)) {
			return false
		}
		return true
	})

	total := len(all)
	start := (params.Page - 1) * params.PageSize
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	return &repository.VisitListResult{Items: all[start:end], Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}

func (q *memQueries) InsertVisitEvent(_ context.Context, e repository.VisitEvent) error {
	q.st.events = append(q.st.events, e)
	return nil
}

func (q *memQueries) ListVisitEvents(_ context.Context, organizationID, visitID uuid.UUID) ([]repository.VisitEvent, error) {
	out := make([]repository.VisitEvent, 0)
	for _, e := range q.st.events {
		if e.OrganizationID == organizationID && e.VisitID == visitID {
			out = append(out, e)
		}
	}
	return out, nil
}

func lessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

var _ repository.Store = (*Memory)(nil)
