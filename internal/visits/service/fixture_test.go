package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"poolroute_backend/internal/events"
	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/internal/visits/repository/repositorytest"
	"poolroute_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	fmtUnexpectedErr = "unexpected error: %v"
	fmtExpectedKind  = "expected error kind %d, got %v"
	fmtExpectedCount = "expected %d %s, got %d"
	fmtExpectedState = "expected status %s, got %s"
)

// recordingBus keeps published events in order.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) named(name string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Event
	for _, e := range b.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store  *repositorytest.Memory
	svc    *Service
	bus    *recordingBus
	tenant uuid.UUID
	t1, t2 uuid.UUID
	p1, p2 uuid.UUID
}

// newFixture seeds one tenant with technicians T1, T2 and pools P1, P2, plus
// a second tenant that must never be visible.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  repositorytest.NewMemory(),
		bus:    &recordingBus{},
		tenant: uuid.New(),
		t1:     uuid.New(),
		t2:     uuid.New(),
		p1:     uuid.New(),
		p2:     uuid.New(),
	}
	f.store.AddTenant(repository.Tenant{ID: f.tenant, Name: "Blue Water", Timezone: "UTC", Active: true})
	f.store.AddTechnician(repository.Technician{ID: f.t1, OrganizationID: f.tenant, DisplayName: "T1", Active: true})
	f.store.AddTechnician(repository.Technician{ID: f.t2, OrganizationID: f.tenant, DisplayName: "T2", Active: true})
	clientID := uuid.New()
	f.store.AddPool(repository.Pool{ID: f.p1, OrganizationID: f.tenant, ClientID: clientID, Name: "P1", Active: true})
	f.store.AddPool(repository.Pool{ID: f.p2, OrganizationID: f.tenant, ClientID: clientID, Name: "P2", Active: true})

	f.svc = New(f.store, f.bus, nil)
	f.setNow("2026-03-01")
	return f
}

func (f *fixture) setNow(date string) {
	now := day(date).Add(8 * time.Hour)
	f.svc.SetClock(func() time.Time { return now })
}

func (f *fixture) template(t *testing.T, weekday time.Weekday, tech *uuid.UUID, pools ...uuid.UUID) *repository.RouteTemplate {
	t.Helper()
	tpl, err := f.svc.CreateTemplate(context.Background(), f.tenant, TemplateInput{
		Name:         "Route " + weekday.String(),
		TechnicianID: tech,
		Weekday:      int(weekday),
		PoolIDs:      pools,
	})
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	return tpl
}

func (f *fixture) generate(t *testing.T, from, to string) *GenerationResult {
	t.Helper()
	res, err := f.svc.GeneratePeriod(context.Background(), f.tenant, day(from), day(to))
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	return res
}

func (f *fixture) reconcile(t *testing.T, from, to string) *ReconcileResult {
	t.Helper()
	res, err := f.svc.Reconcile(context.Background(), f.tenant, day(from), day(to))
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	return res
}

func (f *fixture) absence(t *testing.T, tech uuid.UUID, from, to, reason string) *repository.Availability {
	t.Helper()
	a, err := f.svc.CreateAvailability(context.Background(), f.tenant, AvailabilityInput{
		TechnicianID: tech,
		StartDate:    day(from),
		EndDate:      day(to),
		Reason:       reason,
	})
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	return a
}

func (f *fixture) visit(t *testing.T, id uuid.UUID) *repository.Visit {
	t.Helper()
	v, err := f.store.GetVisit(context.Background(), f.tenant, id)
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	return v
}

// singleVisit generates the Monday 2026-03-02 visit of T1 at P1.
func (f *fixture) singleVisit(t *testing.T) *repository.Visit {
	t.Helper()
	f.template(t, time.Monday, &f.t1, f.p1)
	res := f.generate(t, "2026-03-02", "2026-03-08")
	if len(res.Created) != 1 {
		t.Fatalf(fmtExpectedCount, 1, "created visits", len(res.Created))
	}
	return f.visit(t, res.Created[0])
}

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if !apperr.Is(err, kind) {
		t.Fatalf(fmtExpectedKind, kind, err)
	}
}

func requireStatus(t *testing.T, v *repository.Visit, want domain.Status) {
	t.Helper()
	if v.Status != want {
		t.Fatalf(fmtExpectedState, want, v.Status)
	}
}
