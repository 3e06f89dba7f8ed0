package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"poolroute_backend/internal/email"
	"poolroute_backend/internal/events"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/internal/visits/repository/repositorytest"
	"poolroute_backend/platform/logger"

	"github.com/google/uuid"
)

const testOpsEmail = "ops@example.com"

type testNotificationConfig struct{ to string }

func (c testNotificationConfig) GetOpsAlertEmail() string { return c.to }

type testSender struct {
	calls  int
	to     string
	tenant string
	lines  []email.OrphanedVisitLine
	err    error
}

func (s *testSender) SendOrphanedVisitsAlert(_ context.Context, to, tenantName string, visits []email.OrphanedVisitLine) error {
	s.calls++
	s.to, s.tenant, s.lines = to, tenantName, visits
	return s.err
}

type fixture struct {
	store  *repositorytest.Memory
	tenant uuid.UUID
	pool   uuid.UUID
	tech   uuid.UUID
}

func newFixture() fixture {
	f := fixture{store: repositorytest.NewMemory(), tenant: uuid.New(), pool: uuid.New(), tech: uuid.New()}
	f.store.AddTenant(repository.Tenant{ID: f.tenant, Name: "Blue Water", Timezone: "UTC", Active: true})
	f.store.AddPool(repository.Pool{ID: f.pool, OrganizationID: f.tenant, ClientID: uuid.New(), Name: "Villa Azul", Active: true})
	f.store.AddTechnician(repository.Technician{ID: f.tech, OrganizationID: f.tenant, DisplayName: "Sam", Active: true})
	return f
}

func (f fixture) orphanedEvent(dates ...time.Time) events.VisitsOrphaned {
	e := events.VisitsOrphaned{BaseEvent: events.NewBaseEvent(), TenantID: f.tenant}
	for _, d := range dates {
		e.Visits = append(e.Visits, events.OrphanedVisit{
			VisitID: uuid.New(), PoolID: f.pool, TechnicianID: f.tech, ScheduledDate: d, Reason: "vacation",
		})
	}
	return e
}

func TestVisitsOrphanedSendsOneSortedAlert(t *testing.T) {
	f := newFixture()
	sender := &testSender{}
	m := New(f.store, sender, testNotificationConfig{to: testOpsEmail}, logger.Discard())

	later := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if err := m.Handle(context.Background(), f.orphanedEvent(later, earlier)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sender.calls != 1 || sender.to != testOpsEmail || sender.tenant != "Blue Water" {
		t.Fatalf("unexpected alert: calls=%d to=%s tenant=%s", sender.calls, sender.to, sender.tenant)
	}
	if len(sender.lines) != 2 || !sender.lines[0].ScheduledDate.Equal(earlier) {
		t.Fatalf("expected two lines ordered by date, got %+v", sender.lines)
	}
	if sender.lines[0].PoolName != "Villa Azul" || sender.lines[0].TechnicianName != "Sam" {
		t.Fatalf("expected resolved names, got %+v", sender.lines[0])
	}
}

func TestVisitsOrphanedWithoutRecipientIsSkipped(t *testing.T) {
	f := newFixture()
	sender := &testSender{}
	m := New(f.store, sender, testNotificationConfig{}, logger.Discard())

	if err := m.Handle(context.Background(), f.orphanedEvent(time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.calls != 0 {
		t.Fatalf("expected no alert, got %d", sender.calls)
	}
}

func TestVisitsOrphanedFallsBackToIDs(t *testing.T) {
	f := newFixture()
	sender := &testSender{}
	m := New(repositorytest.NewMemory(), sender, testNotificationConfig{to: testOpsEmail}, logger.Discard())

	if err := m.Handle(context.Background(), f.orphanedEvent(time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.tenant != f.tenant.String() || sender.lines[0].PoolName != f.pool.String() {
		t.Fatalf("expected id fallbacks, got tenant=%s pool=%s", sender.tenant, sender.lines[0].PoolName)
	}
}

func TestVisitsOrphanedReturnsSendError(t *testing.T) {
	f := newFixture()
	sender := &testSender{err: errors.New("smtp down")}
	m := New(f.store, sender, testNotificationConfig{to: testOpsEmail}, logger.Discard())

	if err := m.Handle(context.Background(), f.orphanedEvent(time.Now())); err == nil {
		t.Fatalf("expected send error")
	}
}

func TestBusDeliversOrphanedEvents(t *testing.T) {
	f := newFixture()
	sender := &testSender{}
	bus := events.NewInMemoryBus(logger.Discard())
	New(f.store, sender, testNotificationConfig{to: testOpsEmail}, logger.Discard()).RegisterHandlers(bus)

	if err := bus.PublishSync(context.Background(), f.orphanedEvent(time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.calls != 1 {
		t.Fatalf("expected one alert, got %d", sender.calls)
	}
}
