package scheduler

import (
	"context"
	"time"

	"poolroute_backend/internal/events"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/platform/logger"

	"github.com/google/uuid"
)

// TenantReader resolves the tenant's timezone for date windows.
type TenantReader interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*repository.Tenant, error)
}

// AvailabilityTrigger queues a reconciliation whenever an absence changes,
// so affected visits are orphaned or cleared without waiting for the cron.
type AvailabilityTrigger struct {
	queue   Enqueuer
	tenants TenantReader
	log     *logger.Logger
	now     func() time.Time
}

func NewAvailabilityTrigger(queue Enqueuer, tenants TenantReader, log *logger.Logger) *AvailabilityTrigger {
	return &AvailabilityTrigger{queue: queue, tenants: tenants, log: log, now: time.Now}
}

func (t *AvailabilityTrigger) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.AvailabilityChanged{}.EventName(), t)
}

func (t *AvailabilityTrigger) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(events.AvailabilityChanged)
	if !ok {
		return nil
	}

	loc := time.UTC
	if tenant, err := t.tenants.GetTenant(ctx, e.TenantID); err == nil {
		loc = tenant.Location()
	}
	window, ok := absenceWindow(t.now(), loc, e.StartDate, e.EndDate)
	if !ok {
		return nil
	}

	if err := t.queue.EnqueueFreshReconcile(ctx, e.TenantID, window); err != nil {
		t.log.Error("failed to enqueue reconciliation", "tenant_id", e.TenantID, "error", err)
		return err
	}
	return nil
}
