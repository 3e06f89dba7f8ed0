// Package notification turns scheduling events into operator emails.
// Domain modules publish events and never talk to the mail provider.
package notification

import (
	"context"
	"sort"

	"poolroute_backend/internal/email"
	"poolroute_backend/internal/events"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/platform/config"
	"poolroute_backend/platform/logger"

	"github.com/google/uuid"
)

// Directory resolves the names shown in alerts.
type Directory interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*repository.Tenant, error)
	GetPool(ctx context.Context, organizationID, poolID uuid.UUID) (*repository.Pool, error)
	GetTechnician(ctx context.Context, organizationID, technicianID uuid.UUID) (*repository.Technician, error)
}

// Module handles notification-related event subscriptions.
type Module struct {
	dir    Directory
	sender email.Sender
	cfg    config.NotificationConfig
	log    *logger.Logger
}

// New creates the notification module.
func New(dir Directory, sender email.Sender, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{dir: dir, sender: sender, cfg: cfg, log: log}
}

// RegisterHandlers subscribes to the events that raise notifications.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.VisitsOrphaned{}.EventName(), m)
	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.VisitsOrphaned:
		return m.handleVisitsOrphaned(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleVisitsOrphaned(ctx context.Context, e events.VisitsOrphaned) error {
	to := m.cfg.GetOpsAlertEmail()
	if to == "" || len(e.Visits) == 0 {
		return nil
	}

	tenantName := e.TenantID.String()
	if tenant, err := m.dir.GetTenant(ctx, e.TenantID); err == nil {
		tenantName = tenant.Name
	}

	poolNames := make(map[uuid.UUID]string)
	techNames := make(map[uuid.UUID]string)
	lines := make([]email.OrphanedVisitLine, 0, len(e.Visits))
	for _, v := range e.Visits {
		lines = append(lines, email.OrphanedVisitLine{
			ScheduledDate:  v.ScheduledDate,
			PoolName:       m.poolName(ctx, e.TenantID, v.PoolID, poolNames),
			TechnicianName: m.technicianName(ctx, e.TenantID, v.TechnicianID, techNames),
			Reason:         v.Reason,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].ScheduledDate.Before(lines[j].ScheduledDate)
	})

	if err := m.sender.SendOrphanedVisitsAlert(ctx, to, tenantName, lines); err != nil {
		m.log.Error("failed to send orphaned visits alert", "tenant_id", e.TenantID, "visits", len(lines), "error", err)
		return err
	}
	m.log.Info("orphaned visits alert sent", "tenant_id", e.TenantID, "visits", len(lines))
	return nil
}

func (m *Module) poolName(ctx context.Context, tenantID, poolID uuid.UUID, cache map[uuid.UUID]string) string {
	if name, ok := cache[poolID]; ok {
		return name
	}
	name := poolID.String()
	if pool, err := m.dir.GetPool(ctx, tenantID, poolID); err == nil && pool.Name != "" {
		name = pool.Name
	}
	cache[poolID] = name
	return name
}

func (m *Module) technicianName(ctx context.Context, tenantID, technicianID uuid.UUID, cache map[uuid.UUID]string) string {
	if name, ok := cache[technicianID]; ok {
		return name
	}
	name := technicianID.String()
	if tech, err := m.dir.GetTechnician(ctx, tenantID, technicianID); err == nil && tech.DisplayName != "" {
		name = tech.DisplayName
	}
	cache[technicianID] = name
	return name
}
