// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"poolroute_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Schedule Domain Events
// =============================================================================

// VisitsGenerated is published after a generation run created at least one visit.
type VisitsGenerated struct {
	BaseEvent
	TenantID    uuid.UUID   `json:"tenantId"`
	PeriodStart time.Time   `json:"periodStart"`
	PeriodEnd   time.Time   `json:"periodEnd"`
	VisitIDs    []uuid.UUID `json:"visitIds"`
}

func (e VisitsGenerated) EventName() string { return "visits.generated" }

// OrphanedVisit describes one visit a reconciliation pass orphaned.
type OrphanedVisit struct {
	VisitID       uuid.UUID `json:"visitId"`
	PoolID        uuid.UUID `json:"poolId"`
	TechnicianID  uuid.UUID `json:"technicianId"`
	ScheduledDate time.Time `json:"scheduledDate"`
	Reason        string    `json:"reason"`
}

// VisitsOrphaned is published once per reconciliation pass that orphaned visits.
type VisitsOrphaned struct {
	BaseEvent
	TenantID uuid.UUID       `json:"tenantId"`
	Visits   []OrphanedVisit `json:"visits"`
}

func (e VisitsOrphaned) EventName() string { return "visit.orphaned" }

// VisitOrphanCleared is published when an absence no longer covers an orphaned visit.
type VisitOrphanCleared struct {
	BaseEvent
	TenantID uuid.UUID `json:"tenantId"`
	VisitID  uuid.UUID `json:"visitId"`
}

func (e VisitOrphanCleared) EventName() string { return "visit.orphan_cleared" }

// VisitAssigned is published when an administrator assigns a technician.
type VisitAssigned struct {
	BaseEvent
	TenantID     uuid.UUID  `json:"tenantId"`
	VisitID      uuid.UUID  `json:"visitId"`
	TechnicianID uuid.UUID  `json:"technicianId"`
	Forced       bool       `json:"forced"`
	ActorID      *uuid.UUID `json:"actorId,omitempty"`
}

func (e VisitAssigned) EventName() string { return "visit.assigned" }

// VisitRescheduled is published when a visit is retired in favour of a successor.
type VisitRescheduled struct {
	BaseEvent
	TenantID    uuid.UUID  `json:"tenantId"`
	VisitID     uuid.UUID  `json:"visitId"`
	SuccessorID uuid.UUID  `json:"successorId"`
	NewDate     time.Time  `json:"newDate"`
	ActorID     *uuid.UUID `json:"actorId,omitempty"`
}

func (e VisitRescheduled) EventName() string { return "visit.rescheduled" }

// VisitCompleted is published when a work order completes a visit.
type VisitCompleted struct {
	BaseEvent
	TenantID     uuid.UUID `json:"tenantId"`
	VisitID      uuid.UUID `json:"visitId"`
	TechnicianID uuid.UUID `json:"technicianId"`
}

func (e VisitCompleted) EventName() string { return "visit.completed" }

// VisitCancelled is published when a special visit is cancelled.
type VisitCancelled struct {
	BaseEvent
	TenantID uuid.UUID  `json:"tenantId"`
	VisitID  uuid.UUID  `json:"visitId"`
	Reason   string     `json:"reason"`
	ActorID  *uuid.UUID `json:"actorId,omitempty"`
}

func (e VisitCancelled) EventName() string { return "visit.cancelled" }

// AvailabilityChanged is published when an absence is created or deleted.
// Visits are not touched directly; subscribers schedule a reconciliation.
type AvailabilityChanged struct {
	BaseEvent
	TenantID     uuid.UUID `json:"tenantId"`
	TechnicianID uuid.UUID `json:"technicianId"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
}

func (e AvailabilityChanged) EventName() string { return "availability.changed" }
