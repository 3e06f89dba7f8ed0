package transport

import (
	"time"

	"poolroute_backend/internal/visits/domain"

	"github.com/google/uuid"
)

// PeriodRequest is the request body for generation and reconciliation runs.
// Dates use the YYYY-MM-DD layout.
type PeriodRequest struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

// AssignRequest is the request body for assigning a technician
type AssignRequest struct {
	TechnicianID uuid.UUID `json:"technicianId" validate:"required"`
	Force        bool      `json:"force"`
}

// RescheduleRequest is the request body for moving a visit to another date
type RescheduleRequest struct {
	NewDate string `json:"newDate" validate:"required,datetime=2006-01-02"`
}

// CreateSpecialVisitRequest is the request body for an ad-hoc visit
type CreateSpecialVisitRequest struct {
	PoolID       uuid.UUID  `json:"poolId" validate:"required"`
	Date         string     `json:"date" validate:"required,datetime=2006-01-02"`
	TechnicianID *uuid.UUID `json:"technicianId,omitempty"`
	Force        bool       `json:"force"`
}

// CancelVisitRequest is the request body for cancelling a special visit
type CancelVisitRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ReadingRequest is one measurement in a work order.
type ReadingRequest struct {
	Parameter string  `json:"parameter" validate:"required,max=100"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit,omitempty" validate:"max=20"`
}

// ProductLineRequest is one consumed product in a work order.
type ProductLineRequest struct {
	ProductRef string  `json:"productRef,omitempty" validate:"max=100"`
	Name       string  `json:"name" validate:"required_without=ProductRef,max=200"`
	Quantity   float64 `json:"quantity" validate:"gt=0"`
	Unit       string  `json:"unit,omitempty" validate:"max=20"`
}

// SubmitWorkOrderRequest is the request body a technician submits on completion
type SubmitWorkOrderRequest struct {
	Readings []ReadingRequest     `json:"readings" validate:"dive"`
	Products []ProductLineRequest `json:"products" validate:"dive"`
	Notes    string               `json:"notes,omitempty" validate:"max=5000"`
}

// ToDomain converts the request to the domain payload.
func (r SubmitWorkOrderRequest) ToDomain() domain.WorkOrder {
	w := domain.WorkOrder{
		Readings: make([]domain.Reading, 0, len(r.Readings)),
		Products: make([]domain.ProductLine, 0, len(r.Products)),
		Notes:    r.Notes,
	}
	for _, rd := range r.Readings {
		w.Readings = append(w.Readings, domain.Reading{Parameter: rd.Parameter, Value: rd.Value, Unit: rd.Unit})
	}
	for _, p := range r.Products {
		w.Products = append(w.Products, domain.ProductLine{ProductRef: p.ProductRef, Name: p.Name, Quantity: p.Quantity, Unit: p.Unit})
	}
	return w
}

// ListVisitsRequest is the query parameters for listing visits
type ListVisitsRequest struct {
	TechnicianID string `form:"technicianId" validate:"omitempty,uuid"`
	PoolID       string `form:"poolId" validate:"omitempty,uuid"`
	Status       string `form:"status" validate:"omitempty,oneof=SCHEDULED ASSIGNED IN_PROGRESS ORPHANED RESCHEDULED COMPLETED CANCELLED"`
	From         string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To           string `form:"to" validate:"omitempty,datetime=2006-01-02"`
	Page         int    `form:"page" validate:"omitempty,min=1"`
	PageSize     int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// RangeQuery is a required date range passed as query parameters.
type RangeQuery struct {
	From string `form:"from" validate:"required,datetime=2006-01-02"`
	To   string `form:"to" validate:"required,datetime=2006-01-02"`
}

// TemplateRequest is the request body for creating or replacing a route template
type TemplateRequest struct {
	Name          string      `json:"name" validate:"required,min=1,max=200"`
	TechnicianID  *uuid.UUID  `json:"technicianId,omitempty"`
	Weekday       int         `json:"weekday" validate:"weekday"`
	PoolIDs       []uuid.UUID `json:"poolIds" validate:"required,min=1,max=200"`
	IntervalWeeks int         `json:"intervalWeeks" validate:"omitempty,min=1,max=12"`
	AnchorDate    string      `json:"anchorDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Active        *bool       `json:"active,omitempty"`
}

// CreateAvailabilityRequest is the request body for recording an absence
type CreateAvailabilityRequest struct {
	TechnicianID uuid.UUID `json:"technicianId" validate:"required"`
	StartDate    string    `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate      string    `json:"endDate" validate:"required,datetime=2006-01-02"`
	Reason       string    `json:"reason" validate:"max=500"`
}

// ListAvailabilityRequest is the query parameters for listing absences
type ListAvailabilityRequest struct {
	TechnicianID string `form:"technicianId" validate:"omitempty,uuid"`
	From         string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To           string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

// VisitResponse is the response body for a visit
type VisitResponse struct {
	ID                uuid.UUID         `json:"id"`
	PoolID            uuid.UUID         `json:"poolId"`
	ClientID          uuid.UUID         `json:"clientId"`
	TechnicianID      *uuid.UUID        `json:"technicianId,omitempty"`
	ScheduledDate     string            `json:"scheduledDate"`
	Origin            domain.Origin     `json:"origin"`
	TemplateID        *uuid.UUID        `json:"templateId,omitempty"`
	Status            domain.Status     `json:"status"`
	Orphaned          bool              `json:"orphaned"`
	OrphanReason      *string           `json:"orphanReason,omitempty"`
	ForceAssigned     bool              `json:"forceAssigned"`
	RescheduledFromID *uuid.UUID        `json:"rescheduledFromId,omitempty"`
	WorkOrder         *domain.WorkOrder `json:"workOrder,omitempty"`
	CompletedAt       *time.Time        `json:"completedAt,omitempty"`
	CancelReason      *string           `json:"cancelReason,omitempty"`
	Version           int               `json:"version"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// VisitListResponse is the paginated response for listing visits
type VisitListResponse struct {
	Items      []VisitResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// VisitEventResponse is one audit trail entry
type VisitEventResponse struct {
	ID         uuid.UUID      `json:"id"`
	Action     domain.Action  `json:"action"`
	FromStatus *domain.Status `json:"fromStatus,omitempty"`
	ToStatus   domain.Status  `json:"toStatus"`
	ActorID    *uuid.UUID     `json:"actorId,omitempty"`
	Reason     *string        `json:"reason,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// RescheduleResponse returns both sides of a reschedule
type RescheduleResponse struct {
	Retired   VisitResponse `json:"retired"`
	Successor VisitResponse `json:"successor"`
}

// PendingWorkResponse groups visits needing attention
type PendingWorkResponse struct {
	Overdue    []VisitResponse `json:"overdue"`
	Orphaned   []VisitResponse `json:"orphaned"`
	Unassigned []VisitResponse `json:"unassigned"`
}

// TemplateResponse is the response body for a route template
type TemplateResponse struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	TechnicianID  *uuid.UUID  `json:"technicianId,omitempty"`
	Weekday       int         `json:"weekday"`
	PoolIDs       []uuid.UUID `json:"poolIds"`
	IntervalWeeks int         `json:"intervalWeeks"`
	AnchorDate    *string     `json:"anchorDate,omitempty"`
	Active        bool        `json:"active"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// AvailabilityResponse is the response body for an absence
type AvailabilityResponse struct {
	ID           uuid.UUID  `json:"id"`
	TechnicianID uuid.UUID  `json:"technicianId"`
	StartDate    string     `json:"startDate"`
	EndDate      string     `json:"endDate"`
	Reason       string     `json:"reason"`
	CreatedBy    *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
