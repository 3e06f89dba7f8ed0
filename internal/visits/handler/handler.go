package handler

import (
	"net/http"
	"time"

	"poolroute_backend/internal/policy"
	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/internal/visits/service"
	"poolroute_backend/internal/visits/transport"
	"poolroute_backend/platform/httpkit"
	"poolroute_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
	msgTenantRequired   = "tenant required"
)

// Handler handles HTTP requests for the scheduling engine
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new visits handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers every scheduling route on rg (the tenant-scoped /api/v1 group).
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	can := func(action string) gin.HandlerFunc {
		return httpkit.RequirePermission(policy.CanPerform, action)
	}

	schedule := rg.Group("/schedule")
	schedule.POST("/generate", can(policy.ActionGenerate), h.Generate)
	schedule.POST("/reconcile", can(policy.ActionReconcile), h.Reconcile)

	visits := rg.Group("/visits")
	visits.GET("", can(policy.ActionReadVisits), h.List)
	visits.GET("/pending", can(policy.ActionViewPending), h.Pending)
	visits.POST("/special", can(policy.ActionCreateSpecial), h.CreateSpecial)
	visits.GET("/:id", can(policy.ActionReadVisits), h.GetByID)
	visits.GET("/:id/events", can(policy.ActionReadVisits), h.ListEvents)
	visits.POST("/:id/assign", can(policy.ActionAssign), h.Assign)
	visits.POST("/:id/reschedule", can(policy.ActionReschedule), h.Reschedule)
	visits.POST("/:id/cancel", can(policy.ActionCancelSpecial), h.Cancel)
	visits.POST("/:id/start", can(policy.ActionWorkVisit), h.Start)
	visits.POST("/:id/work-order", can(policy.ActionWorkVisit), h.SubmitWorkOrder)

	templates := rg.Group("/route-templates", can(policy.ActionManageTemplates))
	templates.GET("", h.ListTemplates)
	templates.POST("", h.CreateTemplate)
	templates.GET("/:id", h.GetTemplate)
	templates.PUT("/:id", h.UpdateTemplate)
	templates.DELETE("/:id", h.DeleteTemplate)
	templates.POST("/:id/disable", h.DisableTemplate)

	availability := rg.Group("/availability", can(policy.ActionManageAvailability))
	availability.GET("", h.ListAvailability)
	availability.POST("", h.CreateAvailability)
	availability.DELETE("/:id", h.DeleteAvailability)

	reports := rg.Group("/reports", can(policy.ActionViewReports))
	reports.GET("/work-orders", h.ListWorkOrders)
	reports.GET("/work-orders.xlsx", h.ExportWorkOrders)
}

// caller resolves the identity and tenant, writing the error response when absent.
func caller(c *gin.Context) (httpkit.Identity, uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return nil, uuid.Nil, false
	}
	tenantID, ok := identity.TenantID()
	if !ok {
		httpkit.Error(c, http.StatusForbidden, msgTenantRequired, nil)
		return nil, uuid.Nil, false
	}
	return identity, tenantID, true
}

// ownVisitsOnly returns the caller's id when they may only see their own visits.
func ownVisitsOnly(identity httpkit.Identity) *uuid.UUID {
	if policy.IsPrivileged(identity.Roles()) {
		return nil
	}
	id := identity.UserID()
	return &id
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes and validates the request body.
func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Fields(err))
		return false
	}
	return true
}

// bindQuery decodes and validates query parameters.
func (h *Handler) bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Fields(err))
		return false
	}
	return true
}

// parseDates parses validated YYYY-MM-DD values; empty strings yield nil.
func parseDates(values ...string) []*time.Time {
	out := make([]*time.Time, len(values))
	for i, v := range values {
		if v == "" {
			continue
		}
		if d, err := domain.ParseDate(v); err == nil {
			out[i] = &d
		}
	}
	return out
}

func parseOptionalUUID(value string) *uuid.UUID {
	if value == "" {
		return nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil
	}
	return &id
}

// Generate handles POST /api/v1/schedule/generate
func (h *Handler) Generate(c *gin.Context) {
	_, tenantID, ok := caller(c)
	if !ok {
		return
	}
	var req transport.PeriodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	dates := parseDates(req.From, req.To)

	result, err := h.svc.GeneratePeriod(c.Request.Context(), tenantID, *dates[0], *dates[1])
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Reconcile handles POST /api/v1/schedule/reconcile
func (h *Handler) Reconcile(c *gin.Context) {
	_, tenantID, ok := caller(c)
	if !ok {
		return
	}
	var req transport.PeriodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	dates := parseDates(req.From, req.To)

	result, err := h.svc.Reconcile(c.Request.Context(), tenantID, *dates[0], *dates[1])
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// List handles GET /api/v1/visits
func (h *Handler) List(c *gin.Context) {
	identity, tenantID, ok := caller(c)
	if !ok {
		return
	}
	var req transport.ListVisitsRequest
	if !h.bindQuery(c, &req) {
		return
	}

	dates := parseDates(req.From, req.To)
	params := repository.VisitListParams{
		OrganizationID: tenantID,
		TechnicianID:   parseOptionalUUID(req.TechnicianID),
		PoolID:         parseOptionalUUID(req.PoolID),
		From:           dates[0],
		To:             dates[1],
		Page:           req.Page,
		PageSize:       req.PageSize,
	}
	if req.Status != "" {
		status := domain.Status(req.Status)
		params.Status = &status
	}
	if own := ownVisitsOnly(identity); own != nil {
		params.TechnicianID = own
	}

	result, err := h.svc.ListVisits(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toVisitListResponse(result))
}

// Pending handles GET /api/v1/visits/pending
func (h *Handler) Pending(c *gin.Context) {
	_, tenantID, ok := caller(c)
	if !ok {
		return
	}
	pending, err := h.svc.GetPendingWork(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.PendingWorkResponse{
		Overdue:    toVisitResponses(pending.Overdue),
		Orphaned:   toVisitResponses(pending.Orphaned),
		Unassigned: toVisitResponses(pending.Unassigned),
	})
}

// GetByID handles GET /api/v1/visits/:id
func (h *Handler) GetByID(c *gin.Context) {
	identity, tenantID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	visit, err := h.svc.GetVisit(c.Request.Context(), tenantID, id, ownVisitsOnly(identity))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toVisitResponse(*visit))
}

// ListEvents handles GET /api/v1/visits/:id/events
func (h *Handler) ListEvents(c *gin.Context) {
	identity, tenantID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	history, err := h.svc.ListVisitEvents(c.Request.Context(), tenantID, id, ownVisitsOnly(identity))
	if httpkit.HandleError(c, err) {
		return
	}
	items := make([]transport.VisitEventResponse, 0, len(history))
	for _, e := range history {
		items = append(items, transport.VisitEventResponse{
			ID:         e.ID,
			Action:     e.Action,
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			ActorID:    e.ActorID,
			Reason:     e.Reason,
			OccurredAt: e.OccurredAt,
		})
	}
	httpkit.OK(c, gin.H{"items": items})
}

// CreateSpecial handles POST /api/v1/visits/special
func (h *Handler) CreateSpecial(c *gin.Context) {
	identity, tenantID, ok := caller(c)
	if !ok {
		return
	}
	var req transport.CreateSpecialVisitRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor := identity.UserID()

	visit, err := h.svc.CreateSpecialVisit(c.Request.Context(), tenantID, service.SpecialVisitInput{
		PoolID:       req.PoolID,
		Date:         *parseDates(req.Date)[0],
		TechnicianID: req.TechnicianID,
		Force:        req.Force,
		ActorID:      &actor,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toVisitResponse(*visit))
}

// Assign handles POST /api/v1/visits/:id/assign
func (h *Handler) Assign(c *gin.Context) {
	identity, tenantID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.AssignRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor := identity.UserID()

	visit, err := h.svc.AssignTechnician(c.Request.Context(), tenantID, id, req.TechnicianID, req.Force, &actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toVisitResponse(*visit))
}

// Reschedule handles POST /api/v1/visits/:id/reschedule
func (h *Handler) Reschedule(c *gin.Context) {
	identity, tenantID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.RescheduleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor := identity.UserID()

	result, err := h.svc.RescheduleVisit(c.Request.Context(), tenantID, id, *parseDates(req.NewDate)[0], &actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.RescheduleResponse{
		Retired:   toVisitResponse(*result.Retired),
		Successor: toVisitResponse(*result.Successor),
	})
}

// Cancel handles POST /api/v1/visits/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	identity, tenantID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.CancelVisitRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor := identity.UserID()

	visit, err := h.svc.CancelSpecialVisit(c.Request.Context(), tenantID, id, req.Reason, &actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toVisitResponse(*visit))
}

// Start handles POST /api/v1/visits/:id/start
func (h *Handler) Start(c *gin.Context) {
	identity, tenantID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	visit, err := h.svc.StartVisit(c.Request.Context(), tenantID, id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toVisitResponse(*visit))
}

// SubmitWorkOrder handles POST /api/v1/visits/:id/work-order
func (h *Handler) SubmitWorkOrder(c *gin.Context) {
	identity, tenantID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.SubmitWorkOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	visit, err := h.svc.SubmitWorkOrder(c.Request.Context(), tenantID, id, identity.UserID(), req.ToDomain())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toVisitResponse(*visit))
}
