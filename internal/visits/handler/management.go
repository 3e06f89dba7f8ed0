package handler

import (
	"fmt"
	"net/http"

	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/internal/visits/service"
	"poolroute_backend/internal/visits/transport"
	"poolroute_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func templateInput(req transport.TemplateRequest) service.TemplateInput {
	return service.TemplateInput{
		Name:          req.Name,
		TechnicianID:  req.TechnicianID,
		Weekday:       req.Weekday,
		PoolIDs:       req.PoolIDs,
		IntervalWeeks: req.IntervalWeeks,
		AnchorDate:    parseDates(req.AnchorDate)[0],
		Active:        req.Active,
	}
}

// ListTemplates handles GET /api/v1/route-templates
func (h *Handler) ListTemplates(c *gin.Context) {
	_, tenantID, ok := caller(c)
	if !ok {
		return
	}
	activeOnly := c.Query("active") == "true"

	templates, err := h.svc.ListTemplates(c.Request.Context(), tenantID, activeOnly)
	if httpkit.HandleError(c, err) {
		return
	}
	items := make([]transport.TemplateResponse, 0, len(templates))
	for _, t := range templates {
		items = append(items, toTemplateResponse(t))
	}
	httpkit.OK(c, gin.H{"items": items})
}

// CreateTemplate handles POST /api/v1/route-templates
func (h *Handler) CreateTemplate(c *gin.Context) {
	_, tenantID, ok := caller(c)
	if !ok {
		return
	}
	var req transport.TemplateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tpl, err := h.svc.CreateTemplate(c.Request.Context(), tenantID, templateInput(req))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toTemplateResponse(*tpl))
}

// GetTemplate handles GET /api/v1/route-templates/:id
func (h *Handler) GetTemplate(c *gin.Context) {
	_, tenantID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	tpl, err := h.svc.GetTemplate(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toTemplateResponse(*tpl))
}

// UpdateTemplate handles PUT /api/v1/route-templates/:id
func (h *Handler) UpdateTemplate(c *gin.Context) {
	_, tenantID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.TemplateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tpl, err := h.svc.UpdateTemplate(c.Request.Context(), tenantID, id, templateInput(req))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toTemplateResponse(*tpl))
}

// DeleteTemplate handles DELETE /api/v1/route-templates/:id
func (h *Handler) DeleteTemplate(c *gin.Context) {
	_, tenantID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteTemplate(c.Request.Context(), tenantID, id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// DisableTemplate handles POST /api/v1/route-templates/:id/disable
func (h *Handler) DisableTemplate(c *gin.Context) {
	_, tenantID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.DisableTemplate(c.Request.Context(), tenantID, id)) {
		return
	}
	httpkit.OK(c, gin.H{"status": "disabled"})
}

// ListAvailability handles GET /api/v1/availability
func (h *Handler) ListAvailability(c *gin.Context) {
	_, tenantID, ok := caller(c)
	if !ok {
		return
	}
	var req transport.ListAvailabilityRequest
	if !h.bindQuery(c, &req) {
		return
	}
	dates := parseDates(req.From, req.To)

	rows, err := h.svc.ListAvailability(c.Request.Context(), repository.AvailabilityFilter{
		OrganizationID: tenantID,
		TechnicianID:   parseOptionalUUID(req.TechnicianID),
		From:           dates[0],
		To:             dates[1],
	})
	if httpkit.HandleError(c, err) {
		return
	}
	items := make([]transport.AvailabilityResponse, 0, len(rows))
	for _, a := range rows {
		items = append(items, toAvailabilityResponse(a))
	}
	httpkit.OK(c, gin.H{"items": items})
}

// CreateAvailability handles POST /api/v1/availability
func (h *Handler) CreateAvailability(c *gin.Context) {
	identity, tenantID, ok := caller(c)
	if !ok {
		return
	}
	var req transport.CreateAvailabilityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	dates := parseDates(req.StartDate, req.EndDate)
	actor := identity.UserID()

	a, err := h.svc.CreateAvailability(c.Request.Context(), tenantID, service.AvailabilityInput{
		TechnicianID: req.TechnicianID,
		StartDate:    *dates[0],
		EndDate:      *dates[1],
		Reason:       req.Reason,
		CreatedBy:    &actor,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toAvailabilityResponse(*a))
}

// DeleteAvailability handles DELETE /api/v1/availability/:id
func (h *Handler) DeleteAvailability(c *gin.Context) {
	_, tenantID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteAvailability(c.Request.Context(), tenantID, id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ListWorkOrders handles GET /api/v1/reports/work-orders
func (h *Handler) ListWorkOrders(c *gin.Context) {
	_, tenantID, ok := caller(c)
	if !ok {
		return
	}
	var req transport.RangeQuery
	if !h.bindQuery(c, &req) {
		return
	}
	dates := parseDates(req.From, req.To)

	visits, err := h.svc.ListCompletedWorkOrders(c.Request.Context(), tenantID, *dates[0], *dates[1])
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": toVisitResponses(visits)})
}

// ExportWorkOrders handles GET /api/v1/reports/work-orders.xlsx
func (h *Handler) ExportWorkOrders(c *gin.Context) {
	_, tenantID, ok := caller(c)
	if !ok {
		return
	}
	var req transport.RangeQuery
	if !h.bindQuery(c, &req) {
		return
	}
	dates := parseDates(req.From, req.To)

	buf, filename, err := h.svc.ExportCompletedWorkOrders(c.Request.Context(), tenantID, *dates[0], *dates[1])
	if httpkit.HandleError(c, err) {
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func toTemplateResponse(t repository.RouteTemplate) transport.TemplateResponse {
	resp := transport.TemplateResponse{
		ID:            t.ID,
		Name:          t.Name,
		TechnicianID:  t.TechnicianID,
		Weekday:       t.Weekday,
		PoolIDs:       t.PoolIDs,
		IntervalWeeks: t.IntervalWeeks,
		Active:        t.Active,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	if t.AnchorDate != nil {
		anchor := t.AnchorDate.Format(domain.DateLayout)
		resp.AnchorDate = &anchor
	}
	return resp
}

func toAvailabilityResponse(a repository.Availability) transport.AvailabilityResponse {
	return transport.AvailabilityResponse{
		ID:           a.ID,
		TechnicianID: a.TechnicianID,
		StartDate:    a.StartDate.Format(domain.DateLayout),
		EndDate:      a.EndDate.Format(domain.DateLayout),
		Reason:       a.Reason,
		CreatedBy:    a.CreatedBy,
		CreatedAt:    a.CreatedAt,
	}
}

func toVisitResponse(v repository.Visit) transport.VisitResponse {
	return transport.VisitResponse{
		ID:                v.ID,
		PoolID:            v.PoolID,
		ClientID:          v.ClientID,
		TechnicianID:      v.TechnicianID,
		ScheduledDate:     v.ScheduledDate.Format(domain.DateLayout),
		Origin:            v.Origin,
		TemplateID:        v.TemplateID,
		Status:            v.Status,
		Orphaned:          v.Orphaned,
		OrphanReason:      v.OrphanReason,
		ForceAssigned:     v.ForceAssigned,
		RescheduledFromID: v.RescheduledFromID,
		WorkOrder:         v.WorkOrder,
		CompletedAt:       v.CompletedAt,
		CancelReason:      v.CancelReason,
		Version:           v.Version,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
}

func toVisitResponses(visits []repository.Visit) []transport.VisitResponse {
	out := make([]transport.VisitResponse, 0, len(visits))
	for _, v := range visits {
		out = append(out, toVisitResponse(v))
	}
	return out
}

func toVisitListResponse(r *repository.VisitListResult) transport.VisitListResponse {
	totalPages := 0
	if r.PageSize > 0 {
		totalPages = (r.Total + r.PageSize - 1) / r.PageSize
	}
	return transport.VisitListResponse{
		Items:      toVisitResponses(r.Items),
		Total:      r.Total,
		Page:       r.Page,
		PageSize:   r.PageSize,
		TotalPages: totalPages,
	}
}
