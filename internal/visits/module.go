// Package visits provides the visit scheduling module: route templates,
// technician availability, generation, reconciliation and work orders.
package visits

import (
	"poolroute_backend/internal/events"
	apphttp "poolroute_backend/internal/http"
	"poolroute_backend/internal/visits/handler"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/internal/visits/service"
	"poolroute_backend/platform/httpkit"
	"poolroute_backend/platform/logger"
	"poolroute_backend/platform/validator"
)

// Module represents the visits domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new visits module with all dependencies wired
func NewModule(store repository.Store, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(store, eventBus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Service exposes the scheduling operations to the scheduler worker and tools.
func (m *Module) Service() *service.Service {
	return m.service
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "visits"
}

// RegisterRoutes registers the module's routes under /api/v1. Every route
// requires a tenant-scoped token.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	scoped := ctx.Protected.Group("", httpkit.RequireTenant())
	m.handler.RegisterRoutes(scoped)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
