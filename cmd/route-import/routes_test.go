package main

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/internal/visits/repository/repositorytest"
	"poolroute_backend/internal/visits/service"
	"poolroute_backend/platform/logger"

	"github.com/google/uuid"
)

const fmtUnexpectedErr = "unexpected error: %v"

func TestParseRoutes(t *testing.T) {
	tenant, tech, pool := uuid.New(), uuid.New(), uuid.New()
	doc := fmt.Sprintf(`
tenant: %s
templates:
  - name: Monday north
    technician: %s
    weekday: Monday
    intervalWeeks: 2
    anchor: 2026-03-02
    pools: [%s]
  - name: Friday south
    weekday: "5"
    pools: [%s]
    active: false
`, tenant, tech, pool, pool)

	gotTenant, inputs, err := parseRoutes(strings.NewReader(doc))
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	if gotTenant != tenant || len(inputs) != 2 {
		t.Fatalf("unexpected parse result: tenant=%s templates=%d", gotTenant, len(inputs))
	}
	first := inputs[0]
	if first.Weekday != int(time.Monday) || first.IntervalWeeks != 2 || *first.TechnicianID != tech {
		t.Fatalf("unexpected first template %+v", first)
	}
	if first.AnchorDate == nil || first.AnchorDate.Format("2006-01-02") != "2026-03-02" {
		t.Fatalf("expected anchor 2026-03-02, got %v", first.AnchorDate)
	}
	if inputs[1].Weekday != int(time.Friday) || inputs[1].Active == nil || *inputs[1].Active {
		t.Fatalf("unexpected second template %+v", inputs[1])
	}
}

func TestParseRoutesRejectsBadFiles(t *testing.T) {
	tenant, pool := uuid.New(), uuid.New()
	tests := []struct {
		name string
		doc  string
	}{
		{"bad tenant", "tenant: nope\ntemplates:\n  - name: A\n    weekday: monday\n    pools: [" + pool.String() + "]\n"},
		{"no templates", "tenant: " + tenant.String() + "\n"},
		{"bad weekday", "tenant: " + tenant.String() + "\ntemplates:\n  - name: A\n    weekday: funday\n    pools: [" + pool.String() + "]\n"},
		{"no pools", "tenant: " + tenant.String() + "\ntemplates:\n  - name: A\n    weekday: monday\n"},
		{"unknown field", "tenant: " + tenant.String() + "\ntemplates:\n  - name: A\n    day: monday\n    pools: [" + pool.String() + "]\n"},
		{"duplicate name", "tenant: " + tenant.String() + "\ntemplates:\n  - name: A\n    weekday: monday\n    pools: [" + pool.String() + "]\n  - name: a\n    weekday: friday\n    pools: [" + pool.String() + "]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := parseRoutes(strings.NewReader(tt.doc)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestImportRoutesUpsertsByName(t *testing.T) {
	store := repositorytest.NewMemory()
	tenant, pool := uuid.New(), uuid.New()
	store.AddTenant(repository.Tenant{ID: tenant, Name: "Blue Water", Timezone: "UTC", Active: true})
	store.AddPool(repository.Pool{ID: pool, OrganizationID: tenant, ClientID: uuid.New(), Active: true})
	svc := service.New(store, nil, logger.Discard())
	ctx := context.Background()

	inputs := []service.TemplateInput{
		{Name: "Monday north", Weekday: int(time.Monday), PoolIDs: []uuid.UUID{pool}},
		{Name: "Friday south", Weekday: int(time.Friday), PoolIDs: []uuid.UUID{pool}},
	}
	created, updated, err := importRoutes(ctx, svc, tenant, inputs)
	if err != nil || created != 2 || updated != 0 {
		t.Fatalf("first import: created=%d updated=%d err=%v", created, updated, err)
	}

	inputs[0].Name = "MONDAY NORTH"
	inputs[0].Weekday = int(time.Tuesday)
	created, updated, err = importRoutes(ctx, svc, tenant, inputs[:1])
	if err != nil || created != 0 || updated != 1 {
		t.Fatalf("second import: created=%d updated=%d err=%v", created, updated, err)
	}

	templates, err := svc.ListTemplates(ctx, tenant, false)
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	if len(templates) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(templates))
	}
}

func TestImportRoutesStopsAtFirstFailure(t *testing.T) {
	store := repositorytest.NewMemory()
	tenant := uuid.New()
	store.AddTenant(repository.Tenant{ID: tenant, Name: "Blue Water", Timezone: "UTC", Active: true})
	svc := service.New(store, nil, logger.Discard())

	inputs := []service.TemplateInput{{Name: "Ghost pools", Weekday: 1, PoolIDs: []uuid.UUID{uuid.New()}}}
	if _, _, err := importRoutes(context.Background(), svc, tenant, inputs); err == nil {
		t.Fatalf("expected unknown pool to fail")
	}
}
