// Command route-import creates or updates a tenant's route templates from a YAML file.
package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/internal/visits/service"
	"poolroute_backend/platform/config"
	"poolroute_backend/platform/db"
	"poolroute_backend/platform/logger"

	"github.com/google/uuid"
)

func main() {
	path := flag.String("file", "routes.yaml", "YAML file with route templates")
	dryRun := flag.Bool("dry-run", false, "validate the file without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting route import", "file", *path, "dryRun", *dryRun)

	f, err := os.Open(*path)
	if err != nil {
		log.Error("failed to open route file", "error", err)
		os.Exit(1)
	}
	tenantID, inputs, err := parseRoutes(f)
	_ = f.Close()
	if err != nil {
		log.Error("invalid route file", "error", err)
		os.Exit(1)
	}
	if *dryRun {
		log.Info("route file is valid", "tenant", tenantID, "templates", len(inputs))
		return
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	svc := service.New(repository.New(pool), nil, log)
	created, updated, err := importRoutes(ctx, svc, tenantID, inputs)
	if err != nil {
		log.Error("route import stopped", "created", created, "updated", updated, "error", err)
		os.Exit(1)
	}
	log.Info("route import complete", "created", created, "updated", updated)
}

// templateWriter is the part of the scheduling service the importer uses.
type templateWriter interface {
	ListTemplates(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]repository.RouteTemplate, error)
	CreateTemplate(ctx context.Context, tenantID uuid.UUID, in service.TemplateInput) (*repository.RouteTemplate, error)
	UpdateTemplate(ctx context.Context, tenantID, templateID uuid.UUID, in service.TemplateInput) (*repository.RouteTemplate, error)
}

// importRoutes matches templates by case-insensitive name: existing ones are
// replaced, the rest created. It stops at the first failure.
func importRoutes(ctx context.Context, svc templateWriter, tenantID uuid.UUID, inputs []service.TemplateInput) (created, updated int, err error) {
	existing, err := svc.ListTemplates(ctx, tenantID, false)
	if err != nil {
		return 0, 0, err
	}
	byName := make(map[string]uuid.UUID, len(existing))
	for _, t := range existing {
		byName[strings.ToLower(t.Name)] = t.ID
	}

	for _, in := range inputs {
		if id, ok := byName[strings.ToLower(in.Name)]; ok {
			if _, err := svc.UpdateTemplate(ctx, tenantID, id, in); err != nil {
				return created, updated, err
			}
			updated++
			continue
		}
		if _, err := svc.CreateTemplate(ctx, tenantID, in); err != nil {
			return created, updated, err
		}
		created++
	}
	return created, updated, nil
}
