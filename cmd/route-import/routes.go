package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/service"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// routeFile is the YAML document accepted by the importer.
//
//	tenant: 6f1c...
//	templates:
//	  - name: Monday north
//	    technician: 0b7e...
//	    weekday: monday
//	    intervalWeeks: 2
//	    anchor: 2026-03-02
//	    pools: [a1..., b2...]
type routeFile struct {
	Tenant    string          `yaml:"tenant"`
	Templates []routeTemplate `yaml:"templates"`
}

type routeTemplate struct {
	Name          string   `yaml:"name"`
	Technician    string   `yaml:"technician"`
	Weekday       string   `yaml:"weekday"`
	IntervalWeeks int      `yaml:"intervalWeeks"`
	Anchor        string   `yaml:"anchor"`
	Pools         []string `yaml:"pools"`
	Active        *bool    `yaml:"active"`
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// parseRoutes decodes and validates the whole file before anything is written.
func parseRoutes(r io.Reader) (uuid.UUID, []service.TemplateInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f routeFile
	if err := dec.Decode(&f); err != nil {
		return uuid.Nil, nil, fmt.Errorf("decode routes: %w", err)
	}

	tenantID, err := uuid.Parse(f.Tenant)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("tenant: %w", err)
	}
	if len(f.Templates) == 0 {
		return uuid.Nil, nil, fmt.Errorf("no templates in file")
	}

	seen := make(map[string]bool, len(f.Templates))
	inputs := make([]service.TemplateInput, 0, len(f.Templates))
	for i, t := range f.Templates {
		in, err := t.toInput()
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("template %d (%s): %w", i+1, t.Name, err)
		}
		key := strings.ToLower(in.Name)
		if seen[key] {
			return uuid.Nil, nil, fmt.Errorf("template %d: duplicate name %q", i+1, in.Name)
		}
		seen[key] = true
		inputs = append(inputs, in)
	}
	return tenantID, inputs, nil
}

func (t routeTemplate) toInput() (service.TemplateInput, error) {
	in := service.TemplateInput{
		Name:          strings.TrimSpace(t.Name),
		IntervalWeeks: t.IntervalWeeks,
		Active:        t.Active,
	}
	if in.Name == "" {
		return in, fmt.Errorf("name is required")
	}

	weekday, err := parseWeekday(t.Weekday)
	if err != nil {
		return in, err
	}
	in.Weekday = int(weekday)

	if t.Technician != "" {
		id, err := uuid.Parse(t.Technician)
		if err != nil {
			return in, fmt.Errorf("technician: %w", err)
		}
		in.TechnicianID = &id
	}
	if t.Anchor != "" {
		anchor, err := domain.ParseDate(t.Anchor)
		if err != nil {
			return in, fmt.Errorf("anchor: %w", err)
		}
		in.AnchorDate = &anchor
	}

	if len(t.Pools) == 0 {
		return in, fmt.Errorf("at least one pool is required")
	}
	for _, raw := range t.Pools {
		id, err := uuid.Parse(raw)
		if err != nil {
			return in, fmt.Errorf("pool %q: %w", raw, err)
		}
		in.PoolIDs = append(in.PoolIDs, id)
	}
	return in, nil
}

// parseWeekday accepts a day name or 0-6 with Sunday as 0.
func parseWeekday(value string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if d, ok := weekdays[v]; ok {
		return d, nil
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, fmt.Errorf("invalid weekday %q", value)
}
