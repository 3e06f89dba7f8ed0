package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
}

type orphanedVisitRow struct {
	Date       string
	Pool       string
	Technician string
	Reason     string
}

type orphanedVisitsEmailData struct {
	baseEmailData
	TenantName string
	Visits     []orphanedVisitRow
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func orphanedVisitsContent(tenantName string, visits []OrphanedVisitLine) (string, error) {
	rows := make([]orphanedVisitRow, 0, len(visits))
	for _, v := range visits {
		rows = append(rows, orphanedVisitRow{
			Date:       v.ScheduledDate.Format("Mon 2 Jan 2006"),
			Pool:       v.PoolName,
			Technician: v.TechnicianName,
			Reason:     v.Reason,
		})
	}
	return renderEmailTemplate("orphaned_visits.html", orphanedVisitsEmailData{
		baseEmailData: baseEmailData{
			Title:      "Visits need reassignment",
			Heading:    "Visits need reassignment",
			Subheading: fmt.Sprintf("The assigned technician is unavailable for %d visit(s).", len(visits)),
		},
		TenantName: tenantName,
		Visits:     rows,
	})
}
