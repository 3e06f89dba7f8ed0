package service

import (
	"context"
	"testing"
	"time"

	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/platform/apperr"
)

func TestGetVisitHidesOtherTechniciansVisits(t *testing.T) {
	f := newFixture(t)
	v := f.singleVisit(t)
	ctx := context.Background()

	if _, err := f.svc.GetVisit(ctx, f.tenant, v.ID, &f.t1); err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	_, err := f.svc.GetVisit(ctx, f.tenant, v.ID, &f.t2)
	requireKind(t, err, apperr.KindNotFound)
	_, err = f.svc.ListVisitEvents(ctx, f.tenant, v.ID, &f.t2)
	requireKind(t, err, apperr.KindNotFound)
}

func TestListVisitsPaginatesAndFilters(t *testing.T) {
	f := newFixture(t)
	f.template(t, time.Monday, &f.t1, f.p1)
	f.template(t, time.Tuesday, &f.t2, f.p1)
	f.generate(t, "2026-03-01", "2026-03-31")
	ctx := context.Background()

	page, err := f.svc.ListVisits(ctx, repository.VisitListParams{OrganizationID: f.tenant, PageSize: 3})
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	if page.Total != 10 || len(page.Items) != 3 || page.Page != 1 {
		t.Fatalf("expected page 1 of 10 visits, got total=%d items=%d page=%d", page.Total, len(page.Items), page.Page)
	}

	status := domain.StatusScheduled
	mine, err := f.svc.ListVisits(ctx, repository.VisitListParams{OrganizationID: f.tenant, TechnicianID: &f.t2, Status: &status, PageSize: 500})
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	if mine.Total != 5 || mine.PageSize != 50 {
		t.Fatalf("expected 5 Tuesday visits with clamped page size, got total=%d size=%d", mine.Total, mine.PageSize)
	}

	from, to := day("2026-03-31"), day("2026-03-01")
	_, err = f.svc.ListVisits(ctx, repository.VisitListParams{OrganizationID: f.tenant, From: &from, To: &to})
	requireKind(t, err, apperr.KindValidation)
}
