package service

import (
	"context"
	"testing"
	"time"

	"poolroute_backend/internal/events"
	"poolroute_backend/internal/visits/domain"
)

func TestReconcileOrphansVisitsCoveredByAbsence(t *testing.T) {
	f := newFixture(t)
	f.template(t, time.Monday, &f.t1, f.p1)
	f.template(t, time.Wednesday, &f.t1, f.p2)
	gen := f.generate(t, "2026-03-02", "2026-03-08")
	if len(gen.Created) != 2 {
		t.Fatalf(fmtExpectedCount, 2, "created visits", len(gen.Created))
	}

	f.absence(t, f.t1, "2026-03-02", "2026-03-06", "vacation")
	res := f.reconcile(t, "2026-03-01", "2026-03-31")
	if len(res.Orphaned) != 2 {
		t.Fatalf(fmtExpectedCount, 2, "orphaned visits", len(res.Orphaned))
	}

	for _, id := range gen.Created {
		v := f.visit(t, id)
		requireStatus(t, v, domain.StatusOrphaned)
		if !v.Orphaned || v.OrphanReason == nil || *v.OrphanReason != "vacation" {
			t.Fatalf("expected orphan reason vacation, got %v", v.OrphanReason)
		}
		if v.TechnicianID == nil || *v.TechnicianID != f.t1 {
			t.Fatalf("orphaning must keep the technician for reference")
		}
	}

	published := f.bus.named("visit.orphaned")
	if len(published) != 1 {
		t.Fatalf(fmtExpectedCount, 1, "orphaned events", len(published))
	}
	if batch := published[0].(events.VisitsOrphaned); len(batch.Visits) != 2 {
		t.Fatalf(fmtExpectedCount, 2, "visits in orphaned event", len(batch.Visits))
	}
}

func TestReconcileCoversPeriodLongerThanGeneration(t *testing.T) {
	f := newFixture(t)
	v := f.singleVisit(t)
	f.absence(t, f.t1, "2026-03-02", "2026-03-02", "training")

	res := f.reconcile(t, "2026-01-01", "2026-06-30")
	if len(res.Orphaned) != 1 || res.Orphaned[0] != v.ID {
		t.Fatalf("expected the visit orphaned over a six-month pass, got %+v", res)
	}
}

func TestReconcileLeavesVisitsOutsideAbsence(t *testing.T) {
	f := newFixture(t)
	v := f.singleVisit(t)
	f.absence(t, f.t1, "2026-03-03", "2026-03-06", "training")
	f.absence(t, f.t2, "2026-03-02", "2026-03-02", "sick")

	res := f.reconcile(t, "2026-03-01", "2026-03-31")
	if len(res.Orphaned) != 0 {
		t.Fatalf(fmtExpectedCount, 0, "orphaned visits", len(res.Orphaned))
	}
	requireStatus(t, f.visit(t, v.ID), domain.StatusScheduled)
}

func TestReconcileClearsOrphanWhenAbsenceRemoved(t *testing.T) {
	f := newFixture(t)
	v := f.singleVisit(t)
	a := f.absence(t, f.t1, "2026-03-02", "2026-03-06", "vacation")
	f.reconcile(t, "2026-03-01", "2026-03-31")

	if err := f.svc.DeleteAvailability(context.Background(), f.tenant, a.ID); err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	res := f.reconcile(t, "2026-03-01", "2026-03-31")
	if len(res.Cleared) != 1 || res.Cleared[0] != v.ID {
		t.Fatalf("expected visit to be cleared, got %+v", res)
	}

	got := f.visit(t, v.ID)
	requireStatus(t, got, domain.StatusScheduled)
	if got.Orphaned || got.OrphanReason != nil {
		t.Fatalf("expected orphan flag cleared, got %v %v", got.Orphaned, got.OrphanReason)
	}
	if n := len(f.bus.named("visit.orphan_cleared")); n != 1 {
		t.Fatalf(fmtExpectedCount, 1, "cleared events", n)
	}
}

func TestReconcileSecondPassWritesNothing(t *testing.T) {
	f := newFixture(t)
	v := f.singleVisit(t)
	f.absence(t, f.t1, "2026-03-02", "2026-03-02", "vacation")
	f.reconcile(t, "2026-03-01", "2026-03-31")
	version := f.visit(t, v.ID).Version

	res := f.reconcile(t, "2026-03-01", "2026-03-31")
	if len(res.Orphaned)+len(res.Cleared)+len(res.Refreshed) != 0 {
		t.Fatalf("expected no changes, got %+v", res)
	}
	if got := f.visit(t, v.ID).Version; got != version {
		t.Fatalf("expected version %d to be unchanged, got %d", version, got)
	}
	if n := len(f.bus.named("visit.orphaned")); n != 1 {
		t.Fatalf(fmtExpectedCount, 1, "orphaned events", n)
	}
}

func TestReconcileRefreshesReasonOfStillCoveredVisit(t *testing.T) {
	f := newFixture(t)
	v := f.singleVisit(t)
	a := f.absence(t, f.t1, "2026-03-02", "2026-03-02", "vacation")
	f.reconcile(t, "2026-03-01", "2026-03-31")

	f.absence(t, f.t1, "2026-03-01", "2026-03-04", "sick leave")
	if err := f.svc.DeleteAvailability(context.Background(), f.tenant, a.ID); err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	res := f.reconcile(t, "2026-03-01", "2026-03-31")
	if len(res.Refreshed) != 1 || len(res.Cleared) != 0 {
		t.Fatalf("expected one refreshed visit, got %+v", res)
	}
	got := f.visit(t, v.ID)
	requireStatus(t, got, domain.StatusOrphaned)
	if *got.OrphanReason != "sick leave" {
		t.Fatalf("expected reason sick leave, got %q", *got.OrphanReason)
	}
}

func TestReconcileNeverTouchesTerminalOrInProgressVisits(t *testing.T) {
	f := newFixture(t)
	f.template(t, time.Monday, &f.t1, f.p1, f.p2)
	gen := f.generate(t, "2026-03-02", "2026-03-02")
	ctx := context.Background()

	if _, err := f.svc.SubmitWorkOrder(ctx, f.tenant, gen.Created[0], f.t1, domain.WorkOrder{}); err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	if _, err := f.svc.StartVisit(ctx, f.tenant, gen.Created[1], f.t1); err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}

	f.absence(t, f.t1, "2026-03-02", "2026-03-02", "vacation")
	res := f.reconcile(t, "2026-03-01", "2026-03-31")
	if len(res.Orphaned) != 0 {
		t.Fatalf(fmtExpectedCount, 0, "orphaned visits", len(res.Orphaned))
	}
	requireStatus(t, f.visit(t, gen.Created[0]), domain.StatusCompleted)
	requireStatus(t, f.visit(t, gen.Created[1]), domain.StatusInProgress)
}

func TestReconcileReorphansForceAssignedVisit(t *testing.T) {
	f := newFixture(t)
	v := f.singleVisit(t)
	ctx := context.Background()
	f.absence(t, f.t1, "2026-03-02", "2026-03-02", "dentist")

	if _, err := f.svc.AssignTechnician(ctx, f.tenant, v.ID, f.t1, true, nil); err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	res := f.reconcile(t, "2026-03-01", "2026-03-31")
	if len(res.Orphaned) != 1 {
		t.Fatalf(fmtExpectedCount, 1, "orphaned visits", len(res.Orphaned))
	}
}

func TestReconcileIgnoresUnassignedVisits(t *testing.T) {
	f := newFixture(t)
	f.template(t, time.Monday, nil, f.p1)
	f.generate(t, "2026-03-02", "2026-03-02")
	f.absence(t, f.t1, "2026-03-01", "2026-03-31", "vacation")

	res := f.reconcile(t, "2026-03-01", "2026-03-31")
	if len(res.Orphaned)+len(res.Cleared) != 0 {
		t.Fatalf("expected no changes, got %+v", res)
	}
}
