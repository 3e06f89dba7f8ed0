package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGetPendingWorkBuckets(t *testing.T) {
	f := newFixture(t)
	f.template(t, time.Monday, &f.t1, f.p1)
	f.template(t, time.Wednesday, nil, f.p2)
	gen := f.generate(t, "2026-03-02", "2026-03-15")
	if len(gen.Created) != 4 {
		t.Fatalf(fmtExpectedCount, 4, "created visits", len(gen.Created))
	}
	f.absence(t, f.t1, "2026-03-09", "2026-03-09", "vacation")
	f.reconcile(t, "2026-03-01", "2026-03-31")

	f.setNow("2026-03-10")
	pending, err := f.svc.GetPendingWork(context.Background(), f.tenant)
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}

	// Overdue: Mon 2, Wed 4, Mon 9 (orphaned). Wed 11 is still ahead.
	if len(pending.Overdue) != 3 {
		t.Fatalf(fmtExpectedCount, 3, "overdue visits", len(pending.Overdue))
	}
	if len(pending.Orphaned) != 1 || !pending.Orphaned[0].ScheduledDate.Equal(day("2026-03-09")) {
		t.Fatalf("expected the 2026-03-09 visit orphaned, got %+v", pending.Orphaned)
	}
	if len(pending.Unassigned) != 2 {
		t.Fatalf(fmtExpectedCount, 2, "unassigned visits", len(pending.Unassigned))
	}
}

func TestGetPendingWorkExcludesTerminalVisits(t *testing.T) {
	f := newFixture(t)
	v := f.singleVisit(t)
	if _, err := f.svc.SubmitWorkOrder(context.Background(), f.tenant, v.ID, f.t1, samplePayload()); err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}

	f.setNow("2026-03-20")
	pending, err := f.svc.GetPendingWork(context.Background(), f.tenant)
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	if len(pending.Overdue)+len(pending.Orphaned)+len(pending.Unassigned) != 0 {
		t.Fatalf("expected empty buckets, got %+v", pending)
	}
}

func TestGetPendingWorkUnknownTenant(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.GetPendingWork(context.Background(), uuid.New()); err == nil {
		t.Fatalf("expected an error for an unknown tenant")
	}
}
