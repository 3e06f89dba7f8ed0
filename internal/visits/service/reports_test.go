package service

import (
	"context"
	"testing"
	"time"

	"poolroute_backend/platform/apperr"

	"github.com/xuri/excelize/v2"
)

func TestExportCompletedWorkOrders(t *testing.T) {
	f := newFixture(t)
	f.template(t, time.Monday, &f.t1, f.p1, f.p2)
	gen := f.generate(t, "2026-03-02", "2026-03-02")
	ctx := context.Background()
	if _, err := f.svc.SubmitWorkOrder(ctx, f.tenant, gen.Created[0], f.t1, samplePayload()); err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}

	completed, err := f.svc.ListCompletedWorkOrders(ctx, f.tenant, day("2026-03-01"), day("2026-03-31"))
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	if len(completed) != 1 || completed[0].ID != gen.Created[0] {
		t.Fatalf("expected one completed visit, got %d", len(completed))
	}

	buf, filename, err := f.svc.ExportCompletedWorkOrders(ctx, f.tenant, day("2026-03-01"), day("2026-03-31"))
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	if filename != "work-orders_2026-03-01_2026-03-31.xlsx" {
		t.Fatalf("unexpected filename %q", filename)
	}

	book, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	defer func() { _ = book.Close() }()

	if style, err := book.GetCellStyle(readingsSheet, "A1"); err != nil || style == 0 {
		t.Fatalf("expected a styled header, got style %d err %v", style, err)
	}

	readings, err := book.GetRows(readingsSheet)
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	if len(readings) != 3 || readings[1][5] != "pH" || readings[2][7] != "ppm" {
		t.Fatalf("unexpected readings sheet %v", readings)
	}
	products, err := book.GetRows(productsSheet)
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	if len(products) != 2 || products[1][6] != "Chlorine tablets" {
		t.Fatalf("unexpected products sheet %v", products)
	}
}

func TestListCompletedWorkOrdersInvertedRange(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ListCompletedWorkOrders(context.Background(), f.tenant, day("2026-03-31"), day("2026-03-01"))
	requireKind(t, err, apperr.KindValidation)
}

func TestWriteRowsReportsStylingErrors(t *testing.T) {
	book := excelize.NewFile()
	defer func() { _ = book.Close() }()

	if err := writeRows(book, "Sheet1", [][]any{{}}, 0); err == nil {
		t.Fatalf("expected an error for a sheet without header columns")
	}
	if err := writeRows(book, "Sheet1", [][]any{{"id", "date"}}, 0); err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
}
