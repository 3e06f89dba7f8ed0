package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	readingsSheet = "Readings"
	productsSheet = "Products"
)

var (
	readingsHeader = []any{"Visit", "Date", "Pool", "Client", "Technician", "Parameter", "Value", "Unit"}
	productsHeader = []any{"Visit", "Date", "Pool", "Client", "Technician", "Product ref", "Name", "Quantity", "Unit"}
)

// ListCompletedWorkOrders returns completed visits scheduled inside [from, to]
// together with their work orders, for billing.
func (s *Service) ListCompletedWorkOrders(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]repository.Visit, error) {
	period, err := domain.NewDateRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.store.ListCompletedVisits(ctx, tenantID, period)
}

// ExportCompletedWorkOrders renders the completed work orders as an XLSX
// workbook with one row per reading and one row per product line.
func (s *Service) ExportCompletedWorkOrders(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*bytes.Buffer, string, error) {
	visits, err := s.ListCompletedWorkOrders(ctx, tenantID, from, to)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", readingsSheet); err != nil {
		return nil, "", fmt.Errorf("failed to prepare workbook: %w", err)
	}
	if _, err := f.NewSheet(productsSheet); err != nil {
		return nil, "", fmt.Errorf("failed to prepare workbook: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to prepare workbook: %w", err)
	}

	readings := [][]any{readingsHeader}
	products := [][]any{productsHeader}
	for _, v := range visits {
		if v.WorkOrder == nil {
			continue
		}
		base := visitColumns(v)
		for _, r := range v.WorkOrder.Readings {
			readings = append(readings, append(append([]any{}, base...), r.Parameter, r.Value, r.Unit))
		}
		for _, p := range v.WorkOrder.Products {
			products = append(products, append(append([]any{}, base...), p.ProductRef, p.Name, p.Quantity, p.Unit))
		}
	}

	if err := writeRows(f, readingsSheet, readings, headerStyle); err != nil {
		return nil, "", err
	}
	if err := writeRows(f, productsSheet, products, headerStyle); err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}
	filename := fmt.Sprintf("work-orders_%s_%s.xlsx",
		domain.DateOf(from).Format(domain.DateLayout), domain.DateOf(to).Format(domain.DateLayout))
	return buf, filename, nil
}

func visitColumns(v repository.Visit) []any {
	tech := ""
	if v.TechnicianID != nil {
		tech = v.TechnicianID.String()
	}
	return []any{v.ID.String(), v.ScheduledDate.Format(domain.DateLayout), v.PoolID.String(), v.ClientID.String(), tech}
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	last, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", "E", 38); err != nil {
		return fmt.Errorf("failed to size %s columns: %w", sheet, err)
	}
	return nil
}
