package report

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	detailSheet  = "Time Reports"
)

var detailHeaders = []any{"Employee", "Location", "Hours Worked", "Overtime", "Check-ins", "Formatted"}

// WriteXLSX writes the report as a workbook with a summary sheet and one row
// per employee and location.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[report] close workbook: %v", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	summaryRows := [][]any{
		{"Period", string(r.Period)},
		{"Generated", r.GeneratedAt.Format(time.RFC3339)},
		{"Total hours", round2(r.Summary.TotalHours)},
		{"Total overtime", round2(r.Summary.TotalOvertime)},
		{"Employees", r.Summary.TotalEmployees},
		{"Locations", r.Summary.TotalLocations},
	}
	if err := writeRows(f, summarySheet, 1, summaryRows); err != nil {
		return err
	}

	if _, err := f.NewSheet(detailSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	rows := [][]any{detailHeaders}
	for _, tr := range r.TimeReports {
		rows = append(rows, []any{
			tr.EmployeeName,
			tr.LocationName,
			round2(tr.HoursWorked),
			round2(tr.Overtime),
			len(tr.CheckIns),
			FormatHours(tr.HoursWorked),
		})
	}
	if err := writeRows(f, detailSheet, 1, rows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, firstRow int, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, firstRow+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to set row %d on %s: %w", firstRow+i, sheet, err)
		}
	}
	return nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
