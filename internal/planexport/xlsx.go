package planexport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"carepilot/internal/careplan"
	"carepilot/internal/domain"
)

const (
	scheduleSheet = "Schedule"
	summarySheet  = "Summary"
)

// WriteXLSX writes a workbook with the schedule on one sheet and the plan's
// narrative fields on another.
func WriteXLSX(out io.Writer, plan *domain.CarePlan) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", scheduleSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(scheduleSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}
	if err := f.SetRowStyle(scheduleSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	view := careplan.BySlot(plan)
	row := 2
	for _, slot := range domain.Slots {
		entries := view.Get(slot)
		for i := range entries {
			values := entryToRow(slot, &entries[i])
			cells := make([]interface{}, len(values))
			for j, v := range values {
				cells[j] = v
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(scheduleSheet, cell, &cells); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
			row++
		}
	}
	_ = f.SetColWidth(scheduleSheet, "A", "A", 12)
	_ = f.SetColWidth(scheduleSheet, "B", "F", 28)

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	if err := writeSummary(f, plan, bold); err != nil {
		return err
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, plan *domain.CarePlan, labelStyle int) error {
	if plan == nil {
		plan = &domain.CarePlan{}
	}
	rows := [][2]string{
		{"Patient", plan.PatientName},
		{"Document Type", string(plan.DocType)},
		{"Summary", plan.Summary},
		{"Follow Up", plan.FollowUp},
	}
	for _, flag := range plan.RedFlags {
		rows = append(rows, [2]string{"Red Flag", flag})
	}
	for _, tip := range plan.DietaryTips {
		rows = append(rows, [2]string{"Dietary Tip", tip})
	}

	for i, r := range rows {
		labelCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valueCell, _ := excelize.CoordinatesToCellName(2, i+1)
		if err := f.SetCellStr(summarySheet, labelCell, r[0]); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		if err := f.SetCellStr(summarySheet, valueCell, r[1]); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		_ = f.SetCellStyle(summarySheet, labelCell, labelCell, labelStyle)
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 16)
	_ = f.SetColWidth(summarySheet, "B", "B", 80)
	return nil
}
