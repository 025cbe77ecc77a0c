package export

import (
	"fmt"
	"io"

	"call-analytics/internal/calls"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Call Logs"

// WriteExcel renders the call log as an xlsx workbook with a single sheet.
func WriteExcel(w io.Writer, rows []calls.Call) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("export: creating sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export: removing default sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("export: writing header: %w", err)
	}

	for i, c := range rows {
		cells := row(c)
		vals := make([]interface{}, len(cells))
		for j, v := range cells {
			vals[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: cell coords: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &vals); err != nil {
			return fmt.Errorf("export: writing row %s: %w", c.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: writing workbook: %w", err)
	}
	return nil
}
