package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"call-analytics/internal/calls"
)

// WriteCSV streams the call log as CSV, header first.
func WriteCSV(w io.Writer, rows []calls.Call) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("export: writing csv header: %w", err)
	}
	for _, c := range rows {
		if err := cw.Write(row(c)); err != nil {
			return fmt.Errorf("export: writing csv row %s: %w", c.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
