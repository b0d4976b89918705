// Package export writes the history view to spreadsheet form.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/solarlist/solarlist/internal/models"
)

// XLSXContentType is the MIME type of the exported spreadsheet.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteHistoryXLSX writes record summaries as an xlsx workbook to w, one row
// per record in the order given (most recent first when coming from the store).
func WriteHistoryXLSX(w io.Writer, summaries []*models.RecordSummary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{"id", "cliente", "responsável técnico", "data de emissão", "itens"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := 2
	for _, s := range summaries {
		values := []interface{}{
			s.ID,
			s.ClientName,
			s.TechnicianName,
			s.CreatedAt.Format("02/01/2006 15:04"),
			s.LineCount,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", row, err)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		row++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
