package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/solarlist/solarlist/internal/models"
)

func TestWriteHistoryXLSX(t *testing.T) {
	summaries := []*models.RecordSummary{
		{ID: 2, ClientName: "Bruno", TechnicianName: "Carla", CreatedAt: time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC), LineCount: 3},
		{ID: 1, ClientName: "Ana", TechnicianName: "Carla", CreatedAt: time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC), LineCount: 2},
	}

	var buf bytes.Buffer
	if err := WriteHistoryXLSX(&buf, summaries); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "id" || rows[0][1] != "cliente" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != "Bruno" || rows[2][1] != "Ana" {
		t.Errorf("row order must follow input: %v / %v", rows[1], rows[2])
	}
	if rows[1][3] != "15/03/2025 09:00" {
		t.Errorf("date format: %q", rows[1][3])
	}
}

func TestWriteHistoryXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHistoryXLSX(&buf, nil); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, _ := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if len(rows) != 1 {
		t.Errorf("expected header only, got %d rows", len(rows))
	}
}
