// Package render produces the fixed-layout printable bill-of-materials document.
package render

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/solarlist/solarlist/internal/models"
)

// ContentType is the MIME type of rendered documents.
const ContentType = "application/pdf"

// RenderError reports a record that cannot be rendered. The workflow
// validates lists before persisting them, so seeing one means an upstream
// invariant broke; it is never retried.
type RenderError struct {
	RecordID int64
	Reason   string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render record %d: %s", e.RecordID, e.Reason)
}

// Renderer renders list records to PDF. Rendering is a pure function of the
// record: the same record always yields byte-identical output, so a
// re-download never drifts from the original document.
type Renderer struct {
	companyName string
	logoPath    string
}

// NewRenderer creates a renderer with the given branding. logoPath may be
// empty; a missing logo file is skipped rather than failing the document.
func NewRenderer(companyName, logoPath string) *Renderer {
	return &Renderer{companyName: companyName, logoPath: logoPath}
}

// Render produces the PDF for a record.
func (r *Renderer) Render(rec *models.ListRecord) ([]byte, error) {
	if len(rec.Materials) == 0 {
		return nil, &RenderError{RecordID: rec.ID, Reason: "material list is empty"}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	// Pin document dates to the record's creation time and sort the catalog
	// dictionaries so output is reproducible byte for byte.
	pdf.SetCreationDate(rec.CreatedAt)
	pdf.SetModificationDate(rec.CreatedAt)
	pdf.SetCatalogSort(true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(tr(fmt.Sprintf("Lista de materiais %d", rec.ID)), true)
	pdf.SetAutoPageBreak(true, 20)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Registro #%d", rec.ID)), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Página %d", pdf.PageNo())), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()

	if r.logoPath != "" {
		if _, err := os.Stat(r.logoPath); err == nil {
			pdf.ImageOptions(r.logoPath, 10, 10, 40, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
			pdf.SetY(32)
		}
	}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, tr(r.companyName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr("Lista de Materiais — Instalação Fotovoltaica"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr("Cliente: "+rec.ClientName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Responsável técnico: "+rec.TechnicianName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Data de emissão: "+rec.CreatedAt.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	const (
		descWidth = 120.0
		qtyWidth  = 35.0
		unitWidth = 35.0
		rowHeight = 8.0
	)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(0, 121, 107)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(descWidth, rowHeight, tr("DESCRIÇÃO"), "1", 0, "C", true, 0, "")
	pdf.CellFormat(qtyWidth, rowHeight, "QTD", "1", 0, "C", true, 0, "")
	pdf.CellFormat(unitWidth, rowHeight, "UN", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(245, 245, 245)
	for _, line := range rec.Materials {
		pdf.CellFormat(descWidth, rowHeight, tr(line.Description), "1", 0, "L", true, 0, "")
		pdf.CellFormat(qtyWidth, rowHeight, formatQuantity(line.Quantity), "1", 0, "C", true, 0, "")
		pdf.CellFormat(unitWidth, rowHeight, tr(line.Unit), "1", 1, "C", true, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{RecordID: rec.ID, Reason: err.Error()}
	}
	return buf.Bytes(), nil
}

// formatQuantity prints whole quantities without a decimal part and keeps
// fractional ones (cable meters, for example) as entered.
func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
