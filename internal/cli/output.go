// Package cli provides output formatting for the solarlist command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/solarlist/solarlist/internal/models"
	"github.com/solarlist/solarlist/pkg/utils"
)

// OutputFormat is the format for command line output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteHistory writes record summaries to w in the given format.
func WriteHistory(w io.Writer, summaries []*models.RecordSummary, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	default:
		writeHistoryText(w, summaries)
		return nil
	}
}

func writeHistoryText(w io.Writer, summaries []*models.RecordSummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No records.")
		return
	}
	fmt.Fprintf(w, "%-6s %-24s %-24s %-17s %s\n", "ID", "CLIENTE", "TÉCNICO", "DATA", "ITENS")
	for _, s := range summaries {
		fmt.Fprintf(w, "%-6d %-24s %-24s %-17s %d\n",
			s.ID,
			utils.Truncate(s.ClientName, 22),
			utils.Truncate(s.TechnicianName, 22),
			s.CreatedAt.Format("02/01/2006 15:04"),
			s.LineCount,
		)
	}
}

// WriteRecord writes one record's metadata and material lines to w.
func WriteRecord(w io.Writer, rec *models.ListRecord, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	default:
		fmt.Fprintf(w, "Registro #%d\n", rec.ID)
		fmt.Fprintf(w, "Cliente: %s\n", rec.ClientName)
		fmt.Fprintf(w, "Responsável técnico: %s\n", rec.TechnicianName)
		fmt.Fprintf(w, "Data de emissão: %s\n\n", rec.CreatedAt.Format("02/01/2006 15:04"))
		for _, line := range rec.Materials {
			fmt.Fprintf(w, "  %g %s  %s\n", line.Quantity, line.Unit, line.Description)
		}
		return nil
	}
}
