package services

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog/log"

	"github.com/AXI0MH1VE/State-Inverant/models"
)

// Column widths of the report table in mm; the page body is 190mm wide
var reportColumns = []struct {
	title string
	width float64
}{
	{"Time", 22},
	{"Service", 40},
	{"Status", 22},
	{"Message", 106},
}

// statusFill is the fill color of the status cell
func statusFill(status models.AuditStatus) (int, int, int) {
	switch status {
	case models.StatusSafe:
		return 209, 250, 229
	case models.StatusWarning:
		return 254, 243, 199
	case models.StatusDanger:
		return 254, 226, 226
	default:
		return 243, 244, 246
	}
}

// RenderAuditReport renders an export as a PDF document
func RenderAuditReport(export *AuditExport) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.SetTitle("Axiom Hive Audit Log", true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Axiom Hive Audit Log", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s, %d entries", models.FormatDateTime(export.GeneratedAt), export.Count), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range reportColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, entry := range export.Entries {
		pdf.CellFormat(reportColumns[0].width, 6, entry.GetTimeOfDay(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(reportColumns[1].width, 6, tr(entry.Service), "1", 0, "L", false, 0, "")

		r, g, b := statusFill(entry.Status)
		pdf.SetFillColor(r, g, b)
		pdf.CellFormat(reportColumns[2].width, 6, string(entry.Status), "1", 0, "L", true, 0, "")

		pdf.CellFormat(reportColumns[3].width, 6, tr(entry.Message), "1", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		log.Error().Err(err).Msg("Failed to generate audit report")
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	return buf.Bytes(), nil
}
