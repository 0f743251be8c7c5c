package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth   = 190.0
	indentWidth = 4.0
)

// PDFExporter renders datasets into an outline style PDF table.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body. The
// first column is twice as wide as the others and is indented by row depth.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	widths := columnWidths(len(data.Headers))

	pdf.SetFont("Arial", "B", 10)
	for i, header := range data.Headers {
		pdf.CellFormat(widths[i], 8, tr(header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for r, row := range data.Rows {
		for i, header := range data.Headers {
			value := tr(row[header])
			if i == 0 {
				indent := float64(data.depth(r)) * indentWidth
				pdf.CellFormat(indent, 7, "", "LTB", 0, "", false, 0, "")
				pdf.CellFormat(widths[i]-indent, 7, truncate(pdf, value, widths[i]-indent), "RTB", 0, "", false, 0, "")
				continue
			}
			pdf.CellFormat(widths[i], 7, truncate(pdf, value, widths[i]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(n int) []float64 {
	widths := make([]float64, n)
	if n == 1 {
		widths[0] = pageWidth
		return widths
	}
	unit := pageWidth / float64(n+1)
	widths[0] = unit * 2
	for i := 1; i < n; i++ {
		widths[i] = unit
	}
	return widths
}

func truncate(pdf *gofpdf.Fpdf, value string, width float64) string {
	if width <= 2 || pdf.GetStringWidth(value) <= width-2 {
		return value
	}
	for len(value) > 0 && pdf.GetStringWidth(value+"...") > width-2 {
		value = value[:len(value)-1]
	}
	return strings.TrimSpace(value) + "..."
}
