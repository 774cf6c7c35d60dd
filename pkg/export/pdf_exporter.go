package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin     = 10.0
	pdfLabelWidth = 24.0
	pdfLineHeight = 4.5
	pdfHeaderH    = 8.0
)

// PDFExporter renders timetables into printable A4 documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a portrait PDF with an optional title and a plain table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, 15, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	writeTitle(pdf, tr, title, "")

	pageW, _ := pdf.GetPageSize()
	colWidth := (pageW - 2*pdfMargin) / float64(len(data.Headers))

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		for _, h := range data.Headers {
			pdf.CellFormat(colWidth, pdfHeaderH, tr(h), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	header()
	for _, row := range data.Rows {
		if needsBreak(pdf, 7) {
			pdf.AddPage()
			header()
		}
		for _, value := range row {
			pdf.CellFormat(colWidth, 7, tr(value), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	return output(pdf)
}

// RenderGrid draws the weekly sheet on landscape pages. Rows grow to fit multi-line cells and
// the day header is repeated after every page break.
func (e *PDFExporter) RenderGrid(grid Grid) ([]byte, error) {
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, 12, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	writeTitle(pdf, tr, grid.Title, grid.Subtitle)

	pageW, _ := pdf.GetPageSize()
	dayWidth := (pageW - 2*pdfMargin - pdfLabelWidth) / float64(len(grid.Columns))

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(pdfLabelWidth, pdfHeaderH, tr(grid.Corner), "1", 0, "C", true, 0, "")
		for _, col := range grid.Columns {
			pdf.CellFormat(dayWidth, pdfHeaderH, tr(col), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	header()

	for _, row := range grid.Rows {
		lines := make([][]string, len(row.Cells))
		maxLines := 1
		for i, cell := range row.Cells {
			lines[i] = wrapCell(pdf, tr(cell), dayWidth-2)
			if len(lines[i]) > maxLines {
				maxLines = len(lines[i])
			}
		}
		height := float64(maxLines)*pdfLineHeight + 2
		if needsBreak(pdf, height) {
			pdf.AddPage()
			header()
		}

		x, y := pdf.GetXY()
		drawCell(pdf, x, y, pdfLabelWidth, height, []string{tr(row.Label)})
		x += pdfLabelWidth
		for _, cellLines := range lines {
			drawCell(pdf, x, y, dayWidth, height, cellLines)
			x += dayWidth
		}
		pdf.SetXY(pdfMargin, y+height)
	}
	return output(pdf)
}

func writeTitle(pdf *gofpdf.Fpdf, tr func(string) string, title, subtitle string) {
	if title == "" {
		return
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 9, tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
	if subtitle != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 6, tr(subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)
}

func wrapCell(pdf *gofpdf.Fpdf, text string, width float64) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(text, "\n") {
		for _, line := range pdf.SplitLines([]byte(part), width) {
			out = append(out, string(line))
		}
	}
	return out
}

func drawCell(pdf *gofpdf.Fpdf, x, y, w, h float64, lines []string) {
	pdf.Rect(x, y, w, h, "D")
	for i, line := range lines {
		pdf.SetXY(x, y+1+float64(i)*pdfLineHeight)
		pdf.CellFormat(w, pdfLineHeight, line, "", 0, "C", false, 0, "")
	}
}

func needsBreak(pdf *gofpdf.Fpdf, height float64) bool {
	_, pageH := pdf.GetPageSize()
	_, y := pdf.GetXY()
	return y+height > pageH-pdfMargin
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
