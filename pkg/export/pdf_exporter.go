package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// GridRow is one labelled row of a grid.
type GridRow struct {
	Label string
	Cells []string
}

// Grid is a two-dimensional table with a label column, e.g. time slots
// down the side and weekdays across the top. Cells may contain newlines.
type Grid struct {
	Title    string
	Subtitle string
	Corner   string
	Columns  []string
	Rows     []GridRow
}

const (
	labelWidth = 32.0
	lineHeight = 4.5
	headHeight = 8.0
)

// PDFExporter renders grids into landscape A4 documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays the grid out over as many pages as needed, repeating the
// column header on each page.
func (e *PDFExporter) Render(grid Grid) ([]byte, error) {
	if len(grid.Columns) == 0 {
		return nil, fmt.Errorf("pdf requires at least one column")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(false, 10)
	pdf.AddPage()

	pageWidth, pageHeight := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	colWidth := (pageWidth - left - right - labelWidth) / float64(len(grid.Columns))

	if grid.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 8, grid.Title, "", 1, "C", false, 0, "")
	}
	if grid.Subtitle != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 6, grid.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)

	header := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(labelWidth, headHeight, grid.Corner, "1", 0, "C", true, 0, "")
		for _, col := range grid.Columns {
			pdf.CellFormat(colWidth, headHeight, col, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	header()

	for _, row := range grid.Rows {
		lines := 1
		for _, cell := range row.Cells {
			if n := len(pdf.SplitLines([]byte(cell), colWidth-2)); n > lines {
				lines = n
			}
		}
		height := float64(lines)*lineHeight + 2

		_, y := pdf.GetXY()
		if y+height > pageHeight-bottom {
			pdf.AddPage()
			header()
			_, y = pdf.GetXY()
		}

		drawCell(pdf, left, y, labelWidth, height, row.Label, true)
		for i := range grid.Columns {
			var text string
			if i < len(row.Cells) {
				text = row.Cells[i]
			}
			drawCell(pdf, left+labelWidth+float64(i)*colWidth, y, colWidth, height, text, false)
		}
		pdf.SetXY(left, y+height)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func drawCell(pdf *gofpdf.Fpdf, x, y, w, h float64, text string, bold bool) {
	pdf.Rect(x, y, w, h, "D")
	if strings.TrimSpace(text) == "" {
		return
	}
	if bold {
		pdf.SetFont("Arial", "B", 8)
		defer pdf.SetFont("Arial", "", 8)
	}
	pdf.SetXY(x+1, y+1)
	pdf.MultiCell(w-2, lineHeight, text, "", "C", false)
}
