package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Field is a labelled value printed in a sheet header block.
type Field struct {
	Label string
	Value string
}

// Section is a titled table inside a sheet.
type Section struct {
	Title string
	Data  Dataset
}

// Sheet describes a single-entity document: a header block followed by tables.
type Sheet struct {
	Title    string
	Fields   []Field
	Sections []Section
}

// PDFExporter renders datasets and sheets with gofpdf.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	return e.RenderSheet(Sheet{Title: title, Sections: []Section{{Data: data}}})
}

// RenderSheet lays out the header fields then each section table in order.
func (e *PDFExporter) RenderSheet(sheet Sheet) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if sheet.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(sheet.Title)), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	for _, field := range sheet.Fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 7, tr(field.Label), "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 7, tr(field.Value), "", "", false)
	}
	if len(sheet.Fields) > 0 {
		pdf.Ln(4)
	}

	for _, section := range sheet.Sections {
		if len(section.Data.Headers) == 0 {
			continue
		}
		if section.Title != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 8, tr(section.Title), "", 1, "", false, 0, "")
		}
		pdf.SetFont("Arial", "B", 10)
		colWidth := 190.0 / float64(len(section.Data.Headers))
		for _, header := range section.Data.Headers {
			pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range section.Data.Rows {
			for _, header := range section.Data.Headers {
				pdf.CellFormat(colWidth, 7, tr(row[header]), "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
