package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"
)

// Line indices of the extracted fields inside the page's text layout.
// They are a property of the municipal invoice template: a template
// change shifts the lines and breaks extraction, which is why a layout
// that is too short is reported as an error instead of reading whatever
// happens to be at the index.
const (
	dueDateLine = 12
	amountLine  = 31
	barcodeLine = 33
)

// Layout implements the Extractor interface by slicing the fixed text
// layout of the known invoice template.
type Layout struct{}

// NewLayout creates a new fixed-layout Extractor instance.
func NewLayout() *Layout {
	return &Layout{}
}

// Extract reads the competence month's page and slices its text layout.
func (l *Layout) Extract(path string, month time.Month) (*Invoice, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	pageIdx, err := competencePage(doc, month)
	if err != nil {
		return nil, err
	}

	text, err := doc.Text(pageIdx)
	if err != nil {
		return nil, fmt.Errorf("extracting page text: %w", err)
	}

	return invoiceFromLines(strings.Split(text, "\n"))
}

// Close closes the extractor (no-op, documents are opened per call).
func (l *Layout) Close() error {
	return nil
}

// competencePage maps the billing month onto a 0-based page index.
// Booklets that do not start in January have fewer than 12 pages; the
// page count corrects the offset.
func competencePage(doc *fitz.Document, month time.Month) (int, error) {
	pages := doc.NumPage()
	idx := int(month) + pages - 12
	if idx < 0 || idx >= pages {
		return 0, fmt.Errorf("no page for month %d in a %d-page invoice", int(month), pages)
	}
	return idx, nil
}

// invoiceFromLines slices the extracted fields out of a page's text
// lines and normalizes them.
func invoiceFromLines(lines []string) (*Invoice, error) {
	if len(lines) <= barcodeLine {
		return nil, fmt.Errorf("unexpected text layout: %d lines", len(lines))
	}

	inv := &Invoice{
		DueDate: strings.TrimSpace(lines[dueDateLine]),
		Amount:  NormalizeAmount(lines[amountLine]),
		Barcode: NormalizeBarcode(lines[barcodeLine]),
	}

	if inv.DueDate == "" || inv.Amount == "" || inv.Barcode == "" {
		return nil, fmt.Errorf("incomplete extraction: due_date=%q amount=%q barcode=%q",
			inv.DueDate, inv.Amount, inv.Barcode)
	}

	return inv, nil
}
