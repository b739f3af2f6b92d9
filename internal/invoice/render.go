package invoice

import (
	"bytes"
	"fmt"
	"image/png"
	"time"

	"github.com/gen2brain/go-fitz"
)

// renderCompetencePage renders the billing month's page of the invoice
// booklet to a PNG image for the vision-model extractors.
func renderCompetencePage(path string, month time.Month) ([]byte, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	pageIdx, err := competencePage(doc, month)
	if err != nil {
		return nil, err
	}

	img, err := doc.Image(pageIdx)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}
