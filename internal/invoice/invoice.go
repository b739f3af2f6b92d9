// Package invoice extracts the due date, barcode and total amount from
// monthly IPTU invoice PDFs.
package invoice

import (
	"fmt"
	"strings"
	"time"
)

// Invoice contains the fields extracted from one invoice page. DueDate
// is the raw printed date (dd/mm/yyyy), Barcode is digits only and
// Amount is a dot-decimal string.
type Invoice struct {
	DueDate string `json:"due_date"`
	Barcode string `json:"barcode"`
	Amount  string `json:"amount"`
}

// Extractor defines the interface for invoice extraction. month is the
// billing competence month and selects the page inside the yearly
// invoice booklet.
type Extractor interface {
	// Extract reads the invoice PDF at path and returns its fields
	Extract(path string, month time.Month) (*Invoice, error)
	// Close closes the extractor and releases resources
	Close() error
}

// Competence is the month/year billing bucket a payable belongs to.
type Competence struct {
	Month time.Month
	Year  int
}

// CurrentCompetence derives the competence from a point in time. From
// the 15th onward the competence rolls to the next month, December
// rolling into January of the next year.
func CurrentCompetence(now time.Time) Competence {
	month := now.Month()
	year := now.Year()

	if now.Day() >= 15 {
		if month == time.December {
			month = time.January
			year++
		} else {
			month++
		}
	}

	return Competence{Month: month, Year: year}
}

// PeriodStart is the first day of the competence window in the M/D/YYYY
// form the remote query parameters expect.
func (c Competence) PeriodStart() string {
	return fmt.Sprintf("%d/1/%d", int(c.Month), c.Year)
}

// PeriodEnd is the last queried day of the competence window.
func (c Competence) PeriodEnd() string {
	return fmt.Sprintf("%d/30/%d", int(c.Month), c.Year)
}

func (c Competence) String() string {
	return fmt.Sprintf("%d/%d", int(c.Month), c.Year)
}

// FormatDueDate converts the printed dd/mm/yyyy due date into the
// mm/dd/yyyy form the remote API expects.
func FormatDueDate(raw string) (string, error) {
	due, err := time.Parse("02/01/2006", strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parsing due date %q: %w", raw, err)
	}
	return due.Format("01/02/2006"), nil
}

// NormalizeBarcode strips the dots and spaces the printed barcode line
// carries, leaving digits only.
func NormalizeBarcode(raw string) string {
	return strings.NewReplacer(".", "", " ", "").Replace(raw)
}

// NormalizeAmount turns a printed Brazilian amount ("1.234,56") into a
// dot-decimal string ("1234.56").
func NormalizeAmount(raw string) string {
	return strings.NewReplacer(".", "", ",", ".").Replace(strings.TrimSpace(raw))
}
