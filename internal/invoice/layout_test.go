package invoice

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("invoiceFromLines", func() {
	// pageLines builds a plausible page layout with the three extracted
	// fields at their template positions.
	pageLines := func(dueDate, amount, barcode string) []string {
		lines := make([]string, 40)
		for i := range lines {
			lines[i] = "PREFEITURA MUNICIPAL"
		}
		lines[dueDateLine] = dueDate
		lines[amountLine] = amount
		lines[barcodeLine] = barcode
		return lines
	}

	It("slices and normalizes the template fields", func() {
		inv, err := invoiceFromLines(pageLines(" 05/09/2025 ", "94,20", "8162.0000 0000.9420"))
		Expect(err).NotTo(HaveOccurred())
		Expect(inv.DueDate).To(Equal("05/09/2025"))
		Expect(inv.Amount).To(Equal("94.20"))
		Expect(inv.Barcode).To(Equal("8162000000009420"))
	})

	When("the layout is shorter than the barcode line", func() {
		It("reports the layout instead of extracting garbage", func() {
			_, err := invoiceFromLines(make([]string, barcodeLine))
			Expect(err).To(MatchError(ContainSubstring("unexpected text layout")))
		})
	})

	When("a template field comes back empty", func() {
		It("rejects an empty due date", func() {
			_, err := invoiceFromLines(pageLines("", "94,20", "8162"))
			Expect(err).To(MatchError(ContainSubstring("incomplete extraction")))
		})

		It("rejects an empty amount", func() {
			_, err := invoiceFromLines(pageLines("05/09/2025", " ", "8162"))
			Expect(err).To(MatchError(ContainSubstring("incomplete extraction")))
		})

		It("rejects an empty barcode", func() {
			_, err := invoiceFromLines(pageLines("05/09/2025", "94,20", " . "))
			Expect(err).To(MatchError(ContainSubstring("incomplete extraction")))
		})
	})
})
