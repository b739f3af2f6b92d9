package invoice

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// invoiceScanPrompt is the shared prompt used by the LLM extractors.
const invoiceScanPrompt = `You are analyzing one page of a Brazilian IPTU (municipal property tax) invoice. Carefully read all text in the image and extract the following information:

1. **Due Date**: The payment due date ("vencimento") printed on the page. Keep it in DD/MM/YYYY format.

2. **Barcode**: The boleto barcode digit line ("linha digitável"), usually 47 or 48 digits printed in groups separated by dots and spaces. Return digits only, no dots or spaces.

3. **Total Amount**: The total amount due ("valor total" / "valor a pagar"). Return it as a plain decimal number with a dot as the decimal separator (e.g. 94.20 for R$ 94,20).

Return ONLY valid JSON in this exact format:
{
  "due_date": "DD/MM/YYYY",
  "barcode": "00000000000000000000000000000000000000000000000",
  "amount": "0.00"
}

Important:
- The barcode must contain only digits
- The amount must use a dot as decimal separator and no thousands separator
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// parseInvoiceJSON parses the JSON response returned by an LLM
// extractor and normalizes its fields.
func parseInvoiceJSON(text string) (*Invoice, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var raw struct {
		DueDate string      `json:"due_date"`
		Barcode string      `json:"barcode"`
		Amount  json.Number `json:"amount"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	inv := &Invoice{
		DueDate: strings.TrimSpace(raw.DueDate),
		Barcode: NormalizeBarcode(raw.Barcode),
		Amount:  strings.TrimSpace(raw.Amount.String()),
	}

	// A wrong field here would drive a remote mutation, so unlike a
	// best-effort receipt scan nothing is defaulted: every field must
	// be present and well-formed.
	if _, err := time.Parse("02/01/2006", inv.DueDate); err != nil {
		return nil, fmt.Errorf("invalid due date %q", inv.DueDate)
	}
	if inv.Barcode == "" || strings.ContainsFunc(inv.Barcode, func(r rune) bool { return r < '0' || r > '9' }) {
		return nil, fmt.Errorf("invalid barcode %q", inv.Barcode)
	}
	if inv.Amount == "" {
		return nil, fmt.Errorf("missing amount")
	}

	return inv, nil
}
