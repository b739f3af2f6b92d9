package batch

import (
	"log/slog"
	"strings"

	"github.com/imobflow/iptu-batch/internal/superlogica"
)

// BuildIndex maps normalized contract codes to contract identifiers.
// The code is the lease code with any "/"-suffixed sub-unit stripped,
// upper-cased; PDFs in the inbox are named after this code. Duplicate
// codes keep the last contract seen.
func BuildIndex(contracts []superlogica.Contract) map[string]string {
	index := make(map[string]string, len(contracts))
	for _, contract := range contracts {
		code := NormalizeCode(contract.Code)
		index[code] = contract.ID
	}

	slog.Info("Contract index built", "entries", len(index))
	return index
}

// NormalizeCode normalizes a lease code for index lookup.
func NormalizeCode(code string) string {
	code, _, _ = strings.Cut(code, "/")
	return strings.ToUpper(strings.TrimSpace(code))
}
