// Package batch orchestrates one IPTU launch run: build the contract
// index, then for each invoice PDF in the inbox extract its fields,
// pick the one actionable expense and submit the matching mutation.
// Every PDF ends the run archived under the OK or error folder.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imobflow/iptu-batch/internal/invoice"
	"github.com/imobflow/iptu-batch/internal/superlogica"
)

// Gateway is the remote contract/expense surface the runner depends on.
type Gateway interface {
	ListContracts(ctx context.Context) ([]superlogica.Contract, error)
	ListExpenses(ctx context.Context, contractID, periodStart, periodEnd string) ([]superlogica.Expense, error)
	ExpenseDetail(ctx context.Context, dq superlogica.DetailQuery) (*superlogica.ExpenseDetail, error)
	UpdateExpense(ctx context.Context, detail *superlogica.ExpenseDetail, barcode, formattedDue, rawDue string) error
	LaunchExpense(ctx context.Context, detail *superlogica.ExpenseDetail, barcode, formattedDue, competence, deferredID string) error
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Paths holds the three directories a run works with.
type Paths struct {
	Inbox string
	OK    string
	Error string
}

// Runner executes one batch run.
type Runner struct {
	gateway    Gateway
	extractor  invoice.Extractor
	store      Store
	archiver   Archiver
	paths      Paths
	timeSource TimeSource
}

// NewRunner creates a new Runner with the default archiver and time
// source.
func NewRunner(gateway Gateway, extractor invoice.Extractor, store Store, paths Paths) *Runner {
	return &Runner{
		gateway:    gateway,
		extractor:  extractor,
		store:      store,
		archiver:   LocalArchiver{},
		paths:      paths,
		timeSource: &defaultTimeSource{},
	}
}

// NewRunnerWithDeps creates a new Runner with custom dependencies for
// testing.
func NewRunnerWithDeps(gateway Gateway, extractor invoice.Extractor, store Store, archiver Archiver, paths Paths, timeSrc TimeSource) *Runner {
	return &Runner{
		gateway:    gateway,
		extractor:  extractor,
		store:      store,
		archiver:   archiver,
		paths:      paths,
		timeSource: timeSrc,
	}
}

// Run processes every PDF in the inbox. Only bootstrap failures abort
// the run; per-PDF failures are logged and turned into an error-folder
// disposition so the batch always completes and reports outcomes
// through filenames.
func (r *Runner) Run(ctx context.Context) error {
	comp := invoice.CurrentCompetence(r.timeSource.Now())
	slog.Info("Billing competence", "month", int(comp.Month), "year", comp.Year)

	contracts, err := r.gateway.ListContracts(ctx)
	if err != nil {
		return err
	}

	index := BuildIndex(contracts)
	if err := r.store.SaveContractIndex(index); err != nil {
		return fmt.Errorf("persisting contract index: %w", err)
	}

	pdfs, err := listPDFs(r.paths.Inbox)
	if err != nil {
		return err
	}

	for _, pdf := range pdfs {
		r.processOne(ctx, pdf, index, comp)
	}

	return nil
}

// listPDFs scans the inbox non-recursively for PDF files. An empty
// inbox is a bootstrap error, not a successful empty run.
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading inbox: %w", err)
	}

	var pdfs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			pdfs = append(pdfs, filepath.Join(dir, entry.Name()))
		}
	}

	if len(pdfs) == 0 {
		return nil, fmt.Errorf("no PDF files in inbox %s", dir)
	}

	return pdfs, nil
}

// processOne takes one PDF through extraction, matching and dispatch,
// ending in exactly one disposition.
func (r *Runner) processOne(ctx context.Context, pdf string, index map[string]string, comp invoice.Competence) {
	code := NormalizeCode(strings.TrimSuffix(filepath.Base(pdf), filepath.Ext(pdf)))
	log := slog.With("contract_code", code)
	log.Info("Processing invoice")

	contractID, ok := index[code]
	if !ok {
		log.Error("Contract code not found in index")
		r.archive(pdf, "contract not found", r.paths.Error)
		return
	}

	inv, err := r.extractor.Extract(pdf, comp.Month)
	if err != nil {
		log.Error("Extraction failed", "error", err)
		r.archive(pdf, "extraction failed", r.paths.Error)
		return
	}

	formattedDue, err := invoice.FormatDueDate(inv.DueDate)
	if err != nil {
		log.Error("Unparseable due date", "due_date", inv.DueDate, "error", err)
		r.archive(pdf, "unparseable due date", r.paths.Error)
		return
	}

	log.Info("Invoice extracted",
		"due_date", inv.DueDate,
		"barcode", inv.Barcode,
		"amount", inv.Amount,
	)

	candidates, err := r.gateway.ListExpenses(ctx, contractID, comp.PeriodStart(), comp.PeriodEnd())
	if err != nil {
		if errors.Is(err, superlogica.ErrEmptyResult) {
			log.Error("No IPTU expenses for contract")
			r.archive(pdf, "no IPTU expenses for contract", r.paths.Error)
			return
		}
		log.Error("Expense listing failed", "error", err)
		r.archive(pdf, "expense listing failed", r.paths.Error)
		return
	}

	match, err := SelectExpense(candidates, inv.Amount)
	if err != nil {
		reason := "no actionable expense"
		var noMatch *NoMatchError
		if errors.As(err, &noMatch) {
			reason = noMatch.Reason
		}
		log.Error("No actionable expense", "reason", reason)
		r.archive(pdf, reason, r.paths.Error)
		return
	}

	submitted, err := r.store.WasSubmitted(match.ExpenseID, comp.String())
	if err != nil {
		// The guard is an additive safeguard; a broken audit store
		// must not block the launch itself.
		log.Warn("Submission ledger lookup failed", "error", err)
	}
	if submitted {
		log.Error("Expense already launched this period", "expense_id", match.ExpenseID)
		r.archive(pdf, "already launched this period", r.paths.Error)
		return
	}

	if err := r.dispatch(ctx, match, inv, formattedDue, comp); err != nil {
		reason := "mutation request failed"
		var rejected *superlogica.RejectedError
		if errors.As(err, &rejected) {
			reason = "rejected by remote"
		}
		log.Error("Mutation failed", "action", match.Action.String(), "error", err)
		r.archive(pdf, reason, r.paths.Error)
		return
	}

	if err := r.store.MarkSubmitted(match.ExpenseID, comp.String()); err != nil {
		log.Warn("Recording submission failed", "error", err)
	}

	log.Info("Expense launched", "expense_id", match.ExpenseID, "action", match.Action.String())
	r.archive(pdf, "OK", r.paths.OK)
}

// dispatch fetches the expense detail with the form mode matching the
// action and submits the corresponding mutation.
func (r *Runner) dispatch(ctx context.Context, match Match, inv *invoice.Invoice, formattedDue string, comp invoice.Competence) error {
	switch match.Action {
	case ActionUpdate:
		detail, err := r.gateway.ExpenseDetail(ctx, superlogica.DetailQuery{
			PendingID: match.ExpenseID,
			PeriodEnd: comp.PeriodEnd(),
			Form:      superlogica.FormUpdatePrincipal,
		})
		if err != nil {
			return err
		}
		return r.gateway.UpdateExpense(ctx, detail, inv.Barcode, formattedDue, inv.DueDate)

	case ActionCreate:
		detail, err := r.gateway.ExpenseDetail(ctx, superlogica.DetailQuery{
			DeferredID:  match.ExpenseID,
			PeriodStart: comp.PeriodStart(),
			PeriodEnd:   comp.PeriodEnd(),
			Form:        superlogica.FormLaunchPrincipal,
		})
		if err != nil {
			return err
		}
		return r.gateway.LaunchExpense(ctx, detail, inv.Barcode, formattedDue, comp.PeriodStart(), match.ExpenseID)
	}

	return fmt.Errorf("unknown action %d", match.Action)
}

func (r *Runner) archive(pdf, reason, targetDir string) {
	if _, err := r.archiver.Archive(pdf, reason, targetDir); err != nil {
		slog.Error("File archival failed", "file", pdf, "error", err)
	}
}
