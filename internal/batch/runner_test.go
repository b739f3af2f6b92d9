package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imobflow/iptu-batch/internal/invoice"
	"github.com/imobflow/iptu-batch/internal/superlogica"
)

// mockGateway is a mock implementation of Gateway
type mockGateway struct {
	contracts    []superlogica.Contract
	contractsErr error

	expenses    []superlogica.Expense
	expensesErr error
	expenseReqs []string // contract ids queried

	detail        *superlogica.ExpenseDetail
	detailErr     error
	detailQueries []superlogica.DetailQuery

	updateErr   error
	launchErr   error
	updateCalls []mutationCall
	launchCalls []mutationCall
}

type mutationCall struct {
	barcode      string
	formattedDue string
	rawDue       string
	competence   string
	deferredID   string
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		contracts: []superlogica.Contract{{ID: "11", Code: "AP101/01"}},
		detail: &superlogica.ExpenseDetail{
			Amount:       "94.20",
			Total:        "94.20",
			Compositions: []superlogica.Composition{{Amount: "94.20"}},
		},
	}
}

func (m *mockGateway) ListContracts(ctx context.Context) ([]superlogica.Contract, error) {
	if m.contractsErr != nil {
		return nil, m.contractsErr
	}
	return m.contracts, nil
}

func (m *mockGateway) ListExpenses(ctx context.Context, contractID, periodStart, periodEnd string) ([]superlogica.Expense, error) {
	m.expenseReqs = append(m.expenseReqs, contractID)
	if m.expensesErr != nil {
		return nil, m.expensesErr
	}
	return m.expenses, nil
}

func (m *mockGateway) ExpenseDetail(ctx context.Context, dq superlogica.DetailQuery) (*superlogica.ExpenseDetail, error) {
	m.detailQueries = append(m.detailQueries, dq)
	if m.detailErr != nil {
		return nil, m.detailErr
	}
	return m.detail, nil
}

func (m *mockGateway) UpdateExpense(ctx context.Context, detail *superlogica.ExpenseDetail, barcode, formattedDue, rawDue string) error {
	m.updateCalls = append(m.updateCalls, mutationCall{barcode: barcode, formattedDue: formattedDue, rawDue: rawDue})
	return m.updateErr
}

func (m *mockGateway) LaunchExpense(ctx context.Context, detail *superlogica.ExpenseDetail, barcode, formattedDue, competence, deferredID string) error {
	m.launchCalls = append(m.launchCalls, mutationCall{barcode: barcode, formattedDue: formattedDue, competence: competence, deferredID: deferredID})
	return m.launchErr
}

// mockExtractor is a mock implementation of invoice.Extractor
type mockExtractor struct {
	invoice *invoice.Invoice
	err     error
	months  []time.Month
}

func newMockExtractor() *mockExtractor {
	return &mockExtractor{
		invoice: &invoice.Invoice{
			DueDate: "05/09/2025",
			Barcode: "816200000007942036592023510073102509900001709014",
			Amount:  "94.20",
		},
	}
}

func (m *mockExtractor) Extract(path string, month time.Month) (*invoice.Invoice, error) {
	m.months = append(m.months, month)
	if m.err != nil {
		return nil, m.err
	}
	return m.invoice, nil
}

func (m *mockExtractor) Close() error {
	return nil
}

// mockStore is a mock implementation of Store
type mockStore struct {
	savedIndex map[string]string
	saveErr    error
	submitted  map[string]bool
	lookupErr  error
	marked     []string
}

func newMockStore() *mockStore {
	return &mockStore{submitted: make(map[string]bool)}
}

func (m *mockStore) SaveContractIndex(index map[string]string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.savedIndex = index
	return nil
}

func (m *mockStore) WasSubmitted(expenseID, competence string) (bool, error) {
	if m.lookupErr != nil {
		return false, m.lookupErr
	}
	return m.submitted[expenseID+"@"+competence], nil
}

func (m *mockStore) MarkSubmitted(expenseID, competence string) error {
	m.marked = append(m.marked, expenseID+"@"+competence)
	m.submitted[expenseID+"@"+competence] = true
	return nil
}

func (m *mockStore) Close() error {
	return nil
}

// mockArchiver records dispositions without touching the filesystem
type mockArchiver struct {
	moves []archivedFile
}

type archivedFile struct {
	path   string
	reason string
	dir    string
}

func (m *mockArchiver) Archive(path, reason, targetDir string) (string, error) {
	m.moves = append(m.moves, archivedFile{path: path, reason: reason, dir: targetDir})
	return filepath.Join(targetDir, filepath.Base(path)), nil
}

// mockTimeSource is a mock implementation of TimeSource
type mockTimeSource struct {
	now time.Time
}

func (m *mockTimeSource) Now() time.Time {
	return m.now
}

var _ = Describe("Runner", func() {
	var (
		gateway   *mockGateway
		extractor *mockExtractor
		store     *mockStore
		archiver  *mockArchiver
		paths     Paths
		runner    *Runner
		runErr    error
	)

	BeforeEach(func() {
		inbox := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(inbox, "AP101.pdf"), []byte("pdf"), 0644)).To(Succeed())

		paths = Paths{
			Inbox: inbox,
			OK:    filepath.Join(inbox, "ok"),
			Error: filepath.Join(inbox, "erro"),
		}

		gateway = newMockGateway()
		extractor = newMockExtractor()
		store = newMockStore()
		archiver = &mockArchiver{}
		// September 5th: before the 15th, competence stays 9/2025
		timeSrc := &mockTimeSource{now: time.Date(2025, 9, 5, 10, 0, 0, 0, time.UTC)}
		runner = NewRunnerWithDeps(gateway, extractor, store, archiver, paths, timeSrc)
	})

	JustBeforeEach(func() {
		runErr = runner.Run(context.Background())
	})

	When("a pending expense matches the invoice", func() {
		BeforeEach(func() {
			gateway.expenses = []superlogica.Expense{
				{ProductDescription: "IPTU", LaunchedAmount: "94.20", DebitHolder: "1", PendingID: "555"},
			}
		})

		It("should not return an error", func() {
			Expect(runErr).NotTo(HaveOccurred())
		})

		It("persists the contract index", func() {
			Expect(store.savedIndex).To(HaveKeyWithValue("AP101", "11"))
		})

		It("queries expenses for the contract in the competence window", func() {
			Expect(gateway.expenseReqs).To(Equal([]string{"11"}))
		})

		It("extracts the competence month's page", func() {
			Expect(extractor.months).To(Equal([]time.Month{time.September}))
		})

		It("fetches the detail with the update form mode", func() {
			Expect(gateway.detailQueries).To(HaveLen(1))
			Expect(gateway.detailQueries[0].PendingID).To(Equal("555"))
			Expect(gateway.detailQueries[0].Form).To(Equal(superlogica.FormUpdatePrincipal))
			Expect(gateway.detailQueries[0].PeriodStart).To(BeEmpty())
		})

		It("submits the update with the reformatted and raw due dates", func() {
			Expect(gateway.updateCalls).To(HaveLen(1))
			Expect(gateway.updateCalls[0].formattedDue).To(Equal("09/05/2025"))
			Expect(gateway.updateCalls[0].rawDue).To(Equal("05/09/2025"))
			Expect(gateway.launchCalls).To(BeEmpty())
		})

		It("records the submission", func() {
			Expect(store.marked).To(Equal([]string{"555@9/2025"}))
		})

		It("archives the PDF to the OK folder", func() {
			Expect(archiver.moves).To(HaveLen(1))
			Expect(archiver.moves[0].reason).To(Equal("OK"))
			Expect(archiver.moves[0].dir).To(Equal(paths.OK))
		})
	})

	When("a deferred expense matches the invoice", func() {
		BeforeEach(func() {
			gateway.expenses = []superlogica.Expense{
				{ProductDescription: "IPTU", LaunchedAmount: "94.20", DebitHolder: "1", DeferredID: "777"},
			}
		})

		It("fetches the detail with the launch form mode and window start", func() {
			Expect(gateway.detailQueries).To(HaveLen(1))
			Expect(gateway.detailQueries[0].DeferredID).To(Equal("777"))
			Expect(gateway.detailQueries[0].Form).To(Equal(superlogica.FormLaunchPrincipal))
			Expect(gateway.detailQueries[0].PeriodStart).To(Equal("9/1/2025"))
		})

		It("launches with the competence start and deferred id", func() {
			Expect(gateway.launchCalls).To(HaveLen(1))
			Expect(gateway.launchCalls[0].competence).To(Equal("9/1/2025"))
			Expect(gateway.launchCalls[0].deferredID).To(Equal("777"))
			Expect(gateway.updateCalls).To(BeEmpty())
		})

		It("archives the PDF to the OK folder", func() {
			Expect(archiver.moves[0].dir).To(Equal(paths.OK))
		})
	})

	When("the contract code is not in the index", func() {
		BeforeEach(func() {
			gateway.contracts = []superlogica.Contract{{ID: "99", Code: "OTHER"}}
		})

		It("archives the PDF to the error folder with the lookup reason", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(archiver.moves).To(HaveLen(1))
			Expect(archiver.moves[0].reason).To(Equal("contract not found"))
			Expect(archiver.moves[0].dir).To(Equal(paths.Error))
		})

		It("does not call the extractor", func() {
			Expect(extractor.months).To(BeEmpty())
		})
	})

	When("extraction fails", func() {
		BeforeEach(func() {
			extractor.err = errors.New("broken layout")
		})

		It("archives to the error folder and continues the run", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(archiver.moves[0].reason).To(Equal("extraction failed"))
			Expect(archiver.moves[0].dir).To(Equal(paths.Error))
		})
	})

	When("the contract has no IPTU expenses in the window", func() {
		BeforeEach(func() {
			gateway.expensesErr = superlogica.ErrEmptyResult
		})

		It("treats it as a per-PDF skip, not a run abort", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(archiver.moves[0].reason).To(Equal("no IPTU expenses for contract"))
		})
	})

	When("no candidate is actionable", func() {
		BeforeEach(func() {
			gateway.expenses = []superlogica.Expense{
				{ProductDescription: "IPTU", LaunchedAmount: "10.00", PendingID: "555"},
			}
		})

		It("archives with the matcher's reason", func() {
			Expect(archiver.moves[0].reason).To(Equal(ReasonNoMatchingLine))
			Expect(archiver.moves[0].dir).To(Equal(paths.Error))
		})

		It("submits nothing", func() {
			Expect(gateway.updateCalls).To(BeEmpty())
			Expect(gateway.launchCalls).To(BeEmpty())
		})
	})

	When("the mutation transport fails", func() {
		BeforeEach(func() {
			gateway.expenses = []superlogica.Expense{
				{ProductDescription: "IPTU", LaunchedAmount: "94.20", DebitHolder: "1", PendingID: "555"},
			}
			gateway.updateErr = &superlogica.RequestError{Status: 500}
		})

		It("archives to the error folder without retrying", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(gateway.updateCalls).To(HaveLen(1))
			Expect(archiver.moves[0].reason).To(Equal("mutation request failed"))
		})

		It("does not record a submission", func() {
			Expect(store.marked).To(BeEmpty())
		})
	})

	When("the remote rejects the mutation inside a 200 response", func() {
		BeforeEach(func() {
			gateway.expenses = []superlogica.Expense{
				{ProductDescription: "IPTU", LaunchedAmount: "94.20", DebitHolder: "1", PendingID: "555"},
			}
			gateway.updateErr = &superlogica.RejectedError{Body: "ITEM SALVO COM ERRO"}
		})

		It("archives with the rejection reason", func() {
			Expect(archiver.moves[0].reason).To(Equal("rejected by remote"))
		})
	})

	When("the expense was already launched this competence", func() {
		BeforeEach(func() {
			gateway.expenses = []superlogica.Expense{
				{ProductDescription: "IPTU", LaunchedAmount: "94.20", DebitHolder: "1", PendingID: "555"},
			}
			store.submitted["555@9/2025"] = true
		})

		It("does not submit again", func() {
			Expect(gateway.updateCalls).To(BeEmpty())
			Expect(gateway.detailQueries).To(BeEmpty())
		})

		It("archives with the resubmission reason", func() {
			Expect(archiver.moves[0].reason).To(Equal("already launched this period"))
			Expect(archiver.moves[0].dir).To(Equal(paths.Error))
		})
	})

	When("the contract listing fails", func() {
		BeforeEach(func() {
			gateway.contractsErr = errors.New("listing contracts: empty result")
		})

		It("aborts the run", func() {
			Expect(runErr).To(HaveOccurred())
		})

		It("touches no files", func() {
			Expect(archiver.moves).To(BeEmpty())
		})
	})

	When("the inbox holds no PDFs", func() {
		BeforeEach(func() {
			empty := GinkgoT().TempDir()
			paths.Inbox = empty
			runner = NewRunnerWithDeps(gateway, extractor, store, archiver, paths, &mockTimeSource{now: time.Date(2025, 9, 5, 10, 0, 0, 0, time.UTC)})
		})

		It("aborts the run", func() {
			Expect(runErr).To(HaveOccurred())
			Expect(runErr.Error()).To(ContainSubstring("no PDF files"))
		})
	})

	When("the run date is on or past the 15th", func() {
		BeforeEach(func() {
			timeSrc := &mockTimeSource{now: time.Date(2025, 9, 20, 10, 0, 0, 0, time.UTC)}
			runner = NewRunnerWithDeps(gateway, extractor, store, archiver, paths, timeSrc)
			gateway.expenses = []superlogica.Expense{
				{ProductDescription: "IPTU", LaunchedAmount: "94.20", DebitHolder: "1", DeferredID: "777"},
			}
		})

		It("rolls the competence to the next month", func() {
			Expect(extractor.months).To(Equal([]time.Month{time.October}))
			Expect(gateway.launchCalls[0].competence).To(Equal("10/1/2025"))
		})
	})
})
