// Package superlogica is a thin client for the Superlógica
// property-management API: paginated contract and expense reads plus
// the form-encoded PUT mutations that update or launch a payable.
package superlogica

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// pageSize is the fixed page size for every paginated listing. A
	// page shorter than this is the termination signal.
	pageSize = 150

	// iptuProductID scopes expense listings to IPTU lines.
	iptuProductID = "6"

	// rejectionMarker is embedded in an otherwise successful response
	// body when the remote rejects the mutation at the business level.
	rejectionMarker = "COM ERRO"
)

// Form-mode discriminators the detail endpoint requires to select its
// internal template. The strings belong to the remote form contract.
const (
	FormUpdatePrincipal = "FormAlterarValorDespesaPrincipal"
	FormLaunchPrincipal = "FormLancarDespesaPrincipal"
)

// Config carries the endpoint set and credentials for one tenant.
type Config struct {
	BaseURL     string // read endpoints root, e.g. https://api.superlogica.net/v2/imob/
	DetailURL   string // expense detail lookup
	UpdateURL   string // PUT that updates a pending expense
	LaunchURL   string // PUT that launches a deferred expense
	AppToken    string
	AccessToken string
}

// Client provides access to the Superlógica API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a new Superlógica API client.
func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/") + "/"
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("app_token", c.cfg.AppToken)
	req.Header.Set("access_token", c.cfg.AccessToken)
}

// paginate walks a paginated listing page by page until a page comes
// back shorter than pageSize (or empty), aggregating the data items.
// Any non-2xx status fails the whole walk; pages collected so far are
// discarded.
func (c *Client) paginate(ctx context.Context, resource string, query url.Values) ([]json.RawMessage, error) {
	var all []json.RawMessage

	for page := 1; ; page++ {
		q := url.Values{}
		for k, vs := range query {
			q[k] = vs
		}
		q.Set("itensPorPagina", strconv.Itoa(pageSize))
		q.Set("pagina", strconv.Itoa(page))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+resource+"?"+q.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		c.authorize(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("calling %s: %w", resource, err)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, &RequestError{Status: resp.StatusCode}
		}

		var envelope struct {
			Data []json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("decoding %s page %d: %w", resource, page, err)
		}
		resp.Body.Close()

		all = append(all, envelope.Data...)

		if len(envelope.Data) < pageSize {
			break
		}
	}

	return all, nil
}

// ListContracts pages through every lease contract.
func (c *Client) ListContracts(ctx context.Context) ([]Contract, error) {
	raw, err := c.paginate(ctx, "contratos", nil)
	if err != nil {
		return nil, fmt.Errorf("listing contracts: %w", err)
	}

	contracts := make([]Contract, 0, len(raw))
	for _, item := range raw {
		var contract Contract
		if err := json.Unmarshal(item, &contract); err != nil {
			return nil, fmt.Errorf("decoding contract: %w", err)
		}
		contracts = append(contracts, contract)
	}

	if len(contracts) == 0 {
		return nil, fmt.Errorf("listing contracts: %w", ErrEmptyResult)
	}

	slog.Info("Contracts loaded", "total", len(contracts))
	return contracts, nil
}

// ListExpenses pages through the IPTU expense candidates of one
// contract inside the given competence window. Returns ErrEmptyResult
// when the contract has no IPTU lines in the window; the caller treats
// that as a per-PDF skip.
func (c *Client) ListExpenses(ctx context.Context, contractID, periodStart, periodEnd string) ([]Expense, error) {
	query := url.Values{}
	query.Set("idContrato", contractID)
	query.Set("dtInicioMensal", periodStart)
	query.Set("dtFimMensal", periodEnd)
	query.Set("idProduto", iptuProductID)

	raw, err := c.paginate(ctx, "despesas", query)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}

	expenses := make([]Expense, 0, len(raw))
	for _, item := range raw {
		var expense Expense
		if err := json.Unmarshal(item, &expense); err != nil {
			return nil, fmt.Errorf("decoding expense: %w", err)
		}
		expenses = append(expenses, expense)
	}

	if len(expenses) == 0 {
		return nil, ErrEmptyResult
	}

	slog.Info("IPTU expenses loaded", "contract_id", contractID, "total", len(expenses))
	return expenses, nil
}

// DetailQuery keys an expense detail lookup. Form selects the remote
// form template and must match the mutation that will follow.
type DetailQuery struct {
	PendingID   string
	DeferredID  string
	PeriodStart string // only sent for the launch form
	PeriodEnd   string
	Form        string
}

// ExpenseDetail fetches the full record for one matched expense.
func (c *Client) ExpenseDetail(ctx context.Context, dq DetailQuery) (*ExpenseDetail, error) {
	query := url.Values{}
	query.Set("itensPorPagina", strconv.Itoa(pageSize))
	query.Set("pagina", "1")
	query.Set("ID_DESPESA_DESP", dq.PendingID)
	query.Set("ID_DESPESA_DESPM", dq.DeferredID)
	query.Set("DT_FIM", dq.PeriodEnd)
	if dq.PeriodStart != "" {
		query.Set("DT_INICIO", dq.PeriodStart)
	}
	query.Set("FORM", dq.Form)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.DetailURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching expense detail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{Status: resp.StatusCode}
	}

	var envelope struct {
		Data ExpenseDetail `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding expense detail: %w", err)
	}

	return &envelope.Data, nil
}

// UpdateExpense rewrites the barcode and due date of a pending expense.
// rawDue is the due date as printed on the invoice (dd/mm/yyyy); the
// remote wants it alongside the reformatted one.
func (c *Client) UpdateExpense(ctx context.Context, detail *ExpenseDetail, barcode, formattedDue, rawDue string) error {
	values, err := updateValues(detail, barcode, formattedDue, rawDue)
	if err != nil {
		return err
	}
	return c.submit(ctx, c.cfg.UpdateURL, values)
}

// LaunchExpense creates the ledger line for a deferred expense with the
// invoice's barcode and due date. competence is the period start date
// the run is processing (M/1/YYYY).
func (c *Client) LaunchExpense(ctx context.Context, detail *ExpenseDetail, barcode, formattedDue, competence, deferredID string) error {
	values, err := launchValues(detail, barcode, formattedDue, competence, deferredID)
	if err != nil {
		return err
	}
	return c.submit(ctx, c.cfg.LaunchURL, values)
}

func (c *Client) submit(ctx context.Context, endpoint string, values url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submitting mutation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &RequestError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading mutation response: %w", err)
	}

	// The remote signals business-logic failure inside a 200 response.
	if strings.Contains(string(body), rejectionMarker) {
		return &RejectedError{Body: string(body)}
	}

	return nil
}
