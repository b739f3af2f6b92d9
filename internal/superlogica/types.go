package superlogica

// Contract is one lease contract as returned by the contract listing.
// Every value in the Superlógica envelope is a string, including ids.
type Contract struct {
	ID   string `json:"id_contrato_con"`
	Code string `json:"codigo_contrato"`
}

// Expense is one payable-expense candidate line for a contract. At most
// one of PendingID and DeferredID is populated on lines the matcher
// accepts: PendingID points at a payable already in the ledger awaiting
// an update, DeferredID at a scheduled payable not yet launched.
type Expense struct {
	ProductDescription string `json:"st_descricao_prd"`
	LaunchedAmount     string `json:"vl_valor_imod"`
	DebitHolder        string `json:"id_debito_imod"`
	PendingID          string `json:"id_despesa_desp"`
	DeferredID         string `json:"id_despesa_despm"`
}

// ExpenseDetail is the full remote record for one expense, fetched just
// before a mutation. Its fields are copied nearly verbatim into the
// mutation payloads.
type ExpenseDetail struct {
	Amount           string        `json:"vl_valor"`
	Total            string        `json:"vl_total"`
	PaymentMethodID  string        `json:"id_formapagamento"`
	CompetenceDate   string        `json:"dt_competencia"`
	PayeeID          string        `json:"id_terceiro_fav"`
	LaunchID         string        `json:"id_lancamento"`
	ProductID        string        `json:"id_produto_prd"`
	Status           string        `json:"fl_status"`
	CreditID         string        `json:"id_credito"`
	ReferenceDate    string        `json:"dt_referencia"`
	ContractID       string        `json:"id_contrato_con"`
	PropertyID       string        `json:"id_imovel_imo"`
	BankAccountMovID string        `json:"id_contabanco_mov"`
	Reconciled       string        `json:"fl_conciliado"`
	Barcode          string        `json:"st_codigobarras_mov"`
	BankAccountID    string        `json:"id_contabanco_cb"`
	InstallmentStart string        `json:"nm_parcelainicio_despm"`
	InstallmentEnd   string        `json:"nm_parcelafim_despm"`
	CompetenceKind   string        `json:"fl_tipocompetencia"`
	Compositions     []Composition `json:"composicoes"`
}

// Composition is the single-element sub-record nested in an
// ExpenseDetail. The remote form schema addresses it as COMPOSICOES[0].
type Composition struct {
	PropertyID           string `json:"id_imovel_imo"`
	PendingID            string `json:"id_despesa_desp"`
	LaunchID             string `json:"id_lancamento"`
	PaymentMethodID      string `json:"id_formapagamento"`
	ContractID           string `json:"id_contrato_con"`
	CompetenceDate       string `json:"dt_competencia"`
	BankAccountID        string `json:"id_contabanco_cb"`
	Start                string `json:"dt_inicio"`
	End                  string `json:"dt_fim"`
	CreditID             string `json:"id_credito"`
	PayeeID              string `json:"id_terceiro_fav"`
	Installments         string `json:"fl_parcelada"`
	ProductID            string `json:"id_produto_prd"`
	ProductDescription   string `json:"st_descricao_prd"`
	Complement           string `json:"st_complemento"`
	Amount               string `json:"vl_valor"`
	DebitID              string `json:"id_debito"`
	ChargeAdminFee       string `json:"fl_cobrartxadm"`
	ProRataOnTermination string `json:"fl_calcularproporcionalrescisao"`
	OwnerDebitID         string `json:"id_proprietariodebito"`
	OriginalAmount       string `json:"vl_valororiginal"`
	ReceiptID            string `json:"id_recebimento_recb"`
	TransferID           string `json:"id_repasse"`
	HasTransferCC        string `json:"tem_repasse_cc"`
	AmountChanged        string `json:"fl_alterouvalor"`
}
