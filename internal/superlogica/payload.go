package superlogica

import (
	"fmt"
	"net/url"
	"strings"
)

// The mutation endpoints take a large flat form body mirroring an
// undocumented internal form schema. Field names are schema-strict and
// must be reproduced byte-for-byte, so the update and launch payloads
// are built by two separate functions rather than one parametrized
// builder: they overlap heavily but differ in defaults, and sharing a
// single builder invites field bleed between the two shapes.

// setComposition writes one COMPOSICOES[0][...] field.
func setComposition(v url.Values, field, value string) {
	v.Set("COMPOSICOES[0]["+field+"]", value)
}

// dueDay extracts the day-of-month from a mm/dd/yyyy date.
func dueDay(formattedDue string) string {
	parts := strings.Split(formattedDue, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// updateValues builds the form body that rewrites the barcode and due
// date of a pending expense. Everything except the due date, barcode
// and mirrored payment amounts is a passthrough copy of the detail.
func updateValues(d *ExpenseDetail, barcode, formattedDue, rawDue string) (url.Values, error) {
	if len(d.Compositions) == 0 {
		return nil, fmt.Errorf("expense detail has no composition")
	}
	comp := d.Compositions[0]

	v := url.Values{}
	v.Set("ID_LANCTOPROGREALIZADO_LPR", "")
	v.Set("ID_LANCAMENTO_IMOD", "")
	v.Set("ID_LANCAMENTO_IMODM", "")
	v.Set("DT_VENCIMENTO", formattedDue)
	v.Set("DT_LIQUIDACAO_MOV", "")
	v.Set("VL_VALOR_IMOD", "-"+d.Amount)
	v.Set("NM_NUMERO_CH", "0")
	v.Set("ID_DEBITO_IMOD", "")
	v.Set("ID_RECEBIMENTO_RECB", "")
	v.Set("ID_REPASSE_REP", "")
	v.Set("ID_FORMAPAGAMENTO_IMOD", d.PaymentMethodID)
	v.Set("FL_MANTERCHAVE", "1")
	v.Set("NM_TAGLIQUIDACAO", "")
	v.Set("NM_TAGCRIACAO", "")
	v.Set("DT_ATUAL_COMPETENCIA", d.CompetenceDate)
	v.Set("FL_DIFERENCA", "0")
	v.Set("ID_TERCEIRO_FAV", d.PayeeID)
	v.Set("FL_TIPODESPESA", "2")
	v.Set("VL_TOTAL", d.Amount)
	v.Set("ID_LANCAMENTO", d.LaunchID)
	v.Set("ID_PRODUTO_PRD", d.ProductID)
	v.Set("FL_STATUS_MOV", d.Status)
	v.Set("ID_CREDITO", d.CreditID)
	v.Set("DT_REFERENCIA", d.ReferenceDate)
	v.Set("ID_CONTRATO_CON", d.ContractID)
	v.Set("ID_FORMAPAGAMENTO", d.PaymentMethodID)
	v.Set("ID_IMOVEL_IMO", d.PropertyID)
	v.Set("DT_COMPETENCIA", d.CompetenceDate)
	v.Set("ID_CONTABANCO_MOV", d.BankAccountMovID)
	v.Set("FL_CONCILIADO", d.Reconciled)
	v.Set("FL_ALTERAR_COMPOSICOES", "0")
	v.Set("COMPOSICOES_EXCLUIDAS", "")
	v.Set("NM_PARCELAINICIO_DESPM", "")
	v.Set("NM_PARCELAFIM_DESPM", "")
	v.Set("ID_DESPESA_DESPM", "")
	v.Set("CODIGOBARRAS_ANTERIOR", d.Barcode)
	v.Set("PERMITE_ALTERAR_COM_COMPOSICAO", "0")
	v.Set("ATUALIZAR_FUTURAS", "0")
	v.Set("ST_CODIGOBARRAS_MOV", barcode)
	v.Set("VALOR_BOLETO", "")
	v.Set("VL_PAGAMENTO", "-"+d.Amount)

	setComposition(v, "FL_IMOVEL_VAGO", "")
	setComposition(v, "ID_IMOVEL_IMO", comp.PropertyID)
	setComposition(v, "ID_DESPESA_DESP", comp.PendingID)
	setComposition(v, "ID_LANCAMENTO", comp.LaunchID)
	// The trailing space inside this key is part of the remote form
	// contract; the endpoint does not accept the field without it.
	v.Set("COMPOSICOES[0][ID_LANCAMENTO_IMODM] ", "")
	setComposition(v, "ID_FORMAPAGAMENTO", comp.PaymentMethodID)
	setComposition(v, "ID_CONTRATO_CON", comp.ContractID)
	setComposition(v, "NM_PROPRIETARIOS", "")
	setComposition(v, "FL_CONCILIADO", "")
	setComposition(v, "FL_CONTRATOATIVO", "")
	setComposition(v, "DT_REFERENCIA", formattedDue)
	setComposition(v, "DT_VENCIMENTO", formattedDue)
	setComposition(v, "DT_COMPETENCIA", comp.CompetenceDate)
	setComposition(v, "ID_CONTABANCO_CB", comp.BankAccountID)
	setComposition(v, "NM_DIAVENCIMENTO", dueDay(formattedDue))
	setComposition(v, "DT_INICIO", "")
	setComposition(v, "DT_FIM", "")
	setComposition(v, "ID_CREDITO", comp.CreditID)
	setComposition(v, "ID_TERCEIRO_FAV", comp.PayeeID)
	setComposition(v, "ID_DESPESAREEMBOLSO", "")
	setComposition(v, "ID_TEMPORARIO", "")
	setComposition(v, "NOME_PROPRIETARIODEBITO", "")
	setComposition(v, "FL_PERIODODESPESAPRINCIPAL", "1")
	setComposition(v, "FL_TIPOCOMPETENCIA", "")
	setComposition(v, "VL_PAGTOINDEVIDO", "")
	setComposition(v, "FL_DESPESAPROPORCIONAL", "0")
	setComposition(v, "FL_PARCELADA", comp.Installments)
	setComposition(v, "ID_PRODUTO_PRD", comp.ProductID)
	setComposition(v, "ST_DESCRICAO_PRD", comp.ProductDescription)
	setComposition(v, "ST_COMPLEMENTO", comp.Complement)
	setComposition(v, "VL_VALOR", comp.Amount)
	setComposition(v, "ID_DEBITO", comp.DebitID)
	setComposition(v, "FL_COBRARTXADM", comp.ChargeAdminFee)
	setComposition(v, "FL_CALCULARPROPORCIONALRESCISAO", comp.ProRataOnTermination)
	setComposition(v, "ID_PROPRIETARIODEBITO", comp.OwnerDebitID)
	setComposition(v, "FL_DIFERENCA", "0")
	setComposition(v, "VL_VALORORIGINAL", comp.OriginalAmount)
	setComposition(v, "ID_RECEBIMENTO_RECB", comp.ReceiptID)
	setComposition(v, "ID_REPASSE", comp.TransferID)
	setComposition(v, "TEM_REPASSE_CC", comp.HasTransferCC)
	setComposition(v, "FL_ALTEROUVALOR", comp.AmountChanged)
	setComposition(v, "NOVA_COMPOSICAO", "0")
	setComposition(v, "FL_ALTERAR_COMPOSICOES", "1")

	v.Set("ID_CONTABANCO_CB", d.BankAccountID)
	v.Set("INDICE_PRINCIPAL", "0")
	v.Set("ID_DEBITO", comp.DebitID)
	v.Set("DT_ATUAL_VENCIMENTO", rawDue)
	v.Set("DT_REFERENCIACAIXA", formattedDue)
	v.Set("FORCAR_ALTERAR", "1")
	v.Set("IDS_DELETAR", "")
	v.Set("salvar", "Alterar")

	return v, nil
}

// launchValues builds the form body that creates the ledger line for a
// deferred expense. Status flags and the installment start/end fields
// differ from the update shape, and the amount comes from the detail's
// total rather than its value.
func launchValues(d *ExpenseDetail, barcode, formattedDue, competence, deferredID string) (url.Values, error) {
	if len(d.Compositions) == 0 {
		return nil, fmt.Errorf("expense detail has no composition")
	}
	comp := d.Compositions[0]

	v := url.Values{}
	v.Set("ID_LANCTOPROGREALIZADO_LPR", "")
	v.Set("ID_LANCAMENTO_IMOD", "")
	v.Set("ID_LANCAMENTO_IMODM", "")
	v.Set("DT_VENCIMENTO", formattedDue)
	v.Set("DT_LIQUIDACAO_MOV", "")
	v.Set("VL_VALOR_IMOD", "-"+d.Total)
	v.Set("NM_NUMERO_CH", "0")
	v.Set("ID_DEBITO_IMOD", "")
	v.Set("ID_RECEBIMENTO_RECB", "")
	v.Set("ID_REPASSE_REP", "")
	v.Set("ID_FORMAPAGAMENTO_IMOD", d.PaymentMethodID)
	v.Set("FL_MANTERCHAVE", "1")
	v.Set("NM_TAGLIQUIDACAO", "")
	v.Set("NM_TAGCRIACAO", "")
	v.Set("DT_ATUAL_COMPETENCIA", competence)
	v.Set("FL_DIFERENCA", "0")
	v.Set("ID_TERCEIRO_FAV", d.PayeeID)
	v.Set("FL_TIPODESPESA", "4")
	v.Set("VL_TOTAL", d.Total)
	v.Set("ID_LANCAMENTO", d.LaunchID)
	v.Set("ID_PRODUTO_PRD", d.ProductID)
	v.Set("FL_STATUS_MOV", "1")
	v.Set("ID_CREDITO", d.CreditID)
	v.Set("DT_REFERENCIA", formattedDue)
	v.Set("ID_CONTRATO_CON", d.ContractID)
	v.Set("ID_FORMAPAGAMENTO", d.PaymentMethodID)
	v.Set("ID_IMOVEL_IMO", d.PropertyID)
	v.Set("DT_COMPETENCIA", competence)
	v.Set("ID_CONTABANCO_MOV", "")
	v.Set("FL_CONCILIADO", "")
	v.Set("FL_ALTERAR_COMPOSICOES", "0")
	v.Set("COMPOSICOES_EXCLUIDAS", "")
	v.Set("NM_PARCELAINICIO_DESPM", d.InstallmentStart)
	v.Set("NM_PARCELAFIM_DESPM", d.InstallmentEnd)
	v.Set("ID_DESPESA_DESPM", "")
	v.Set("CODIGOBARRAS_ANTERIOR", "")
	v.Set("PERMITE_ALTERAR_COM_COMPOSICAO", "0")
	v.Set("ATUALIZAR_FUTURAS", "0")
	v.Set("ST_CODIGOBARRAS_MOV", barcode)
	v.Set("VALOR_BOLETO", "")
	v.Set("VL_PAGAMENTO", "-"+d.Total)

	setComposition(v, "FL_IMOVEL_VAGO", "")
	setComposition(v, "ID_IMOVEL_IMO", comp.PropertyID)
	setComposition(v, "ID_DESPESA_DESP", "")
	setComposition(v, "ID_LANCAMENTO", comp.LaunchID)
	setComposition(v, "ID_LANCAMENTO_IMODM", comp.LaunchID)
	setComposition(v, "ID_FORMAPAGAMENTO", comp.PaymentMethodID)
	setComposition(v, "ID_CONTRATO_CON", comp.ContractID)
	setComposition(v, "NM_PROPRIETARIOS", "")
	setComposition(v, "FL_CONCILIADO", "")
	setComposition(v, "FL_CONTRATOATIVO", "")
	setComposition(v, "DT_REFERENCIA", formattedDue)
	setComposition(v, "DT_VENCIMENTO", formattedDue)
	setComposition(v, "DT_COMPETENCIA", competence)
	setComposition(v, "ID_CONTABANCO_CB", comp.BankAccountID)
	setComposition(v, "NM_DIAVENCIMENTO", dueDay(formattedDue))
	setComposition(v, "DT_INICIO", comp.Start)
	setComposition(v, "DT_FIM", comp.End)
	setComposition(v, "ID_CREDITO", comp.CreditID)
	setComposition(v, "ID_TERCEIRO_FAV", comp.PayeeID)
	setComposition(v, "ID_DESPESAREEMBOLSO", "")
	setComposition(v, "ID_TEMPORARIO", "")
	setComposition(v, "NOME_PROPRIETARIODEBITO", "")
	setComposition(v, "FL_PERIODODESPESAPRINCIPAL", "1")
	setComposition(v, "FL_TIPOCOMPETENCIA", "")
	setComposition(v, "VL_PAGTOINDEVIDO", "")
	setComposition(v, "FL_DESPESAPROPORCIONAL", "")
	setComposition(v, "FL_PARCELADA", "")
	setComposition(v, "ID_PRODUTO_PRD", comp.ProductID)
	setComposition(v, "ST_DESCRICAO_PRD", comp.ProductDescription)
	setComposition(v, "ST_COMPLEMENTO", "")
	setComposition(v, "VL_VALOR", comp.Amount)
	setComposition(v, "ID_DEBITO", comp.DebitID)
	setComposition(v, "FL_COBRARTXADM", comp.ChargeAdminFee)
	setComposition(v, "ID_PROPRIETARIODEBITO", "")
	setComposition(v, "FL_DIFERENCA", "0")
	setComposition(v, "VL_VALORORIGINAL", "")
	setComposition(v, "ID_RECEBIMENTO_RECB", "")
	setComposition(v, "ID_REPASSE", "")
	setComposition(v, "TEM_REPASSE_CC", "")
	setComposition(v, "FL_ALTEROUVALOR", "")
	setComposition(v, "NOVA_COMPOSICAO", "0")
	setComposition(v, "FL_ALTERAR_COMPOSICOES", "1")

	v.Set("ID_CONTABANCO_CB", d.BankAccountID)
	v.Set("ID_DEBITO", comp.DebitID)
	v.Set("FL_TIPOCOMPETENCIA", d.CompetenceKind)
	v.Set("ID_DESPESA", deferredID)
	v.Set("salvar", "Lançar")
	v.Set("DT_REFERENCIACAIXA", formattedDue)

	return v, nil
}
