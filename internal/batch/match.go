package batch

import (
	"github.com/shopspring/decimal"

	"github.com/imobflow/iptu-batch/internal/superlogica"
)

// Action is the remote mutation a matched expense calls for.
type Action int

const (
	// ActionUpdate rewrites barcode and due date on a pending expense.
	ActionUpdate Action = iota + 1
	// ActionCreate launches a deferred expense into the ledger.
	ActionCreate
)

func (a Action) String() string {
	switch a {
	case ActionUpdate:
		return "update"
	case ActionCreate:
		return "create"
	}
	return "unknown"
}

// Match identifies the single actionable expense for one invoice.
type Match struct {
	ExpenseID string
	Action    Action
}

// NoMatchError means no candidate was actionable for the invoice.
type NoMatchError struct {
	Reason string
}

func (e *NoMatchError) Error() string {
	return "no actionable expense: " + e.Reason
}

// Disposition reasons emitted by the matcher.
const (
	ReasonNoMatchingLine = "no matching expense line"
	ReasonOwnerDebit     = "debit not assigned to tenant"
	ReasonNoLaunchID     = "no launch identifier available"
)

// ownerDebitCode marks an expense line billed to the property owner
// rather than the tenant; such lines are not actionable here.
const ownerDebitCode = "2"

// SelectExpense scans a contract's candidate lines, in gateway order,
// for the one expense the invoice should be launched against. The scan
// stops at the first actionable candidate.
//
// A line billed to the owner is normally skipped, but if it already
// carries a launch identifier the whole scan stops with ReasonOwnerDebit:
// that combination is a conflicting ledger state a person has to
// untangle, and acting on a later candidate would hide it.
func SelectExpense(candidates []superlogica.Expense, amount string) (Match, error) {
	reason := ReasonNoMatchingLine

	for _, c := range candidates {
		if c.ProductDescription != "IPTU" || !amountsEqual(c.LaunchedAmount, amount) {
			continue
		}

		if c.DebitHolder == ownerDebitCode {
			if c.PendingID != "" || c.DeferredID != "" {
				return Match{}, &NoMatchError{Reason: ReasonOwnerDebit}
			}
			continue
		}

		if c.PendingID != "" {
			return Match{ExpenseID: c.PendingID, Action: ActionUpdate}, nil
		}
		if c.DeferredID != "" {
			return Match{ExpenseID: c.DeferredID, Action: ActionCreate}, nil
		}

		reason = ReasonNoLaunchID
	}

	return Match{}, &NoMatchError{Reason: reason}
}

// amountsEqual compares two decimal strings by value, so "94.20"
// equals "94.2" but never "94.21". Strings that do not parse as
// decimals fall back to exact string comparison.
func amountsEqual(a, b string) bool {
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return da.Equal(db)
}
