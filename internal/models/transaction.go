package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places amounts and balances are stored
// with. Values with more places would be rounded by the database.
const MoneyScale = 4

// FitsScale reports whether d has no non-zero digits past MoneyScale places.
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// Flow is the direction a ledger entry moves its account's balance.
type Flow string

const (
	FlowDebit  Flow = "debit"
	FlowCredit Flow = "credit"
)

// Valid reports whether f is one of the known flows.
func (f Flow) Valid() bool {
	return f == FlowDebit || f == FlowCredit
}

// Delta returns the signed balance change of amount moving in this flow.
// Credit adds to the account, debit subtracts from it.
func (f Flow) Delta(amount decimal.Decimal) decimal.Decimal {
	if f == FlowCredit {
		return amount
	}
	return amount.Neg()
}

// FinanceType classifies the financial event a ledger entry belongs to.
type FinanceType string

const (
	FinanceIncome     FinanceType = "income"
	FinanceExpense    FinanceType = "expense"
	FinanceBorrowed   FinanceType = "borrowed"
	FinanceLent       FinanceType = "lent"
	FinanceSharedOpen FinanceType = "shared-open"
	FinanceTransfer   FinanceType = "transfer"
)

var financeTypes = map[FinanceType]struct{}{
	FinanceIncome:     {},
	FinanceExpense:    {},
	FinanceBorrowed:   {},
	FinanceLent:       {},
	FinanceSharedOpen: {},
	FinanceTransfer:   {},
}

// Valid reports whether t is a known finance type.
func (t FinanceType) Valid() bool {
	_, ok := financeTypes[t]
	return ok
}

// Transaction is one ledger entry: a monetary movement against exactly one
// account. Entries that belong to the same financial event share FinID.
type Transaction struct {
	ID            string              `json:"txn_id"`
	FinID         string              `json:"fin_id"`
	BillDate      *time.Time          `json:"bill_date,omitempty"`
	PaidDate      *time.Time          `json:"paid_date,omitempty"`
	Amount        decimal.Decimal     `json:"amount"`
	PaidAmount    decimal.NullDecimal `json:"paid_amount"`
	ActualAmount  decimal.NullDecimal `json:"actual_amount"`
	Flow          Flow                `json:"flow"`
	FinanceType   FinanceType         `json:"finance_type"`
	CategoryID    string              `json:"category_id,omitempty"`
	SubcategoryID string              `json:"subcategory_id,omitempty"`
	AccountID     string              `json:"account_id"`
	MethodID      string              `json:"method_id,omitempty"`
	Tags          string              `json:"tags,omitempty"`
	Description   string              `json:"description,omitempty"`
	ReferenceID   string              `json:"reference_id,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	CreatedAt     time.Time           `json:"created_ts"`
	UpdatedAt     time.Time           `json:"updated_ts"`
}

// Delta is the signed effect this entry has on its account's balance.
func (t Transaction) Delta() decimal.Decimal {
	return t.Flow.Delta(t.Amount)
}
