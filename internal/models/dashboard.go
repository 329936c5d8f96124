package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalance is an active account as shown on the dashboard.
type AccountBalance struct {
	ID      string          `json:"account_id"`
	Name    string          `json:"account_name"`
	Balance decimal.Decimal `json:"balance"`
}

// RecentTransaction is the dashboard's summary row of a ledger entry.
type RecentTransaction struct {
	TxnID       string          `json:"txn_id"`
	FinID       string          `json:"fin_id"`
	BillDate    *time.Time      `json:"bill_date,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Flow        Flow            `json:"flow"`
	FinanceType FinanceType     `json:"finance_type"`
	Description string          `json:"description,omitempty"`
}

// Dashboard is the read-only overview of balances and open obligations.
type Dashboard struct {
	Accounts           []AccountBalance    `json:"accounts"`
	TotalBalance       decimal.Decimal     `json:"total_balance"`
	AmountToPay        decimal.Decimal     `json:"amount_to_pay"`
	AmountToReceive    decimal.Decimal     `json:"amount_to_receive"`
	RecentTransactions []RecentTransaction `json:"recent_transactions"`
}
