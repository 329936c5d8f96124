package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Topic is the default topic ledger events are published to.
const Topic = "ledger.transactions"

// Action is what happened to a ledger entry.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// TransactionRecorded is emitted once per ledger entry touched by a committed
// create, update or delete.
type TransactionRecorded struct {
	Action      Action          `json:"action"`
	TxnID       string          `json:"txn_id"`
	FinID       string          `json:"fin_id"`
	AccountID   string          `json:"account_id"`
	Flow        string          `json:"flow"`
	FinanceType string          `json:"finance_type"`
	Amount      decimal.Decimal `json:"amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Key groups the legs of one financial event on the same partition.
func (e TransactionRecorded) Key() string {
	return e.FinID
}
