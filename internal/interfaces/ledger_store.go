package interfaces

import (
	"context"
	"errors"

	"github.com/sheikh-saqib/money-management-ledger/internal/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrTransactionNotFound is returned when no ledger entry has the requested id.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrAccountNotFound is returned when no account row has the requested id.
	ErrAccountNotFound = errors.New("account not found")
)

// LedgerStore opens units of work against the ledger tables.
type LedgerStore interface {
	BeginWork(ctx context.Context) (UnitOfWork, error)
}

// UnitOfWork is an atomic scope. Nothing written through it is visible to
// other scopes until Commit returns nil. Rollback after Commit is a no-op,
// so callers can defer it unconditionally.
type UnitOfWork interface {
	// ReadTransaction returns the stored entry or ErrTransactionNotFound.
	ReadTransaction(ctx context.Context, id string) (models.Transaction, error)
	// WriteTransaction inserts the entry, or overwrites it when the id exists.
	WriteTransaction(ctx context.Context, entry models.Transaction) error
	// DeleteTransaction removes the entry or returns ErrTransactionNotFound.
	DeleteTransaction(ctx context.Context, id string) error
	// AdjustAccountBalance adds delta to the account balance in one atomic
	// step relative to the stored value.
	AdjustAccountBalance(ctx context.Context, accountID string, delta decimal.Decimal) error
	// LockAccounts locks the account rows in the order given until the work
	// ends. Callers pass ids sorted so concurrent work cannot deadlock.
	// Unknown ids are ignored.
	LockAccounts(ctx context.Context, accountIDs []string) error

	Commit() error
	Rollback() error
}

// AccountStore manages account rows outside of the ledger engine.
type AccountStore interface {
	CreateAccount(ctx context.Context, account models.Account) (models.Account, error)
	GetAccount(ctx context.Context, id string) (models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
}

// TransactionReader reads committed ledger entries.
type TransactionReader interface {
	GetTransaction(ctx context.Context, id string) (models.Transaction, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	TransactionsByFinID(ctx context.Context, finID string) ([]models.Transaction, error)
}

// DashboardReader runs the read-only aggregation queries of the dashboard.
type DashboardReader interface {
	ActiveAccountBalances(ctx context.Context) ([]models.AccountBalance, error)
	TotalActiveBalance(ctx context.Context) (decimal.Decimal, error)
	AmountToPay(ctx context.Context) (decimal.Decimal, error)
	AmountToReceive(ctx context.Context) (decimal.Decimal, error)
	RecentTransactions(ctx context.Context, limit int) ([]models.RecentTransaction, error)
}
