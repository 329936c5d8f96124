package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/money-management-ledger/internal/interfaces"
	"github.com/sheikh-saqib/money-management-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// ErrWorkClosed is returned when a unit of work is used after Commit or Rollback.
var ErrWorkClosed = errors.New("memory: unit of work already closed")

// MemoryLedgerStore keeps accounts and ledger entries in maps.
// Units of work are serialized: BeginWork takes the work slot and holds it
// until the work commits or rolls back, so concurrent operations on the same
// account never interleave. Readers only take mu and see committed state.
type MemoryLedgerStore struct {
	work         chan struct{}
	mu           sync.RWMutex
	accounts     map[string]models.Account
	transactions map[string]models.Transaction
	now          func() time.Time
}

// NewMemoryLedgerStore creates an empty store.
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		work:         make(chan struct{}, 1),
		accounts:     make(map[string]models.Account),
		transactions: make(map[string]models.Transaction),
		now:          time.Now,
	}
}

// BeginWork waits for the work slot and returns a scope working on private
// copies of the tables. Commit publishes the copies; Rollback drops them.
// It gives up with ctx.Err() when ctx ends before the slot frees.
func (m *MemoryLedgerStore) BeginWork(ctx context.Context) (interfaces.UnitOfWork, error) {
	if err := m.acquire(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return &unitOfWork{
		store:        m,
		accounts:     maps.Clone(m.accounts),
		transactions: maps.Clone(m.transactions),
	}, nil
}

func (m *MemoryLedgerStore) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case m.work <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MemoryLedgerStore) release() {
	<-m.work
}

type unitOfWork struct {
	store        *MemoryLedgerStore
	accounts     map[string]models.Account
	transactions map[string]models.Transaction
	closed       bool
}

func (w *unitOfWork) ReadTransaction(ctx context.Context, id string) (models.Transaction, error) {
	if w.closed {
		return models.Transaction{}, ErrWorkClosed
	}
	txn, ok := w.transactions[id]
	if !ok {
		return models.Transaction{}, interfaces.ErrTransactionNotFound
	}
	return txn, nil
}

func (w *unitOfWork) WriteTransaction(ctx context.Context, entry models.Transaction) error {
	if w.closed {
		return ErrWorkClosed
	}
	if _, ok := w.accounts[entry.AccountID]; !ok {
		return fmt.Errorf("transaction %s references %s: %w", entry.ID, entry.AccountID, interfaces.ErrAccountNotFound)
	}
	if existing, ok := w.transactions[entry.ID]; ok {
		entry.CreatedAt = existing.CreatedAt
	}
	w.transactions[entry.ID] = entry
	return nil
}

func (w *unitOfWork) DeleteTransaction(ctx context.Context, id string) error {
	if w.closed {
		return ErrWorkClosed
	}
	if _, ok := w.transactions[id]; !ok {
		return interfaces.ErrTransactionNotFound
	}
	delete(w.transactions, id)
	return nil
}

func (w *unitOfWork) AdjustAccountBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	if w.closed {
		return ErrWorkClosed
	}
	account, ok := w.accounts[accountID]
	if !ok {
		return interfaces.ErrAccountNotFound
	}
	account.Balance = account.Balance.Add(delta)
	account.UpdatedAt = w.store.now()
	w.accounts[accountID] = account
	return nil
}

// LockAccounts is a no-op beyond the closed check; the work slot already
// excludes every other unit of work.
func (w *unitOfWork) LockAccounts(ctx context.Context, accountIDs []string) error {
	if w.closed {
		return ErrWorkClosed
	}
	return nil
}

func (w *unitOfWork) Commit() error {
	if w.closed {
		return ErrWorkClosed
	}
	w.closed = true

	w.store.mu.Lock()
	w.store.accounts = w.accounts
	w.store.transactions = w.transactions
	w.store.mu.Unlock()

	w.store.release()
	return nil
}

func (w *unitOfWork) Rollback() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.store.release()
	return nil
}

// CreateAccount stores a new account. An empty ID is replaced by a UUID.
func (m *MemoryLedgerStore) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	if err := account.Validate(); err != nil {
		return models.Account{}, err
	}

	// An open unit of work would overwrite the account on commit.
	if err := m.acquire(ctx); err != nil {
		return models.Account{}, err
	}
	defer m.release()

	m.mu.Lock()
	defer m.mu.Unlock()

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if _, exists := m.accounts[account.ID]; exists {
		return models.Account{}, fmt.Errorf("%w: account %s already exists", models.ErrInvalidAccount, account.ID)
	}
	now := m.now()
	account.CreatedAt = now
	account.UpdatedAt = now
	m.accounts[account.ID] = account
	return account, nil
}

func (m *MemoryLedgerStore) GetAccount(ctx context.Context, id string) (models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[id]
	if !ok {
		return models.Account{}, interfaces.ErrAccountNotFound
	}
	return account, nil
}

// ListAccounts returns every account ordered by name.
func (m *MemoryLedgerStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accounts := make([]models.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return accounts, nil
}

// GetTransaction returns a committed ledger entry.
func (m *MemoryLedgerStore) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	txn, ok := m.transactions[id]
	if !ok {
		return models.Transaction{}, interfaces.ErrTransactionNotFound
	}
	return txn, nil
}

// TransactionsByFinID returns the committed entries of one financial event.
func (m *MemoryLedgerStore) TransactionsByFinID(ctx context.Context, finID string) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Transaction
	for _, txn := range m.transactions {
		if txn.FinID == finID {
			result = append(result, txn)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ListTransactions returns every committed entry ordered by id.
func (m *MemoryLedgerStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Transaction, 0, len(m.transactions))
	for _, txn := range m.transactions {
		result = append(result, txn)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

var (
	_ interfaces.LedgerStore       = (*MemoryLedgerStore)(nil)
	_ interfaces.AccountStore      = (*MemoryLedgerStore)(nil)
	_ interfaces.TransactionReader = (*MemoryLedgerStore)(nil)
	_ interfaces.DashboardReader   = (*MemoryLedgerStore)(nil)
)
