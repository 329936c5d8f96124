package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/sheikh-saqib/money-management-ledger/internal/models"
	"github.com/shopspring/decimal"
)

func (m *MemoryLedgerStore) ActiveAccountBalances(ctx context.Context) ([]models.AccountBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	balances := make([]models.AccountBalance, 0, len(m.accounts))
	for _, a := range m.accounts {
		if !a.Active {
			continue
		}
		balances = append(balances, models.AccountBalance{ID: a.ID, Name: a.Name, Balance: a.Balance})
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].Name < balances[j].Name })
	return balances, nil
}

func (m *MemoryLedgerStore) TotalActiveBalance(ctx context.Context) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := decimal.Zero
	for _, a := range m.accounts {
		if a.Active {
			total = total.Add(a.Balance)
		}
	}
	return total, nil
}

// AmountToPay sums actual minus paid over borrowed and shared-open debits.
// Rows missing either amount are skipped.
func (m *MemoryLedgerStore) AmountToPay(ctx context.Context) (decimal.Decimal, error) {
	payable := []models.FinanceType{models.FinanceBorrowed, models.FinanceSharedOpen}
	return m.outstanding(models.FlowDebit, payable, func(t models.Transaction) decimal.Decimal {
		return t.ActualAmount.Decimal.Sub(t.PaidAmount.Decimal)
	}), nil
}

// AmountToReceive sums paid minus actual over lent and shared-open credits.
func (m *MemoryLedgerStore) AmountToReceive(ctx context.Context) (decimal.Decimal, error) {
	receivable := []models.FinanceType{models.FinanceLent, models.FinanceSharedOpen}
	return m.outstanding(models.FlowCredit, receivable, func(t models.Transaction) decimal.Decimal {
		return t.PaidAmount.Decimal.Sub(t.ActualAmount.Decimal)
	}), nil
}

func (m *MemoryLedgerStore) outstanding(flow models.Flow, types []models.FinanceType, diff func(models.Transaction) decimal.Decimal) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := decimal.Zero
	for _, t := range m.transactions {
		if t.Flow != flow || !slices.Contains(types, t.FinanceType) {
			continue
		}
		if !t.PaidAmount.Valid || !t.ActualAmount.Valid {
			continue
		}
		total = total.Add(diff(t))
	}
	return total
}

// RecentTransactions returns up to limit entries, newest bill date first.
// Entries without a bill date sort last; ties go to the newest created.
func (m *MemoryLedgerStore) RecentTransactions(ctx context.Context, limit int) ([]models.RecentTransaction, error) {
	m.mu.RLock()
	txns := make([]models.Transaction, 0, len(m.transactions))
	for _, t := range m.transactions {
		txns = append(txns, t)
	}
	m.mu.RUnlock()

	sort.Slice(txns, func(i, j int) bool {
		a, b := txns[i], txns[j]
		switch {
		case a.BillDate == nil && b.BillDate != nil:
			return false
		case a.BillDate != nil && b.BillDate == nil:
			return true
		case a.BillDate != nil && !a.BillDate.Equal(*b.BillDate):
			return a.BillDate.After(*b.BillDate)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	if limit > 0 && len(txns) > limit {
		txns = txns[:limit]
	}

	recent := make([]models.RecentTransaction, 0, len(txns))
	for _, t := range txns {
		recent = append(recent, models.RecentTransaction{
			TxnID:       t.ID,
			FinID:       t.FinID,
			BillDate:    t.BillDate,
			Amount:      t.Amount,
			Flow:        t.Flow,
			FinanceType: t.FinanceType,
			Description: t.Description,
		})
	}
	return recent, nil
}
