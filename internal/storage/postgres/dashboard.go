package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sheikh-saqib/money-management-ledger/internal/models"
	"github.com/shopspring/decimal"
)

func (p *PostgresLedgerStore) ActiveAccountBalances(ctx context.Context) ([]models.AccountBalance, error) {
	const query = `SELECT account_id, account_name, balance FROM accounts WHERE is_active ORDER BY account_name`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("active balances: %w", err)
	}
	defer rows.Close()

	var balances []models.AccountBalance
	for rows.Next() {
		var b models.AccountBalance
		if err := rows.Scan(&b.ID, &b.Name, &b.Balance); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return balances, nil
}

func (p *PostgresLedgerStore) TotalActiveBalance(ctx context.Context) (decimal.Decimal, error) {
	return p.sum(ctx, "total balance",
		`SELECT COALESCE(SUM(balance), 0) FROM accounts WHERE is_active`)
}

// AmountToPay sums what is still owed on borrowed and shared-open debits.
// Rows missing either amount contribute nothing.
func (p *PostgresLedgerStore) AmountToPay(ctx context.Context) (decimal.Decimal, error) {
	return p.sum(ctx, "amount to pay",
		`SELECT COALESCE(SUM(actual_amount - paid_amount), 0) FROM transactions
		WHERE finance_type IN ('borrowed', 'shared-open') AND flow = 'debit'`)
}

// AmountToReceive sums what others still owe on lent and shared-open credits.
func (p *PostgresLedgerStore) AmountToReceive(ctx context.Context) (decimal.Decimal, error) {
	return p.sum(ctx, "amount to receive",
		`SELECT COALESCE(SUM(paid_amount - actual_amount), 0) FROM transactions
		WHERE finance_type IN ('lent', 'shared-open') AND flow = 'credit'`)
}

func (p *PostgresLedgerStore) sum(ctx context.Context, name, query string) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := p.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", name, err)
	}
	return total, nil
}

// RecentTransactions returns up to limit entries by bill date, newest first,
// undated entries last. A non-positive limit returns every entry.
func (p *PostgresLedgerStore) RecentTransactions(ctx context.Context, limit int) ([]models.RecentTransaction, error) {
	query := `SELECT txn_id, fin_id, bill_date, amount, flow, finance_type, description
	FROM transactions ORDER BY bill_date DESC NULLS LAST, created_ts DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	defer rows.Close()

	var recent []models.RecentTransaction
	for rows.Next() {
		var (
			r                 models.RecentTransaction
			billDate          sql.NullTime
			flow, financeType string
			description       sql.NullString
		)
		if err := rows.Scan(&r.TxnID, &r.FinID, &billDate, &r.Amount, &flow, &financeType, &description); err != nil {
			return nil, err
		}
		r.BillDate = timePtr(billDate)
		r.Flow = models.Flow(flow)
		r.FinanceType = models.FinanceType(financeType)
		r.Description = description.String
		recent = append(recent, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recent, nil
}
