package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	interfaces "github.com/sheikh-saqib/money-management-ledger/internal/interfaces"
	"github.com/sheikh-saqib/money-management-ledger/internal/models"
)

func (p *PostgresLedgerStore) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE txn_id = $1`

	txn, err := scanTransaction(p.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, interfaces.ErrTransactionNotFound
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("select transaction %s: %w", id, err)
	}
	return txn, nil
}

// ListTransactions returns every entry ordered by id.
func (p *PostgresLedgerStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY txn_id`
	return p.queryTransactions(ctx, query)
}

// TransactionsByFinID returns the entries of one financial event ordered by id.
func (p *PostgresLedgerStore) TransactionsByFinID(ctx context.Context, finID string) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE fin_id = $1 ORDER BY txn_id`
	return p.queryTransactions(ctx, query, finID)
}

func (p *PostgresLedgerStore) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var result []models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		result = append(result, txn)
	}
	return result, rows.Err()
}
