package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/money-management-ledger/internal/interfaces"
	"github.com/sheikh-saqib/money-management-ledger/internal/models"
)

// CreateAccount inserts a new account. An empty ID is replaced by a UUID.
func (p *PostgresLedgerStore) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	if err := account.Validate(); err != nil {
		return models.Account{}, err
	}
	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	const query = `INSERT INTO accounts (account_id, account_name, account_type, balance, is_active, created_ts, updated_ts)
	VALUES ($1, $2, $3, $4, $5, now(), now())
	RETURNING created_ts, updated_ts`

	err := p.db.QueryRowContext(ctx, query,
		account.ID, account.Name, string(account.Type), account.Balance, account.Active,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return models.Account{}, fmt.Errorf("insert account %s: %w", account.ID, translate(err))
	}
	return account, nil
}

func (p *PostgresLedgerStore) GetAccount(ctx context.Context, id string) (models.Account, error) {
	const query = `SELECT account_id, account_name, account_type, balance, is_active, created_ts, updated_ts
	FROM accounts WHERE account_id = $1`

	account, err := scanAccount(p.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, interfaces.ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("select account %s: %w", id, err)
	}
	return account, nil
}

func (p *PostgresLedgerStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	const query = `SELECT account_id, account_name, account_type, balance, is_active, created_ts, updated_ts
	FROM accounts ORDER BY account_name`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func scanAccount(row rowScanner) (models.Account, error) {
	var (
		account     models.Account
		accountType string
	)
	err := row.Scan(
		&account.ID,
		&account.Name,
		&accountType,
		&account.Balance,
		&account.Active,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	account.Type = models.AccountType(accountType)
	return account, err
}
